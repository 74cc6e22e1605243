// Package models holds the sample record types used by the CLI, the HTTP
// gateway and the tests.
package models

import (
	"github.com/cockroachdb/errors"

	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/schema"
)

// Area is a named surface measurement
type Area struct {
	Name *string  `bo:"0x88,string" json:"name,omitempty" yaml:"name,omitempty" cbor:"name,omitempty"`
	Area *float64 `bo:"0x89,double,width=8" json:"area,omitempty" yaml:"area,omitempty" cbor:"area,omitempty"`
}

// ZoneType describes a geofenced zone
type ZoneType struct {
	MaxValue      *int32         `bo:"0x10,int,width=4" json:"max_value,omitempty" yaml:"max_value,omitempty" cbor:"max_value,omitempty"`
	MinValue      *int32         `bo:"0x11,int,width=4" json:"min_value,omitempty" yaml:"min_value,omitempty" cbor:"min_value,omitempty"`
	UUID          *string        `bo:"0x75,uuid,width=16" json:"uuid,omitempty" yaml:"uuid,omitempty" cbor:"uuid,omitempty"`
	Length        *int64         `bo:"0x13,timestamp,width=4" json:"length,omitempty" yaml:"length,omitempty" cbor:"length,omitempty"`
	Zones         []string       `bo:"0x12,array,elem=string" json:"zones,omitempty" yaml:"zones,omitempty" cbor:"zones,omitempty"`
	Latitude      *float64       `bo:"0x14,location,width=8" json:"latitude,omitempty" yaml:"latitude,omitempty" cbor:"latitude,omitempty"`
	Longitude     *float64       `bo:"0x15,location,width=8" json:"longitude,omitempty" yaml:"longitude,omitempty" cbor:"longitude,omitempty"`
	IsSafe        *bool          `bo:"0x16,bool,width=1" json:"is_safe,omitempty" yaml:"is_safe,omitempty" cbor:"is_safe,omitempty"`
	Accuracy      *float32       `bo:"0x17,float,width=4" json:"accuracy,omitempty" yaml:"accuracy,omitempty" cbor:"accuracy,omitempty"`
	Bearing       *int16         `bo:"0x18,short,width=2" json:"bearing,omitempty" yaml:"bearing,omitempty" cbor:"bearing,omitempty"`
	Altitude      *int64         `bo:"0x19,long,width=8" json:"altitude,omitempty" yaml:"altitude,omitempty" cbor:"altitude,omitempty"`
	Areas         []Area         `bo:"0x1A,array,elem=record" json:"areas,omitempty" yaml:"areas,omitempty" cbor:"areas,omitempty"`
	SleepBinnings []SleepBinning `bo:"0x1B,array,elem=sleepbinning,width=8" json:"sleep_binnings,omitempty" yaml:"sleep_binnings,omitempty" cbor:"sleep_binnings,omitempty"`
}

// Food is the top-level sample record
type Food struct {
	Name   *string   `bo:"0x10,string" json:"name,omitempty" yaml:"name,omitempty" cbor:"name,omitempty"`
	UUID   *string   `bo:"0x75,uuid,width=16" json:"uuid,omitempty" yaml:"uuid,omitempty" cbor:"uuid,omitempty"`
	Type   *int32    `bo:"0x11,int,width=4" json:"type,omitempty" yaml:"type,omitempty" cbor:"type,omitempty"`
	Amount *float64  `bo:"0x12,double,width=8" json:"amount,omitempty" yaml:"amount,omitempty" cbor:"amount,omitempty"`
	List   []float64 `bo:"0x13,array,elem=double,width=8" json:"list,omitempty" yaml:"list,omitempty" cbor:"list,omitempty"`
	Zone   *ZoneType `bo:"0x14,record" json:"zone,omitempty" yaml:"zone,omitempty" cbor:"zone,omitempty"`
}

// Register adds the SleepBinning codec to the codec registry behind types
// and registers every sample record type under its Go name.
func Register(types *schema.Registry) error {
	codecs := types.Codecs()
	if _, err := codecs.KindOf(SleepBinningCodecName); err != nil {
		err = codecs.Register(SleepBinningCodecName, KindSleepBinning, func() codec.Codec {
			return SleepBinningCodec{}
		})
		if err != nil {
			return err
		}
	}
	for name, v := range map[string]any{
		"Area":     Area{},
		"ZoneType": ZoneType{},
		"Food":     Food{},
	} {
		if _, err := types.RegisterNamed(name, v); err != nil {
			return errors.Wrapf(err, "register %s", name)
		}
	}
	return nil
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
