package models

import (
	"encoding/binary"
	"reflect"

	"github.com/ssargent/boconv/pkg/codec"
)

// SleepBinningCodecName is the struct tag name of the SleepBinning codec
const SleepBinningCodecName = "sleepbinning"

// KindSleepBinning is the codec kind of SleepBinning values
const KindSleepBinning = codec.KindCustom

// SleepBinning is a pair of heart-rate readings for one sleep bin
type SleepBinning struct {
	HRRI int32 `json:"hrri" yaml:"hrri" cbor:"hrri"`
	HRSS int32 `json:"hrss" yaml:"hrss" cbor:"hrss"`
}

// SleepBinningCodec writes HRRI then HRSS as big-endian int32, 8 bytes.
// Big-endian is what existing producers of this value write.
type SleepBinningCodec struct{}

func (SleepBinningCodec) Kind() codec.Kind        { return KindSleepBinning }
func (SleepBinningCodec) Width() uint32           { return 8 }
func (SleepBinningCodec) ValueType() reflect.Type { return reflect.TypeOf(SleepBinning{}) }
func (SleepBinningCodec) Default() any            { return SleepBinning{} }

func (SleepBinningCodec) Encode(v any, _ uint32) ([]byte, error) {
	var sb SleepBinning
	switch t := v.(type) {
	case nil:
	case SleepBinning:
		sb = t
	case *SleepBinning:
		if t != nil {
			sb = *t
		}
	default:
		return nil, codec.Errorf(codec.ErrIncompatible, "sleepbinning codec cannot encode %T", v)
	}
	out := binary.BigEndian.AppendUint32(make([]byte, 0, 8), uint32(sb.HRRI))
	return binary.BigEndian.AppendUint32(out, uint32(sb.HRSS)), nil
}

func (SleepBinningCodec) Decode(data []byte, _ uint32) codec.Result {
	if len(data) != 8 {
		return codec.Fatal(codec.Errorf(codec.ErrMalformedLength, "sleepbinning needs 8 bytes, got %d", len(data)))
	}
	return codec.Ok(SleepBinning{
		HRRI: int32(binary.BigEndian.Uint32(data)),
		HRSS: int32(binary.BigEndian.Uint32(data[4:])),
	})
}
