package codec

import (
	"encoding/binary"
	"math"
	"reflect"
)

var (
	typeInt16   = reflect.TypeOf(int16(0))
	typeInt32   = reflect.TypeOf(int32(0))
	typeInt64   = reflect.TypeOf(int64(0))
	typeFloat32 = reflect.TypeOf(float32(0))
	typeFloat64 = reflect.TypeOf(float64(0))
	typeBool    = reflect.TypeOf(false)
	typeString  = reflect.TypeOf("")
)

// Integer encodes an int32 as 4 little-endian bytes
type Integer struct{}

func (Integer) Kind() Kind              { return KindInteger }
func (Integer) Width() uint32           { return 4 }
func (Integer) ValueType() reflect.Type { return typeInt32 }
func (Integer) Default() any            { return int32(0) }

func (c Integer) Encode(v any, _ uint32) ([]byte, error) {
	i, err := value[int32](c, v)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint32(make([]byte, 0, 4), uint32(i)), nil
}

func (c Integer) Decode(data []byte, _ uint32) Result {
	if err := exact(c, data); err != nil {
		return Fatal(err)
	}
	return Ok(int32(binary.LittleEndian.Uint32(data)))
}

// Long encodes an int64 as 8 little-endian bytes
type Long struct{}

func (Long) Kind() Kind              { return KindLong }
func (Long) Width() uint32           { return 8 }
func (Long) ValueType() reflect.Type { return typeInt64 }
func (Long) Default() any            { return int64(0) }

func (c Long) Encode(v any, _ uint32) ([]byte, error) {
	i, err := value[int64](c, v)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint64(make([]byte, 0, 8), uint64(i)), nil
}

func (c Long) Decode(data []byte, _ uint32) Result {
	if err := exact(c, data); err != nil {
		return Fatal(err)
	}
	return Ok(int64(binary.LittleEndian.Uint64(data)))
}

// LongFrom4 stores an int64 in 4 bytes. Encode truncates to the low 32 bits,
// decode sign-extends back to 64 bits.
type LongFrom4 struct{}

func (LongFrom4) Kind() Kind              { return KindLongFrom4 }
func (LongFrom4) Width() uint32           { return 4 }
func (LongFrom4) ValueType() reflect.Type { return typeInt64 }
func (LongFrom4) Default() any            { return int64(0) }

func (c LongFrom4) Encode(v any, _ uint32) ([]byte, error) {
	i, err := value[int64](c, v)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint32(make([]byte, 0, 4), uint32(int32(i))), nil
}

func (c LongFrom4) Decode(data []byte, _ uint32) Result {
	if err := exact(c, data); err != nil {
		return Fatal(err)
	}
	return Ok(int64(int32(binary.LittleEndian.Uint32(data))))
}

// Short encodes an int16 as 2 little-endian bytes
type Short struct{}

func (Short) Kind() Kind              { return KindShort }
func (Short) Width() uint32           { return 2 }
func (Short) ValueType() reflect.Type { return typeInt16 }
func (Short) Default() any            { return int16(0) }

func (c Short) Encode(v any, _ uint32) ([]byte, error) {
	i, err := value[int16](c, v)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint16(make([]byte, 0, 2), uint16(i)), nil
}

func (c Short) Decode(data []byte, _ uint32) Result {
	if err := exact(c, data); err != nil {
		return Fatal(err)
	}
	return Ok(int16(binary.LittleEndian.Uint16(data)))
}

// Float encodes a float32 as its IEEE-754 bits, little-endian. NaN and the
// infinities keep their exact bit patterns.
type Float struct{}

func (Float) Kind() Kind              { return KindFloat }
func (Float) Width() uint32           { return 4 }
func (Float) ValueType() reflect.Type { return typeFloat32 }
func (Float) Default() any            { return float32(0) }

func (c Float) Encode(v any, _ uint32) ([]byte, error) {
	f, err := value[float32](c, v)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint32(make([]byte, 0, 4), math.Float32bits(f)), nil
}

func (c Float) Decode(data []byte, _ uint32) Result {
	if err := exact(c, data); err != nil {
		return Fatal(err)
	}
	return Ok(math.Float32frombits(binary.LittleEndian.Uint32(data)))
}

// Double encodes a float64 as its IEEE-754 bits, little-endian
type Double struct{}

func (Double) Kind() Kind              { return KindDouble }
func (Double) Width() uint32           { return 8 }
func (Double) ValueType() reflect.Type { return typeFloat64 }
func (Double) Default() any            { return float64(0) }

func (c Double) Encode(v any, _ uint32) ([]byte, error) {
	f, err := value[float64](c, v)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint64(make([]byte, 0, 8), math.Float64bits(f)), nil
}

func (c Double) Decode(data []byte, _ uint32) Result {
	if err := exact(c, data); err != nil {
		return Fatal(err)
	}
	return Ok(math.Float64frombits(binary.LittleEndian.Uint64(data)))
}

// Location is the coordinate variant of Double. Both zeros encode as eight
// zero bytes, and a decoded NaN or infinity collapses to 0.
type Location struct{}

func (Location) Kind() Kind              { return KindLocation }
func (Location) Width() uint32           { return 8 }
func (Location) ValueType() reflect.Type { return typeFloat64 }
func (Location) Default() any            { return float64(0) }

func (c Location) Encode(v any, _ uint32) ([]byte, error) {
	f, err := value[float64](c, v)
	if err != nil {
		return nil, err
	}
	if f == 0 {
		return make([]byte, 8), nil
	}
	return binary.LittleEndian.AppendUint64(make([]byte, 0, 8), math.Float64bits(f)), nil
}

func (c Location) Decode(data []byte, _ uint32) Result {
	if err := exact(c, data); err != nil {
		return Fatal(err)
	}
	f := math.Float64frombits(binary.LittleEndian.Uint64(data))
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	return Ok(f)
}

// Boolean writes 1 for true and 0 for false. Any byte other than 1 decodes
// as false, including an empty payload.
type Boolean struct{}

func (Boolean) Kind() Kind              { return KindBoolean }
func (Boolean) Width() uint32           { return 1 }
func (Boolean) ValueType() reflect.Type { return typeBool }
func (Boolean) Default() any            { return false }

func (c Boolean) Encode(v any, _ uint32) ([]byte, error) {
	b, err := value[bool](c, v)
	if err != nil {
		return nil, err
	}
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (Boolean) Decode(data []byte, _ uint32) Result {
	return Ok(len(data) > 0 && data[0] == 1)
}

// ByteInt stores the low 8 bits of an int32, unsigned
type ByteInt struct{}

func (ByteInt) Kind() Kind              { return KindByteInt }
func (ByteInt) Width() uint32           { return 1 }
func (ByteInt) ValueType() reflect.Type { return typeInt32 }
func (ByteInt) Default() any            { return int32(0) }

func (c ByteInt) Encode(v any, _ uint32) ([]byte, error) {
	i, err := value[int32](c, v)
	if err != nil {
		return nil, err
	}
	return []byte{byte(i & 0xFF)}, nil
}

func (c ByteInt) Decode(data []byte, _ uint32) Result {
	if err := exact(c, data); err != nil {
		return Fatal(err)
	}
	return Ok(int32(data[0]))
}
