package codec

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		codec Codec
		value any
	}{
		{"int zero", Integer{}, int32(0)},
		{"int max", Integer{}, int32(math.MaxInt32)},
		{"int min", Integer{}, int32(math.MinInt32)},
		{"long max", Long{}, int64(math.MaxInt64)},
		{"long min", Long{}, int64(math.MinInt64)},
		{"long4 negative", LongFrom4{}, int64(-2)},
		{"long4 max int32", LongFrom4{}, int64(math.MaxInt32)},
		{"short max", Short{}, int16(math.MaxInt16)},
		{"short min", Short{}, int16(math.MinInt16)},
		{"float", Float{}, float32(3.25)},
		{"float max", Float{}, float32(math.MaxFloat32)},
		{"double", Double{}, 1.23},
		{"double smallest", Double{}, math.SmallestNonzeroFloat64},
		{"location", Location{}, -122.4194},
		{"bool true", Boolean{}, true},
		{"bool false", Boolean{}, false},
		{"byteint", ByteInt{}, int32(255)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := tc.codec.Encode(tc.value, tc.codec.Width())
			require.NoError(t, err)
			assert.Len(t, payload, int(tc.codec.Width()))

			res := tc.codec.Decode(payload, tc.codec.Width())
			require.True(t, res.IsOK(), "decode failed: %v", res.Err)
			assert.Equal(t, tc.value, res.Value)
		})
	}
}

func TestPrimitiveLittleEndian(t *testing.T) {
	payload, err := Integer{}.Encode(int32(42), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2a, 0x00, 0x00, 0x00}, payload)

	payload, err = Short{}.Encode(int16(-2), 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfe, 0xff}, payload)

	payload, err = Long{}.Encode(int64(0x0102030405060708), 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, payload)
}

func TestLongFrom4_Truncates(t *testing.T) {
	payload, err := LongFrom4{}.Encode(int64(1)<<32+5, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x00}, payload)

	res := LongFrom4{}.Decode([]byte{0xff, 0xff, 0xff, 0xff}, 4)
	require.True(t, res.IsOK())
	assert.Equal(t, int64(-1), res.Value)
}

func TestFloatSpecialValuesKeepBits(t *testing.T) {
	float32s := []float32{
		math.Float32frombits(0x7fc00001),
		float32(math.Inf(1)),
		float32(math.Inf(-1)),
		float32(math.Copysign(0, -1)),
	}
	for _, f := range float32s {
		payload, err := Float{}.Encode(f, 4)
		require.NoError(t, err)
		res := Float{}.Decode(payload, 4)
		require.True(t, res.IsOK())
		assert.Equal(t, math.Float32bits(f), math.Float32bits(res.Value.(float32)))
	}

	float64s := []float64{
		math.NaN(),
		math.Float64frombits(0x7ff8000000000abc),
		math.Inf(1),
		math.Inf(-1),
		math.Copysign(0, -1),
	}
	for _, f := range float64s {
		payload, err := Double{}.Encode(f, 8)
		require.NoError(t, err)
		res := Double{}.Decode(payload, 8)
		require.True(t, res.IsOK())
		assert.Equal(t, math.Float64bits(f), math.Float64bits(res.Value.(float64)))
	}
}

func TestLocation_SpecialValues(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		payload, err := Location{}.Encode(f, 8)
		require.NoError(t, err)
		res := Location{}.Decode(payload, 8)
		require.True(t, res.IsOK())
		assert.Equal(t, 0.0, res.Value)
	}

	payload, err := Location{}.Encode(math.Copysign(0, -1), 8)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), payload)
}

func TestBoolean_Decode(t *testing.T) {
	assert.Equal(t, true, Boolean{}.Decode([]byte{1}, 1).Value)
	assert.Equal(t, false, Boolean{}.Decode([]byte{2}, 1).Value)
	assert.Equal(t, false, Boolean{}.Decode([]byte{0xff}, 1).Value)

	res := Boolean{}.Decode(nil, 1)
	assert.True(t, res.IsOK())
	assert.Equal(t, false, res.Value)
}

func TestByteInt_LowByte(t *testing.T) {
	payload, err := ByteInt{}.Encode(int32(300), 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2c}, payload)
	assert.Equal(t, int32(0x2c), ByteInt{}.Decode(payload, 1).Value)
}

func TestPrimitive_WrongLength(t *testing.T) {
	testCases := []struct {
		codec Codec
		data  []byte
	}{
		{Integer{}, []byte{1, 2, 3}},
		{Long{}, []byte{1, 2, 3, 4}},
		{LongFrom4{}, []byte{1, 2, 3, 4, 5}},
		{Short{}, []byte{1}},
		{Float{}, nil},
		{Double{}, make([]byte, 9)},
		{Location{}, make([]byte, 4)},
		{ByteInt{}, []byte{1, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.codec.Kind().String(), func(t *testing.T) {
			res := tc.codec.Decode(tc.data, tc.codec.Width())
			assert.Equal(t, StatusFatal, res.Status)
			assert.True(t, errors.Is(res.Err, ErrMalformedLength))
		})
	}
}

func TestPrimitive_NilEncodesDefault(t *testing.T) {
	for _, c := range builtinCodecs(TimestampModeLegacy) {
		t.Run(c.Kind().String(), func(t *testing.T) {
			fromNil, err := c.Encode(nil, c.Width())
			require.NoError(t, err)
			fromDefault, err := c.Encode(c.Default(), c.Width())
			require.NoError(t, err)
			assert.Equal(t, fromDefault, fromNil)
		})
	}
}

func TestPrimitive_Pointers(t *testing.T) {
	v := int32(7)
	payload, err := Integer{}.Encode(&v, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 0, 0}, payload)

	var nilPtr *int32
	payload, err = Integer{}.Encode(nilPtr, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, payload)
}

func TestPrimitive_Incompatible(t *testing.T) {
	_, err := Integer{}.Encode(int64(1), 4)
	assert.True(t, errors.Is(err, ErrIncompatible))

	_, err = Double{}.Encode(float32(1), 8)
	assert.True(t, errors.Is(err, ErrIncompatible))

	_, err = Boolean{}.Encode("true", 1)
	assert.True(t, errors.Is(err, ErrIncompatible))
}
