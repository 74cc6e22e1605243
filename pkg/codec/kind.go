package codec

import "fmt"

// Kind selects a codec. Built-in kinds are below KindCustom; applications
// register their own codecs at KindCustom and above.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindLong
	KindLongFrom4
	KindShort
	KindFloat
	KindDouble
	KindBoolean
	KindByteInt
	KindUUID
	KindString
	KindTimestamp
	KindTimestampLegacy
	KindLocation
	KindArray
	KindRecord
)

// KindCustom is the first kind available to application codecs
const KindCustom Kind = 64

var kindNames = map[Kind]string{
	KindInteger:         "int",
	KindLong:            "long",
	KindLongFrom4:       "long4",
	KindShort:           "short",
	KindFloat:           "float",
	KindDouble:          "double",
	KindBoolean:         "bool",
	KindByteInt:         "byteint",
	KindUUID:            "uuid",
	KindString:          "string",
	KindTimestamp:       "timestamp",
	KindTimestampLegacy: "timestamp_legacy",
	KindLocation:        "location",
	KindArray:           "array",
	KindRecord:          "record",
}

// String returns the name used for the kind in struct tags
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsContainer reports whether values of this kind are always enveloped
// on the wire regardless of declared width.
func (k Kind) IsContainer() bool {
	return k == KindArray || k == KindRecord
}
