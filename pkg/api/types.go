package api

import (
	"github.com/segmentio/ksuid"
	"github.com/ssargent/boconv/pkg/record"
)

// Content types understood by the object endpoints
const (
	ContentTypeJSON   = "application/json"
	ContentTypeCBOR   = "application/cbor"
	ContentTypeBinary = "application/octet-stream"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success" cbor:"success"`
	Data    interface{} `json:"data,omitempty" cbor:"data,omitempty"`
	Error   string      `json:"error,omitempty" cbor:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port          int
	Bind          string
	APIKey        string // empty disables authentication
	MaxRecordSize int64  // request body limit in bytes
}

// Objects is the object storage the server reads and writes
type Objects interface {
	PutRaw(typeName string, data []byte) (ksuid.KSUID, error)
	Raw(id ksuid.KSUID) (string, []byte, error)
	Load(id ksuid.KSUID) (string, any, error)
	Delete(id ksuid.KSUID) error
	List(typeName string) ([]ksuid.KSUID, error)
	Records() *record.Codec
}

// FieldInfo describes one field of a record type
type FieldInfo struct {
	Tag      string `json:"tag" cbor:"tag"`
	Name     string `json:"name" cbor:"name"`
	Kind     string `json:"kind" cbor:"kind"`
	Elem     string `json:"elem,omitempty" cbor:"elem,omitempty"`
	Width    uint32 `json:"width,omitempty" cbor:"width,omitempty"`
	Required bool   `json:"required,omitempty" cbor:"required,omitempty"`
	Record   string `json:"record,omitempty" cbor:"record,omitempty"`
}

// TypeInfo describes a registered record type
type TypeInfo struct {
	Name   string      `json:"name" cbor:"name"`
	Fields []FieldInfo `json:"fields" cbor:"fields"`
}

// ObjectResponse carries a stored object and its identity
type ObjectResponse struct {
	ID     string `json:"id" cbor:"id"`
	Type   string `json:"type" cbor:"type"`
	Size   int    `json:"size" cbor:"size"`
	Object any    `json:"object,omitempty" cbor:"object,omitempty"`
}

// ListResponse is the body of an object listing
type ListResponse struct {
	Type string   `json:"type" cbor:"type"`
	IDs  []string `json:"ids" cbor:"ids"`
}
