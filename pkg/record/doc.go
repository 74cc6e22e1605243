// Package record implements the generic record codec. It walks the schema
// of a Go struct type and writes each present field as a one-byte wire tag
// followed by its payload.
//
// Wire Format
//
//	record  := { tag:1 payload }
//	payload := fixed                      (declared width, no prefix)
//	         | len:u32 bytes              (self-describing scalar)
//	         | len:u32 record             (nested record)
//	         | prefix:u32 { element }     (array)
//
// All integers are little-endian. The array prefix is count×width for
// fixed-width elements and the element byte count when each element carries
// its own length word. There is no header or version byte; the caller
// supplies the record type when decoding.
//
// Basic Usage
//
//	types := schema.NewRegistry(codec.NewRegistry())
//	rc := record.New(types)
//
//	data, err := rc.Encode(&models.Area{Name: ptr("kitchen")})
//	if err != nil {
//		return err
//	}
//
//	var area models.Area
//	if err := rc.Decode(data, &area); err != nil {
//		return err
//	}
//
// A Codec holds no mutable state and may be shared by any number of
// goroutines.
package record
