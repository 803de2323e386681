// Package codec provides the CBOR encoding configuration shared by bank
// manifests and resource package tables of contents.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the same
// logical value always produces identical bytes. Types carry `json` struct
// tags; fxamacker/cbor reads them when `cbor` tags are absent, so one tag set
// names a field in both JSON and CBOR.
package codec

import (
	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Tables of contents may hold many entries, but never unbounded ones.
		MaxArrayElements: 1 << 24,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
