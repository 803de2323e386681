// Package resource implements the binary primitives shared by every resource
// artifact: the little-endian writer, the resource header and output naming.
package resource

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// The number of bytes occupied by a resource header.
const HEADER_BYTES = 0x40

// The identifier stamped into every header. Resources are addressed by path,
// never by id.
const headerId = 0xDEADBEEFDEADBEEF

// The endianness marker for little-endian resources.
const endiannessLittle = 0

// A Type identifies the kind of resource that follows a header.
type Type uint32

const (
	TypeAudio          Type = 0x4F415544 // OAUD
	TypeAudioSample    Type = 0x4F534D50 // OSMP
	TypeAudioSoundFont Type = 0x4F534654 // OSFT
	TypeAudioSequence  Type = 0x4F534551 // OSEQ
)

func (t Type) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(t))
	return string(b[:])
}

// A Header is the fixed preamble of every binary resource.
type Header struct {
	Endianness uint8
	_          [3]byte
	Type       Type
	Version    uint32
	Id         uint64
	_          [HEADER_BYTES - 20]byte
}

// WriteHeader writes the header for a resource of type t and format version
// to bw.
func WriteHeader(bw *Writer, t Type, version uint32) {
	bw.Uint8(endiannessLittle)
	bw.Bytes([]byte{0, 0, 0})
	bw.Uint32(uint32(t))
	bw.Uint32(version)
	bw.Uint64(headerId)
	bw.Bytes(make([]byte, HEADER_BYTES-20))
}

// ReadHeader reads a resource header from r.
func ReadHeader(r io.Reader) (*Header, error) {
	hdr := new(Header)
	err := binary.Read(r, binary.LittleEndian, hdr)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated resource header: %w", err)
		}
		return nil, err
	}
	if hdr.Endianness != endiannessLittle {
		return nil, fmt.Errorf("unsupported resource endianness %d", hdr.Endianness)
	}
	return hdr, nil
}
