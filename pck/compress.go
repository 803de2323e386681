// Package pck implements the resource package format: a single archive that
// holds every artifact of an export, addressed by path.
package pck

import (
	"bytes"
	"errors"
	"fmt"
)

import (
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// A CompressionTag identifies how the stored bytes of an entry are
// compressed. Tags are stored in the table of contents; changing their values
// breaks existing packages.
type CompressionTag uint8

const (
	CompressionNone CompressionTag = 0
	// LZ4 block compression. Used for binary resources.
	CompressionLZ4 CompressionTag = 1
	// zstd at the default level. Used for XML resources.
	CompressionZstd CompressionTag = 2

	// CompressionAuto is never stored. It selects zstd for XML entries and
	// LZ4 for everything else.
	CompressionAuto CompressionTag = 0xFF
)

func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses the name of a compression tag.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "auto":
		return CompressionAuto, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", name)
	}
}

// errIncompressible is returned by the compressors when compression would not
// shrink the data. The entry is then stored uncompressed.
var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("pck: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("pck: zstd decoder initialization failed: " + err.Error())
	}
}

// choose resolves CompressionAuto for data.
func choose(data []byte, tag CompressionTag) CompressionTag {
	if tag != CompressionAuto {
		return tag
	}
	if bytes.HasPrefix(data, []byte("<")) {
		return CompressionZstd
	}
	return CompressionLZ4
}

// compress returns the stored form of data and the tag that was actually
// used, which is CompressionNone if the data did not shrink.
func compress(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	var stored []byte
	var err error
	switch tag = choose(data, tag); tag {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		stored, err = compressLZ4(data)
	case CompressionZstd:
		stored, err = compressZstd(data)
	default:
		return nil, 0, fmt.Errorf("unsupported compression tag: %s", tag)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return stored, tag, nil
}

// decompress returns the original bytes of an entry. size must match the
// original length exactly.
func decompress(stored []byte, tag CompressionTag, size int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(stored) != size {
			return nil, fmt.Errorf("uncompressed entry: size %d does not match expected %d",
				len(stored), size)
		}
		return stored, nil
	case CompressionLZ4:
		return decompressLZ4(stored, size)
	case CompressionZstd:
		return decompressZstd(stored, size)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %s", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func decompressLZ4(stored []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(stored, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
	}
	return dst, nil
}

func compressZstd(data []byte) ([]byte, error) {
	stored := zstdEncoder.EncodeAll(data, nil)
	if len(stored) >= len(data) {
		return nil, errIncompressible
	}
	return stored, nil
}

func decompressZstd(stored []byte, size int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d",
			len(result), size)
	}
	return result, nil
}
