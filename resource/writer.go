// Package resource implements the binary primitives shared by every resource
// artifact: the little-endian writer, the resource header and output naming.
package resource

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// A Writer writes little-endian values to an underlying io.Writer. The first
// error encountered is retained and every later write becomes a no-op, so a
// sequence of writes can be checked once with Err.
type Writer struct {
	w       io.Writer
	written int64
	err     error
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered by the Writer, if any.
func (bw *Writer) Err() error {
	return bw.err
}

// Written returns the number of bytes successfully written.
func (bw *Writer) Written() int64 {
	return bw.written
}

// write writes the fixed-size value v.
func (bw *Writer) write(v any, size int) {
	if bw.err != nil {
		return
	}
	bw.err = binary.Write(bw.w, binary.LittleEndian, v)
	if bw.err == nil {
		bw.written += int64(size)
	}
}

func (bw *Writer) Uint8(v uint8)     { bw.write(v, 1) }
func (bw *Writer) Int16(v int16)     { bw.write(v, 2) }
func (bw *Writer) Uint16(v uint16)   { bw.write(v, 2) }
func (bw *Writer) Int32(v int32)     { bw.write(v, 4) }
func (bw *Writer) Uint32(v uint32)   { bw.write(v, 4) }
func (bw *Writer) Uint64(v uint64)   { bw.write(v, 8) }
func (bw *Writer) Float32(v float32) { bw.write(v, 4) }

// Bool writes v as a single byte, 1 for true and 0 for false.
func (bw *Writer) Bool(v bool) {
	var b uint8
	if v {
		b = 1
	}
	bw.Uint8(b)
}

// Count writes the length of a list that is about to follow.
func (bw *Writer) Count(n int) {
	if bw.err != nil {
		return
	}
	if uint64(n) > math.MaxUint32 {
		bw.err = fmt.Errorf("count %d does not fit in 32 bits", n)
		return
	}
	bw.Uint32(uint32(n))
}

// Bytes writes p verbatim, without a length prefix.
func (bw *Writer) Bytes(p []byte) {
	if bw.err != nil {
		return
	}
	var n int
	n, bw.err = bw.w.Write(p)
	bw.written += int64(n)
}

// String writes s prefixed by its 32-bit length.
func (bw *Writer) String(s string) {
	bw.Count(len(s))
	if bw.err != nil {
		return
	}
	var n int
	n, bw.err = io.WriteString(bw.w, s)
	bw.written += int64(n)
}
