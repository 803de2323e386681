// Package util implements common utility functions.
package util

import (
	"io"
)

// A ReadSeekerAt is a bounded view over a package that can be read
// sequentially while sections are parsed and randomly once entries are
// located.
type ReadSeekerAt interface {
	io.ReadSeeker
	io.ReaderAt
	Size() int64
}

// A ResettingReader rewinds to its start whenever a sequential read reaches
// the end, so that section parsing can stop at EOF and the same view can
// still be handed out for random access.
type ResettingReader struct {
	*io.SectionReader
}

// NewResettingReader returns a ResettingReader over n bytes of r, starting at
// off.
func NewResettingReader(r io.ReaderAt, off int64, n int64) ReadSeekerAt {
	return &ResettingReader{io.NewSectionReader(r, off, n)}
}

func (r *ResettingReader) Read(p []byte) (n int, err error) {
	n, err = r.SectionReader.Read(p)
	if err == io.EOF {
		r.SectionReader.Seek(0, io.SeekStart)
	}
	return
}

// An InfiniteReaderAt reads as an endless run of a single byte value.
type InfiniteReaderAt struct {
	Value byte
}

// ReadAt fills p with the Value of this InfiniteReaderAt.
func (r *InfiniteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	for i := range p {
		p[i] = r.Value
	}
	return len(p), nil
}

// Padding returns a reader over n NUL bytes.
func Padding(n int64) io.Reader {
	return io.NewSectionReader(&InfiniteReaderAt{0}, 0, n)
}
