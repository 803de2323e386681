// Package resource implements the binary primitives shared by every resource
// artifact: the little-endian writer, the resource header and output naming.
package resource

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestHeaderIsFixedSize(t *testing.T) {
	if size := binary.Size(Header{}); size != HEADER_BYTES {
		t.Fatalf("Header occupies %d bytes, expected %d", size, HEADER_BYTES)
	}

	buf := new(bytes.Buffer)
	bw := NewWriter(buf)
	WriteHeader(bw, TypeAudioSample, 2)
	if bw.Err() != nil {
		t.Fatal(bw.Err())
	}
	if buf.Len() != HEADER_BYTES || bw.Written() != HEADER_BYTES {
		t.Errorf("Wrote %d bytes (reported %d), expected %d", buf.Len(),
			bw.Written(), HEADER_BYTES)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	bw := NewWriter(buf)
	WriteHeader(bw, TypeAudioSoundFont, 2)

	hdr, err := ReadHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Type != TypeAudioSoundFont {
		t.Errorf("Type is %s, expected %s", hdr.Type, TypeAudioSoundFont)
	}
	if hdr.Version != 2 {
		t.Errorf("Version is %d, expected 2", hdr.Version)
	}
	if hdr.Id != headerId {
		t.Errorf("Id is 0x%X, expected 0x%X", hdr.Id, uint64(headerId))
	}
}

func TestTypeString(t *testing.T) {
	cases := map[Type]string{
		TypeAudio:          "OAUD",
		TypeAudioSample:    "OSMP",
		TypeAudioSoundFont: "OSFT",
		TypeAudioSequence:  "OSEQ",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("Type(0x%X).String() = %q, want %q", uint32(typ), got, want)
		}
	}
}

func TestWriterLittleEndian(t *testing.T) {
	buf := new(bytes.Buffer)
	bw := NewWriter(buf)
	bw.Uint32(0x01020304)
	bw.Int16(-2)
	bw.Bool(true)
	bw.String("ab")

	expected := []byte{
		0x04, 0x03, 0x02, 0x01,
		0xFE, 0xFF,
		0x01,
		0x02, 0x00, 0x00, 0x00, 'a', 'b',
	}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("Wrote % X, expected % X", buf.Bytes(), expected)
	}
	if bw.Written() != int64(len(expected)) {
		t.Errorf("Written() = %d, expected %d", bw.Written(), len(expected))
	}
}

type failingWriter struct{}

var errWrite = errors.New("write failed")

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errWrite
}

func TestWriterErrorIsSticky(t *testing.T) {
	bw := NewWriter(failingWriter{})
	bw.Uint8(1)
	bw.String("ignored")
	bw.Bytes([]byte{1, 2, 3})
	if !errors.Is(bw.Err(), errWrite) {
		t.Errorf("Err() = %v, expected %v", bw.Err(), errWrite)
	}
	if bw.Written() != 0 {
		t.Errorf("Written() = %d after a failed write, expected 0", bw.Written())
	}
}

func TestPathToRes(t *testing.T) {
	cases := []struct {
		root, hint, want string
	}{
		{"audio", "fonts/Font_00", "audio/fonts/Font_00"},
		{"audio/", "samples/sample_0000001A", "audio/samples/sample_0000001A"},
		{"", "sequences/seq_META", "sequences/seq_META"},
		{"assets\\audio", "fonts/x", "assets/audio/fonts/x"},
	}
	for _, c := range cases {
		if got := PathToRes(c.root, c.hint); got != c.want {
			t.Errorf("PathToRes(%q, %q) = %q, want %q", c.root, c.hint, got, c.want)
		}
	}
}
