// Package pck implements the resource package format: a single archive that
// holds every artifact of an export, addressed by path.
package pck

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

import (
	"github.com/louist103/OTRExporter/codec"
	"github.com/louist103/OTRExporter/util"
)

// The number of bytes used to describe the header of a section.
const SECTION_HEADER_BYTES = 8

// The number of bytes used by the PKHD section, excluding its own header.
const PKHD_SECTION_BYTES = 8

// The byte alignment of every entry within the DATA section.
const entryAlignmentBytes = 16

// The package format version written by this package.
const packageVersion = 1

// The identifier for the start of the PKHD (Package Header) section.
var pkhdHeaderId = [4]byte{'P', 'K', 'H', 'D'}

// The identifier for the start of the TOC (Table of Contents) section.
var tocHeaderId = [4]byte{'T', 'O', 'C', ' '}

// The identifier for the start of the DATA section.
var dataHeaderId = [4]byte{'D', 'A', 'T', 'A'}

// A SectionHeader represents the header of a single package section.
type SectionHeader struct {
	Identifier [4]byte
	Length     uint32
}

// A Section is a single section of a package, in file order.
type Section interface {
	io.WriterTo
	fmt.Stringer
}

// A PackageHeaderSection represents the PKHD section of a package.
type PackageHeaderSection struct {
	Header     *SectionHeader
	Descriptor PackageDescriptor
}

// A PackageDescriptor provides metadata about the overall package.
type PackageDescriptor struct {
	Version    uint32
	EntryCount uint32
}

// An IndexSection represents the TOC section of a package.
type IndexSection struct {
	Header *SectionHeader
	// Every entry, in the order that its bytes appear in the DATA section.
	Descriptors []*EntryDescriptor
	// A mapping from an entry's path to its descriptor.
	DescriptorMap map[string]*EntryDescriptor
}

// An EntryDescriptor describes the location and encoding of a single entry.
type EntryDescriptor struct {
	Path string `json:"path"`
	// The number of bytes from the start of the DATA section's data (after the
	// header and length) that this entry begins.
	Offset uint32 `json:"offset"`
	// The number of stored bytes.
	Length uint32 `json:"length"`
	// The number of bytes once decompressed.
	Size        uint32         `json:"size"`
	Compression CompressionTag `json:"compression"`
	// The BLAKE3 digest of the decompressed bytes.
	Hash [32]byte `json:"hash"`
}

// A DataSection represents the DATA section of a package.
type DataSection struct {
	Header *SectionHeader
	// The offset into the file where the data portion of the DATA section
	// begins.
	DataStart int64
	Entries   []*Entry
}

// An Entry represents the stored bytes of a single artifact.
type Entry struct {
	*io.SectionReader
	Descriptor *EntryDescriptor
}

// padding returns the number of bytes needed to align offset.
func padding(offset int64) int64 {
	return (entryAlignmentBytes - offset%entryAlignmentBytes) % entryAlignmentBytes
}

// NewPackageHeaderSection creates a new PackageHeaderSection, reading from r,
// which must be seeked to the start of the PKHD section data.
// It is an error to call this method on a non-PKHD header.
func (hdr *SectionHeader) NewPackageHeaderSection(r io.ReadSeeker) (*PackageHeaderSection, error) {
	if hdr.Identifier != pkhdHeaderId {
		panic(fmt.Sprintf("Expected PKHD header but got: %s", hdr.Identifier))
	}
	if hdr.Length < PKHD_SECTION_BYTES {
		return nil, fmt.Errorf("PKHD section is %d bytes, expected at least %d",
			hdr.Length, PKHD_SECTION_BYTES)
	}
	sec := &PackageHeaderSection{Header: hdr}
	if err := binary.Read(r, binary.LittleEndian, &sec.Descriptor); err != nil {
		return nil, err
	}
	if v := sec.Descriptor.Version; v != packageVersion {
		return nil, fmt.Errorf("unsupported package version %d", v)
	}
	// Skip any trailing descriptor fields added by a later version.
	r.Seek(int64(hdr.Length-PKHD_SECTION_BYTES), io.SeekCurrent)
	return sec, nil
}

// WriteTo writes the full contents of this PackageHeaderSection to the
// Writer specified by w.
func (sec *PackageHeaderSection) WriteTo(w io.Writer) (written int64, err error) {
	sec.Header.Length = PKHD_SECTION_BYTES
	if err = binary.Write(w, binary.LittleEndian, sec.Header); err != nil {
		return
	}
	written = SECTION_HEADER_BYTES
	if err = binary.Write(w, binary.LittleEndian, sec.Descriptor); err != nil {
		return
	}
	written += PKHD_SECTION_BYTES
	return written, nil
}

func (sec *PackageHeaderSection) String() string {
	return fmt.Sprintf("%s: version %d, %d entries\n", sec.Header.Identifier[:],
		sec.Descriptor.Version, sec.Descriptor.EntryCount)
}

// NewIndexSection creates a new IndexSection, reading from r, which must be
// seeked to the start of the TOC section data.
// It is an error to call this method on a non-TOC header.
func (hdr *SectionHeader) NewIndexSection(r io.Reader) (*IndexSection, error) {
	if hdr.Identifier != tocHeaderId {
		panic(fmt.Sprintf("Expected TOC header but got: %s", hdr.Identifier))
	}
	toc := make([]byte, hdr.Length)
	if _, err := io.ReadFull(r, toc); err != nil {
		return nil, err
	}
	var descs []*EntryDescriptor
	if err := codec.Unmarshal(toc, &descs); err != nil {
		return nil, fmt.Errorf("decoding table of contents: %w", err)
	}

	sec := &IndexSection{hdr, nil, make(map[string]*EntryDescriptor)}
	for _, desc := range descs {
		if desc == nil {
			return nil, errors.New("the TOC holds an empty entry")
		}
		if _, ok := sec.DescriptorMap[desc.Path]; ok {
			return nil, fmt.Errorf("%q is an illegal repeated path in the TOC",
				desc.Path)
		}
		sec.Descriptors = append(sec.Descriptors, desc)
		sec.DescriptorMap[desc.Path] = desc
	}
	return sec, nil
}

// WriteTo writes the full contents of this IndexSection to the Writer
// specified by w.
func (idx *IndexSection) WriteTo(w io.Writer) (written int64, err error) {
	descs := idx.Descriptors
	if descs == nil {
		descs = []*EntryDescriptor{}
	}
	toc, err := codec.Marshal(descs)
	if err != nil {
		return 0, fmt.Errorf("encoding table of contents: %w", err)
	}
	idx.Header.Length = uint32(len(toc))
	if err = binary.Write(w, binary.LittleEndian, idx.Header); err != nil {
		return
	}
	written = SECTION_HEADER_BYTES
	n, err := w.Write(toc)
	written += int64(n)
	return written, err
}

func (idx *IndexSection) String() string {
	return fmt.Sprintf("%s: %d bytes\n", idx.Header.Identifier[:],
		idx.Header.Length)
}

// NewDataSection creates a new DataSection, reading from sr, which must be
// seeked to the start of the DATA section data. idx specifies where each
// entry is stored, relative to the current sr offset.
// It is an error to call this method on a non-DATA header.
func (hdr *SectionHeader) NewDataSection(sr util.ReadSeekerAt,
	idx *IndexSection) (*DataSection, error) {
	if hdr.Identifier != dataHeaderId {
		panic(fmt.Sprintf("Expected DATA header but got: %s", hdr.Identifier))
	}
	dataOffset, _ := sr.Seek(0, io.SeekCurrent)

	sec := &DataSection{hdr, dataOffset, nil}
	for _, desc := range idx.Descriptors {
		if end := int64(desc.Offset) + int64(desc.Length); end > int64(hdr.Length) {
			return nil, fmt.Errorf("entry %q ends at %d, past the end of the "+
				"DATA section at %d", desc.Path, end, hdr.Length)
		}
		r := io.NewSectionReader(sr, dataOffset+int64(desc.Offset),
			int64(desc.Length))
		sec.Entries = append(sec.Entries, &Entry{r, desc})
	}

	sr.Seek(int64(hdr.Length), io.SeekCurrent)
	return sec, nil
}

// end returns the aligned offset, relative to the data start, at which the
// next entry would begin.
func (data *DataSection) end() int64 {
	if len(data.Entries) == 0 {
		return 0
	}
	last := data.Entries[len(data.Entries)-1].Descriptor
	end := int64(last.Offset) + int64(last.Length)
	return end + padding(end)
}

// WriteTo writes the full contents of this DataSection to the Writer
// specified by w. Every entry is followed by NUL padding up to the next
// aligned offset.
func (data *DataSection) WriteTo(w io.Writer) (written int64, err error) {
	data.Header.Length = uint32(data.end())
	if err = binary.Write(w, binary.LittleEndian, data.Header); err != nil {
		return
	}
	written = SECTION_HEADER_BYTES

	var offset int64
	for _, e := range data.Entries {
		if gap := int64(e.Descriptor.Offset) - offset; gap > 0 {
			n, err := io.Copy(w, util.Padding(gap))
			written += n
			if err != nil {
				return written, err
			}
			offset += n
		}
		n, err := io.Copy(w, io.NewSectionReader(e, 0, e.Size()))
		written += n
		if err != nil {
			return written, err
		}
		offset += n
	}
	n, err := io.Copy(w, util.Padding(padding(offset)))
	written += n
	return written, err
}

func (data *DataSection) String() string {
	return fmt.Sprintf("%s: %d bytes, %d entries\n", data.Header.Identifier[:],
		data.Header.Length, len(data.Entries))
}
