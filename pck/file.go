// Package pck implements the resource package format: a single archive that
// holds every artifact of an export, addressed by path.
package pck

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
)

import (
	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"

	"github.com/louist103/OTRExporter/resource"
	"github.com/louist103/OTRExporter/util"
)

// ErrNotFound is returned by ReadEntry for a path that is not in the package.
var ErrNotFound = errors.New("no entry with this path")

// ErrHashMismatch is returned by ReadEntry when the bytes of an entry do not
// match the digest recorded for them.
var ErrHashMismatch = errors.New("entry does not match its recorded hash")

// A File represents an open resource package. A File may be read from an
// existing package, extended with Register, and written back with WriteTo.
type File struct {
	closer io.Closer
	// The compression applied to entries added with Register.
	Compression CompressionTag

	mu                   sync.Mutex
	PackageHeaderSection *PackageHeaderSection
	IndexSection         *IndexSection
	DataSection          *DataSection
}

// New returns an empty File that compresses registered entries with tag.
func New(tag CompressionTag) *File {
	return &File{
		Compression: tag,
		PackageHeaderSection: &PackageHeaderSection{
			Header:     &SectionHeader{pkhdHeaderId, PKHD_SECTION_BYTES},
			Descriptor: PackageDescriptor{Version: packageVersion},
		},
		IndexSection: &IndexSection{
			Header:        &SectionHeader{tocHeaderId, 0},
			DescriptorMap: make(map[string]*EntryDescriptor),
		},
		DataSection: &DataSection{
			Header: &SectionHeader{dataHeaderId, 0},
		},
	}
}

// NewFile creates a new File for access to resource packages. The file is
// expected to start at position 0 in the io.ReaderAt.
func NewFile(r io.ReaderAt) (*File, error) {
	pck := New(CompressionAuto)
	pck.PackageHeaderSection, pck.IndexSection, pck.DataSection = nil, nil, nil

	sr := util.NewResettingReader(r, 0, math.MaxInt64)
	for {
		hdr := new(SectionHeader)
		err := binary.Read(sr, binary.LittleEndian, hdr)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		switch id := hdr.Identifier; id {
		case pkhdHeaderId:
			sec, err := hdr.NewPackageHeaderSection(sr)
			if err != nil {
				return nil, err
			}
			pck.PackageHeaderSection = sec
		case tocHeaderId:
			sec, err := hdr.NewIndexSection(sr)
			if err != nil {
				return nil, err
			}
			pck.IndexSection = sec
		case dataHeaderId:
			if pck.IndexSection == nil {
				return nil, errors.New("DATA section precedes the TOC section")
			}
			sec, err := hdr.NewDataSection(sr, pck.IndexSection)
			if err != nil {
				return nil, err
			}
			pck.DataSection = sec
		default:
			return nil, fmt.Errorf("unknown section %q", id[:])
		}
	}

	if pck.PackageHeaderSection == nil || pck.IndexSection == nil ||
		pck.DataSection == nil {
		return nil, errors.New("this file is not a complete resource package")
	}
	if n := pck.PackageHeaderSection.Descriptor.EntryCount; int(n) != len(pck.IndexSection.Descriptors) {
		return nil, fmt.Errorf("the header lists %d entries but the TOC lists %d",
			n, len(pck.IndexSection.Descriptors))
	}
	return pck, nil
}

// Open opens the File at the specified path using os.Open and prepares it for
// use as a resource package.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	pck, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	pck.closer = f
	return pck, nil
}

// Close closes the File
// If the File was created using NewFile directly instead of Open,
// Close has no effect.
func (pck *File) Close() error {
	var err error
	if pck.closer != nil {
		err = pck.closer.Close()
		pck.closer = nil
	}
	return err
}

// Register compresses data and appends it to the package under path. It is
// safe for concurrent use.
func (pck *File) Register(path string, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("%s: %d bytes do not fit a package entry", path, len(data))
	}
	stored, tag, err := compress(data, pck.Compression)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if tag == CompressionNone {
		stored = append([]byte(nil), data...)
	}

	pck.mu.Lock()
	defer pck.mu.Unlock()
	idx := pck.IndexSection
	if _, ok := idx.DescriptorMap[path]; ok {
		return fmt.Errorf("%s: %w", path, resource.ErrDuplicatePath)
	}
	offset := pck.DataSection.end()
	if offset+int64(len(stored)) > math.MaxUint32 {
		return fmt.Errorf("%s: the package DATA section is full", path)
	}

	desc := &EntryDescriptor{
		Path:        path,
		Offset:      uint32(offset),
		Length:      uint32(len(stored)),
		Size:        uint32(len(data)),
		Compression: tag,
		Hash:        blake3.Sum256(data),
	}
	idx.Descriptors = append(idx.Descriptors, desc)
	idx.DescriptorMap[path] = desc
	r := io.NewSectionReader(bytes.NewReader(stored), 0, int64(len(stored)))
	pck.DataSection.Entries = append(pck.DataSection.Entries, &Entry{r, desc})
	pck.PackageHeaderSection.Descriptor.EntryCount++
	return nil
}

// WriteTo writes the full contents of this File to the Writer specified by w.
func (pck *File) WriteTo(w io.Writer) (written int64, err error) {
	pck.mu.Lock()
	defer pck.mu.Unlock()
	for _, s := range pck.sections() {
		n, err := s.WriteTo(w)
		written += n
		if err != nil {
			return written, err
		}
	}
	return
}

// WriteFile writes the package to the file at path, replacing it.
func (pck *File) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := pck.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (pck *File) sections() []Section {
	return []Section{pck.PackageHeaderSection, pck.IndexSection, pck.DataSection}
}

// Entries returns the descriptors of every entry, in storage order.
func (pck *File) Entries() []EntryDescriptor {
	pck.mu.Lock()
	defer pck.mu.Unlock()
	descs := make([]EntryDescriptor, len(pck.IndexSection.Descriptors))
	for i, desc := range pck.IndexSection.Descriptors {
		descs[i] = *desc
	}
	return descs
}

// ReadEntry returns the decompressed bytes of the entry at path, after
// verifying them against their recorded hash.
func (pck *File) ReadEntry(path string) ([]byte, error) {
	pck.mu.Lock()
	var entry *Entry
	for _, e := range pck.DataSection.Entries {
		if e.Descriptor.Path == path {
			entry = e
			break
		}
	}
	pck.mu.Unlock()
	if entry == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	desc := entry.Descriptor
	stored := make([]byte, desc.Length)
	if _, err := entry.ReadAt(stored, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := decompress(stored, desc.Compression, int(desc.Size))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if blake3.Sum256(data) != desc.Hash {
		return nil, fmt.Errorf("%s: %w", path, ErrHashMismatch)
	}
	return data, nil
}

func (pck *File) String() string {
	pck.mu.Lock()
	defer pck.mu.Unlock()
	b := new(strings.Builder)

	for _, sec := range pck.sections() {
		b.WriteString(sec.String())
	}

	tableParams := []string{"%-7", "%-48", "%-10", "%-10", "%-10", "%-6", "\n"}
	titleFmt := strings.Join(tableParams, "s|")
	title := fmt.Sprintf(titleFmt,
		"Index", "Path", "Offset", "Stored", "Size", "Codec")
	fmt.Fprint(b, title)
	fmt.Fprintln(b, strings.Repeat("-", len(title)-1))

	entryFmt := strings.Join([]string{"%-7d", "%-48s", "%-10d", "%-10s",
		"%-10s", "%-6s", "\n"}, "|")
	for i, desc := range pck.IndexSection.Descriptors {
		fmt.Fprintf(b, entryFmt, i+1, desc.Path, desc.Offset,
			humanize.Bytes(uint64(desc.Length)), humanize.Bytes(uint64(desc.Size)),
			desc.Compression)
	}

	return b.String()
}
