// Package bank implements the in-memory model of a decoded audio bank.
package bank

import (
	"sort"
)

// A Medium describes where the bytes of an asset live at runtime.
type Medium uint8

const (
	MediumRam         Medium = 0
	MediumUnk         Medium = 1
	MediumCart        Medium = 2
	MediumDisk        Medium = 3
	MediumRamUnloaded Medium = 5
)

// A CachePolicy describes whether a loaded asset may be evicted.
type CachePolicy uint8

const (
	CacheTemporary  CachePolicy = 0
	CachePersistent CachePolicy = 1
	CacheEither     CachePolicy = 2
	CachePermanent  CachePolicy = 3
)

// The token printed for an enum value that has no name.
const errorToken = "ERROR"

// String returns the resource token for m, or "ERROR" for a value that has no
// token. Malformed banks still produce an inspectable artifact this way.
func (m Medium) String() string {
	switch m {
	case MediumRam:
		return "Ram"
	case MediumUnk:
		return "Unk"
	case MediumCart:
		return "Cart"
	case MediumDisk:
		return "Disk"
	case MediumRamUnloaded:
		return "RamUnloaded"
	default:
		return errorToken
	}
}

// String returns the resource token for p, or "ERROR" for a value that has no
// token.
func (p CachePolicy) String() string {
	switch p {
	case CacheTemporary:
		return "Temporary"
	case CachePersistent:
		return "Persistent"
	case CacheEither:
		return "Either"
	case CachePermanent:
		return "Permanent"
	default:
		return errorToken
	}
}

// A Bank represents a fully decoded audio bank. A Bank is read-only for the
// duration of an export.
type Bank struct {
	// The resource name of the bank itself.
	Name string
	// A mapping from the offset-derived sample id to its entry.
	Samples    map[uint32]*SampleEntry
	SoundFonts []SoundFont
	Sequences  []Sequence
	// A mapping from a sample's structural key to the canonical name of the
	// deduplicated sample file it shares with other banks.
	Dedup map[SampleKey]string
}

// A SampleKey identifies the structural location of a sample's data and is
// used to find its canonical deduplicated name.
type SampleKey struct {
	BankID     uint32
	LoopOffset uint32
	DataOffset uint32
}

// A SampleEntry describes one sample: its codec data, loop and codebook.
type SampleEntry struct {
	Codec  uint8
	Medium Medium
	// Reserved header bits, retained verbatim.
	Unk26 bool
	Unk25 bool
	Data  []byte
	Loop  Loop
	Book  Codebook
	// The name used to reference this sample when it was never deduplicated.
	FileName   string
	BankID     uint32
	LoopOffset uint32
	DataOffset uint32
}

// Loop describes the loop points of a sample.
type Loop struct {
	Start uint32
	End   uint32
	// The number of times the loop repeats.
	Count  uint32
	States []int16
}

// A Codebook holds the predictor coefficients used to decode a sample.
type Codebook struct {
	Order        int32
	NPredictors  int32
	Coefficients []int16
}

// Key returns the structural key of s.
func (s *SampleEntry) Key() SampleKey {
	return SampleKey{s.BankID, s.LoopOffset, s.DataOffset}
}

// A SoundFont is one soundfont table of a bank.
type SoundFont struct {
	Index       uint32
	Name        string
	Medium      Medium
	CachePolicy CachePolicy
	Data1       uint16
	Data2       uint16
	Data3       uint16

	Drums       []Drum
	Instruments []Instrument
	// Sound effect slots. A nil entry is an unused slot.
	SoundEffects []*SoundFontEntry
}

// A SoundFontEntry points at the sample played for a drum, instrument range
// or sound effect, along with its tuning. A nil Sample plays silence.
type SoundFontEntry struct {
	Sample *SampleEntry
	Tuning float32
}

// An EnvelopePoint is a single ADSR program step. Envelope steps are executed
// in order and must never be sorted.
type EnvelopePoint struct {
	Delay int16 `json:"delay" yaml:"delay"`
	Arg   int16 `json:"arg" yaml:"arg"`
}

type Drum struct {
	ReleaseRate uint8
	Pan         uint8
	Loaded      uint8
	Envelope    []EnvelopePoint
	Sample      *SampleEntry
	Tuning      float32
}

type Instrument struct {
	IsValid       bool
	Loaded        uint8
	NormalRangeLo uint8
	NormalRangeHi uint8
	ReleaseRate   uint8
	Envelope      []EnvelopePoint
	// The sounds played below, inside and above the normal range. A nil
	// sound is an unused range.
	LowNotes    *SoundFontEntry
	NormalNotes *SoundFontEntry
	HighNotes   *SoundFontEntry
}

// A Sequence is the raw byte stream of one music sequence and its metadata.
type Sequence struct {
	Index       uint32
	Name        string
	Data        []byte
	Medium      Medium
	CachePolicy CachePolicy
	// The soundfont tables this sequence may draw instruments from.
	FontIndices []uint8
}

// SampleIDs returns the ids of all samples in b, in ascending order.
func (b *Bank) SampleIDs() []uint32 {
	ids := make([]uint32, 0, len(b.Samples))
	for id := range b.Samples {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CanonicalName returns the deduplicated name of s and true, or "" and false
// if s was never deduplicated.
func (b *Bank) CanonicalName(s *SampleEntry) (string, bool) {
	if s == nil || b.Dedup == nil {
		return "", false
	}
	name, ok := b.Dedup[s.Key()]
	return name, ok
}
