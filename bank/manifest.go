// Package bank implements the in-memory model of a decoded audio bank.
package bank

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

import (
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/louist103/OTRExporter/codec"
)

// A Format identifies the encoding of a bank manifest.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatCBOR
)

// FormatOf returns the manifest format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".cbor":
		return FormatCBOR, nil
	default:
		return 0, fmt.Errorf("%q is not a supported manifest type", ext)
	}
}

// A Manifest is the serialized description of an already decoded bank, as
// produced by the upstream bank parser. Samples are referenced by id.
type Manifest struct {
	Name       string              `json:"name" yaml:"name"`
	Samples    []SampleManifest    `json:"samples" yaml:"samples"`
	SoundFonts []SoundFontManifest `json:"soundfonts" yaml:"soundfonts"`
	Sequences  []SequenceManifest  `json:"sequences" yaml:"sequences"`
	Dedup      []DedupManifest     `json:"dedup" yaml:"dedup"`
}

// A PayloadManifest names the bytes of a sample or sequence. Exactly one
// source is used; File is resolved relative to the manifest.
type PayloadManifest struct {
	File string `json:"data_file,omitempty" yaml:"data_file,omitempty"`
	Hex  string `json:"data_hex,omitempty" yaml:"data_hex,omitempty"`
	Raw  []byte `json:"data,omitempty" yaml:"-"`
}

type SampleManifest struct {
	ID      uint32          `json:"id" yaml:"id"`
	Codec   uint8           `json:"codec" yaml:"codec"`
	Medium  uint8           `json:"medium" yaml:"medium"`
	Unk26   bool            `json:"unk26" yaml:"unk26"`
	Unk25   bool            `json:"unk25" yaml:"unk25"`
	Payload PayloadManifest `json:"payload" yaml:"payload"`
	Loop    struct {
		Start  uint32  `json:"start" yaml:"start"`
		End    uint32  `json:"end" yaml:"end"`
		Count  uint32  `json:"count" yaml:"count"`
		States []int16 `json:"states" yaml:"states"`
	} `json:"loop" yaml:"loop"`
	Book struct {
		Order        int32   `json:"order" yaml:"order"`
		NPredictors  int32   `json:"npredictors" yaml:"npredictors"`
		Coefficients []int16 `json:"coefficients" yaml:"coefficients"`
	} `json:"book" yaml:"book"`
	FileName   string `json:"file_name" yaml:"file_name"`
	BankID     uint32 `json:"bank_id" yaml:"bank_id"`
	LoopOffset uint32 `json:"loop_offset" yaml:"loop_offset"`
	DataOffset uint32 `json:"data_offset" yaml:"data_offset"`
}

// An EntryManifest describes a soundfont entry. A nil Sample plays silence.
type EntryManifest struct {
	Sample *uint32 `json:"sample,omitempty" yaml:"sample,omitempty"`
	Tuning float32 `json:"tuning" yaml:"tuning"`
}

type DrumManifest struct {
	ReleaseRate uint8           `json:"release_rate" yaml:"release_rate"`
	Pan         uint8           `json:"pan" yaml:"pan"`
	Loaded      uint8           `json:"loaded" yaml:"loaded"`
	Envelope    []EnvelopePoint `json:"envelope" yaml:"envelope"`
	Sample      *uint32         `json:"sample,omitempty" yaml:"sample,omitempty"`
	Tuning      float32         `json:"tuning" yaml:"tuning"`
}

type InstrumentManifest struct {
	IsValid       bool            `json:"is_valid" yaml:"is_valid"`
	Loaded        uint8           `json:"loaded" yaml:"loaded"`
	NormalRangeLo uint8           `json:"normal_range_lo" yaml:"normal_range_lo"`
	NormalRangeHi uint8           `json:"normal_range_hi" yaml:"normal_range_hi"`
	ReleaseRate   uint8           `json:"release_rate" yaml:"release_rate"`
	Envelope      []EnvelopePoint `json:"envelope" yaml:"envelope"`
	LowNotes      *EntryManifest  `json:"low_notes,omitempty" yaml:"low_notes,omitempty"`
	NormalNotes   *EntryManifest  `json:"normal_notes,omitempty" yaml:"normal_notes,omitempty"`
	HighNotes     *EntryManifest  `json:"high_notes,omitempty" yaml:"high_notes,omitempty"`
}

type SoundFontManifest struct {
	Index        uint32               `json:"index" yaml:"index"`
	Name         string               `json:"name" yaml:"name"`
	Medium       uint8                `json:"medium" yaml:"medium"`
	CachePolicy  uint8                `json:"cache_policy" yaml:"cache_policy"`
	Data1        uint16               `json:"data1" yaml:"data1"`
	Data2        uint16               `json:"data2" yaml:"data2"`
	Data3        uint16               `json:"data3" yaml:"data3"`
	Drums        []DrumManifest       `json:"drums" yaml:"drums"`
	Instruments  []InstrumentManifest `json:"instruments" yaml:"instruments"`
	SoundEffects []*EntryManifest     `json:"sound_effects" yaml:"sound_effects"`
}

type SequenceManifest struct {
	Index       uint32          `json:"index" yaml:"index"`
	Name        string          `json:"name" yaml:"name"`
	Payload     PayloadManifest `json:"payload" yaml:"payload"`
	Medium      uint8           `json:"medium" yaml:"medium"`
	CachePolicy uint8           `json:"cache_policy" yaml:"cache_policy"`
	// Font indices are read as plain integers; JSON would otherwise expect a
	// base64 string for a byte slice.
	FontIndices []uint32 `json:"font_indices" yaml:"font_indices"`
}

// A DedupManifest maps one structural sample key to its canonical name.
type DedupManifest struct {
	BankID     uint32 `json:"bank_id" yaml:"bank_id"`
	LoopOffset uint32 `json:"loop_offset" yaml:"loop_offset"`
	DataOffset uint32 `json:"data_offset" yaml:"data_offset"`
	Name       string `json:"name" yaml:"name"`
}

// Load reads the manifest at path, choosing the decoder by file extension,
// and builds the Bank it describes.
func Load(path string) (*Bank, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := DecodeManifest(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b, err := m.Build(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// DecodeManifest decodes data in the given format.
func DecodeManifest(data []byte, format Format) (*Manifest, error) {
	m := new(Manifest)
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, m)
	case FormatJSON:
		err = json.Unmarshal(jsonc.ToJSON(data), m)
	case FormatCBOR:
		err = codec.Unmarshal(data, m)
	default:
		err = fmt.Errorf("unknown manifest format %d", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return m, nil
}

// Build resolves the sample references of m and returns the Bank it
// describes. dir is the directory payload files are read relative to.
func (m *Manifest) Build(dir string) (*Bank, error) {
	b := &Bank{
		Name:    m.Name,
		Samples: make(map[uint32]*SampleEntry, len(m.Samples)),
		Dedup:   make(map[SampleKey]string, len(m.Dedup)),
	}

	for _, sm := range m.Samples {
		if _, ok := b.Samples[sm.ID]; ok {
			return nil, fmt.Errorf("sample 0x%08X is declared twice", sm.ID)
		}
		data, err := sm.Payload.read(dir)
		if err != nil {
			return nil, fmt.Errorf("sample 0x%08X: %w", sm.ID, err)
		}
		b.Samples[sm.ID] = &SampleEntry{
			Codec:  sm.Codec,
			Medium: Medium(sm.Medium),
			Unk26:  sm.Unk26,
			Unk25:  sm.Unk25,
			Data:   data,
			Loop: Loop{
				Start:  sm.Loop.Start,
				End:    sm.Loop.End,
				Count:  sm.Loop.Count,
				States: sm.Loop.States,
			},
			Book: Codebook{
				Order:        sm.Book.Order,
				NPredictors:  sm.Book.NPredictors,
				Coefficients: sm.Book.Coefficients,
			},
			FileName:   sm.FileName,
			BankID:     sm.BankID,
			LoopOffset: sm.LoopOffset,
			DataOffset: sm.DataOffset,
		}
	}

	for _, d := range m.Dedup {
		b.Dedup[SampleKey{d.BankID, d.LoopOffset, d.DataOffset}] = d.Name
	}

	for i, fm := range m.SoundFonts {
		font, err := fm.build(b)
		if err != nil {
			return nil, fmt.Errorf("soundfont %d: %w", i, err)
		}
		b.SoundFonts = append(b.SoundFonts, *font)
	}

	for i, sm := range m.Sequences {
		data, err := sm.Payload.read(dir)
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
		indices := make([]uint8, len(sm.FontIndices))
		for k, idx := range sm.FontIndices {
			if idx > math.MaxUint8 {
				return nil, fmt.Errorf("sequence %d: font index %d: %w", i, idx,
					ErrTooLarge)
			}
			indices[k] = uint8(idx)
		}
		b.Sequences = append(b.Sequences, Sequence{
			Index:       sm.Index,
			Name:        sm.Name,
			Data:        data,
			Medium:      Medium(sm.Medium),
			CachePolicy: CachePolicy(sm.CachePolicy),
			FontIndices: indices,
		})
	}

	return b, nil
}

func (fm *SoundFontManifest) build(b *Bank) (*SoundFont, error) {
	font := &SoundFont{
		Index:       fm.Index,
		Name:        fm.Name,
		Medium:      Medium(fm.Medium),
		CachePolicy: CachePolicy(fm.CachePolicy),
		Data1:       fm.Data1,
		Data2:       fm.Data2,
		Data3:       fm.Data3,
	}

	for i, dm := range fm.Drums {
		sample, err := b.lookup(dm.Sample)
		if err != nil {
			return nil, fmt.Errorf("drum %d: %w", i, err)
		}
		font.Drums = append(font.Drums, Drum{
			ReleaseRate: dm.ReleaseRate,
			Pan:         dm.Pan,
			Loaded:      dm.Loaded,
			Envelope:    dm.Envelope,
			Sample:      sample,
			Tuning:      dm.Tuning,
		})
	}

	for i, im := range fm.Instruments {
		inst := Instrument{
			IsValid:       im.IsValid,
			Loaded:        im.Loaded,
			NormalRangeLo: im.NormalRangeLo,
			NormalRangeHi: im.NormalRangeHi,
			ReleaseRate:   im.ReleaseRate,
			Envelope:      im.Envelope,
		}
		var err error
		if inst.LowNotes, err = b.entry(im.LowNotes); err != nil {
			return nil, fmt.Errorf("instrument %d low notes: %w", i, err)
		}
		if inst.NormalNotes, err = b.entry(im.NormalNotes); err != nil {
			return nil, fmt.Errorf("instrument %d normal notes: %w", i, err)
		}
		if inst.HighNotes, err = b.entry(im.HighNotes); err != nil {
			return nil, fmt.Errorf("instrument %d high notes: %w", i, err)
		}
		font.Instruments = append(font.Instruments, inst)
	}

	for i, em := range fm.SoundEffects {
		sfx, err := b.entry(em)
		if err != nil {
			return nil, fmt.Errorf("sound effect %d: %w", i, err)
		}
		font.SoundEffects = append(font.SoundEffects, sfx)
	}
	return font, nil
}

func (b *Bank) entry(em *EntryManifest) (*SoundFontEntry, error) {
	if em == nil {
		return nil, nil
	}
	sample, err := b.lookup(em.Sample)
	if err != nil {
		return nil, err
	}
	return &SoundFontEntry{sample, em.Tuning}, nil
}

func (b *Bank) lookup(id *uint32) (*SampleEntry, error) {
	if id == nil {
		return nil, nil
	}
	s, ok := b.Samples[*id]
	if !ok {
		return nil, fmt.Errorf("sample 0x%08X: %w", *id, ErrMissingSample)
	}
	return s, nil
}

func (p *PayloadManifest) read(dir string) ([]byte, error) {
	switch {
	case p.File != "":
		path := p.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return os.ReadFile(path)
	case p.Hex != "":
		return hex.DecodeString(strings.Join(strings.Fields(p.Hex), ""))
	default:
		return p.Raw, nil
	}
}
