// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"bytes"
	"fmt"
)

import (
	"github.com/louist103/OTRExporter/bank"
	"github.com/louist103/OTRExporter/resource"
	"github.com/louist103/OTRExporter/xmlnode"
)

// visitSoundFont describes a whole soundfont table. Only font and the
// bank's dedup table are consulted.
func visitSoundFont(v fieldVisitor, b *bank.Bank, font *bank.SoundFont) {
	v.Header(resource.TypeAudioSoundFont)
	v.Uint32("Num", font.Index)
	v.Medium("Medium", font.Medium)
	v.CachePolicy("CachePolicy", font.CachePolicy)
	v.Uint16("Data1", font.Data1)
	v.Uint16("Data2", font.Data2)
	v.Uint16("Data3", font.Data3)

	v.List("Drums", "Drum", len(font.Drums), func(i int, v fieldVisitor) {
		d := &font.Drums[i]
		v.Uint8("ReleaseRate", d.ReleaseRate)
		v.Uint8("Pan", d.Pan)
		v.Uint8("Loaded", d.Loaded)
		v.String("SampleRef", ResolveSample(b, d.Sample))
		v.Float32("Tuning", d.Tuning)
		visitEnvelope(v, d.Envelope)
	})

	v.List("Instruments", "Instrument", len(font.Instruments),
		func(i int, v fieldVisitor) {
			inst := &font.Instruments[i]
			v.Bool("IsValid", inst.IsValid)
			v.Uint8("Loaded", inst.Loaded)
			v.Uint8("NormalRangeLo", inst.NormalRangeLo)
			v.Uint8("NormalRangeHi", inst.NormalRangeHi)
			v.Uint8("ReleaseRate", inst.ReleaseRate)
			visitEnvelope(v, inst.Envelope)
			v.Child("LowNotesSound", func(v fieldVisitor) {
				visitEntry(v, b, inst.LowNotes)
			})
			v.Child("NormalNotesSound", func(v fieldVisitor) {
				visitEntry(v, b, inst.NormalNotes)
			})
			v.Child("HighNotesSound", func(v fieldVisitor) {
				visitEntry(v, b, inst.HighNotes)
			})
		})

	v.List("SfxTable", "Sfx", len(font.SoundEffects), func(i int, v fieldVisitor) {
		visitEntry(v, b, font.SoundEffects[i])
	})
}

// EncodeSoundFontBinary returns the binary resource for font.
func EncodeSoundFontBinary(b *bank.Bank, font *bank.SoundFont) ([]byte, error) {
	if err := b.ValidateSoundFont(font); err != nil {
		return nil, fmt.Errorf("encoding soundfont %q: %w", font.Name, err)
	}
	buf := new(bytes.Buffer)
	w := resource.NewWriter(buf)
	visitSoundFont(binaryVisitor{w}, b, font)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("encoding soundfont %q: %w", font.Name, err)
	}
	return buf.Bytes(), nil
}

// SoundFontElement returns the XML tree describing font.
func SoundFontElement(b *bank.Bank, font *bank.SoundFont) *xmlnode.Element {
	root := xmlnode.New("SoundFont")
	visitSoundFont(textVisitor{root}, b, font)
	return root
}

// EncodeSoundFontText returns the printed XML resource for font.
func EncodeSoundFontText(b *bank.Bank, font *bank.SoundFont) ([]byte, error) {
	if err := b.ValidateSoundFont(font); err != nil {
		return nil, fmt.Errorf("encoding soundfont %q: %w", font.Name, err)
	}
	return SoundFontElement(b, font).Bytes(), nil
}
