// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"github.com/louist103/OTRExporter/bank"
	"github.com/louist103/OTRExporter/resource"
	"github.com/louist103/OTRExporter/xmlnode"
)

// visitEntry describes a soundfont entry. An absent entry records nothing
// beyond its absence.
func visitEntry(v fieldVisitor, b *bank.Bank, e *bank.SoundFontEntry) {
	if v.Presence(e != nil) {
		v.String("SampleRef", ResolveSample(b, e.Sample))
		v.Float32("Tuning", e.Tuning)
	}
}

// WriteSoundFontEntry writes e to w: a presence byte and, if e is present,
// its sample reference and tuning.
func WriteSoundFontEntry(w *resource.Writer, b *bank.Bank, e *bank.SoundFontEntry) {
	visitEntry(binaryVisitor{w}, b, e)
}

// AppendSoundFontEntry appends an element named name describing e to parent
// and returns it. An absent entry yields an element with no attributes.
func AppendSoundFontEntry(parent *xmlnode.Element, name string, b *bank.Bank,
	e *bank.SoundFontEntry) *xmlnode.Element {
	child := parent.AddChild(name)
	visitEntry(textVisitor{child}, b, e)
	return child
}
