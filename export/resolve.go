// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"fmt"
)

import (
	"github.com/louist103/OTRExporter/bank"
	"github.com/louist103/OTRExporter/util"
)

// The prefix of every reference to a deduplicated sample file.
const sampleRefPrefix = "audio/samples/"

// ResolveSample returns the reference another entity uses to point at the
// file of s. A deduplicated sample is referenced by its canonical name, any
// other sample by its own file name, and an absent sample by "".
func ResolveSample(b *bank.Bank, s *bank.SampleEntry) string {
	if s == nil {
		return ""
	}
	if name, ok := b.CanonicalName(s); ok {
		return sampleRefPrefix + name
	}
	return s.FileName
}

// SamplePath returns the relative path hint of the artifact for the sample
// with the given id.
func SamplePath(b *bank.Bank, id uint32, s *bank.SampleEntry) string {
	if name, ok := b.CanonicalName(s); ok {
		return "samples/" + name
	}
	return "samples/" + util.CanonicalSampleName(id)
}

// FontPath returns the relative path hint of the artifact for font.
func FontPath(font *bank.SoundFont) string {
	return "fonts/" + font.Name
}

// SequenceDataPath returns the relative path hint of the raw data artifact
// written for seq by the text pipeline.
func SequenceDataPath(seq *bank.Sequence) string {
	return fmt.Sprintf("sequencedata/%s_RAW", seq.Name)
}

// SequenceMetaPath returns the relative path hint of the metadata artifact
// written for seq by the text pipeline.
func SequenceMetaPath(seq *bank.Sequence) string {
	return fmt.Sprintf("sequences/%s_META", seq.Name)
}

// SequencePath returns the relative path hint of the self-describing
// artifact written for seq by the binary pipeline.
func SequencePath(seq *bank.Sequence) string {
	return "sequences/" + seq.Name
}
