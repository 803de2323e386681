// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"testing"
)

import (
	"github.com/louist103/OTRExporter/bank"
)

func TestResolveSample(t *testing.T) {
	b := &bank.Bank{
		Dedup: map[bank.SampleKey]string{
			{BankID: 1, LoopOffset: 2, DataOffset: 3}: "foo",
		},
	}
	hit := &bank.SampleEntry{BankID: 1, LoopOffset: 2, DataOffset: 3,
		FileName: "bar"}
	miss := &bank.SampleEntry{BankID: 9, LoopOffset: 2, DataOffset: 3,
		FileName: "bar"}

	if got := ResolveSample(b, hit); got != "audio/samples/foo" {
		t.Errorf("Expected the deduplicated reference, got %q", got)
	}
	if got := ResolveSample(b, miss); got != "bar" {
		t.Errorf("Expected the fallback file name, got %q", got)
	}
	if got := ResolveSample(b, nil); got != "" {
		t.Errorf("Expected an empty reference for an absent sample, got %q", got)
	}
}

func TestResolveSampleWithoutDedupTable(t *testing.T) {
	b := &bank.Bank{}
	s := &bank.SampleEntry{BankID: 1, LoopOffset: 2, DataOffset: 3,
		FileName: "bar"}
	if got := ResolveSample(b, s); got != "bar" {
		t.Errorf("Expected the fallback file name, got %q", got)
	}
}

func TestOutputPaths(t *testing.T) {
	b := testBank()
	tests := []struct {
		got, want string
	}{
		{SamplePath(b, 0x10, b.Samples[0x10]), "samples/foo"},
		{SamplePath(b, 0x20, b.Samples[0x20]), "samples/sample_00000020"},
		{FontPath(&b.SoundFonts[0]), "fonts/Font_01"},
		{SequenceDataPath(&b.Sequences[0]), "sequencedata/Seq_03_RAW"},
		{SequenceMetaPath(&b.Sequences[0]), "sequences/Seq_03_META"},
		{SequencePath(&b.Sequences[0]), "sequences/Seq_03"},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("Expected path %q, got %q", test.want, test.got)
		}
	}
}
