// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"github.com/louist103/OTRExporter/bank"
)

// testBank returns a small bank with one deduplicated sample, one sample
// that falls back to its file name, one soundfont and one sequence.
func testBank() *bank.Bank {
	shared := &bank.SampleEntry{
		Codec:      0,
		Medium:     bank.MediumCart,
		Data:       []byte{0xAA, 0xBB, 0xCC, 0xDD},
		Loop:       bank.Loop{Start: 0, End: 16, Count: 0},
		Book:       bank.Codebook{Order: 2, NPredictors: 1, Coefficients: []int16{1, -1}},
		FileName:   "unused",
		BankID:     1,
		LoopOffset: 2,
		DataOffset: 3,
	}
	local := &bank.SampleEntry{
		Codec:      1,
		Medium:     bank.MediumRam,
		Unk26:      true,
		Data:       []byte{0x01},
		Loop:       bank.Loop{Start: 4, End: 8, Count: 0xFFFFFFFF, States: []int16{7, 8}},
		FileName:   "bar",
		BankID:     9,
		LoopOffset: 2,
		DataOffset: 3,
	}
	return &bank.Bank{
		Name: "Audiobank",
		Samples: map[uint32]*bank.SampleEntry{
			0x20: local,
			0x10: shared,
		},
		Dedup: map[bank.SampleKey]string{
			{BankID: 1, LoopOffset: 2, DataOffset: 3}: "foo",
		},
		SoundFonts: []bank.SoundFont{{
			Index:       1,
			Name:        "Font_01",
			Medium:      bank.MediumCart,
			CachePolicy: bank.CacheEither,
			Data1:       1,
			Data2:       2,
			Data3:       3,
			Drums: []bank.Drum{{
				ReleaseRate: 10,
				Pan:         64,
				Envelope: []bank.EnvelopePoint{
					{Delay: 1, Arg: 32700},
					{Delay: -1, Arg: 0},
				},
				Sample: shared,
				Tuning: 1,
			}},
			Instruments: []bank.Instrument{{
				IsValid:       true,
				NormalRangeHi: 127,
				ReleaseRate:   5,
				Envelope:      []bank.EnvelopePoint{{Delay: 2, Arg: 100}},
				NormalNotes:   &bank.SoundFontEntry{Sample: shared, Tuning: 0.5},
			}},
			SoundEffects: []*bank.SoundFontEntry{
				nil,
				{Sample: local, Tuning: 1.5},
			},
		}},
		Sequences: []bank.Sequence{{
			Index:       3,
			Name:        "Seq_03",
			Data:        []byte{0xD3, 0x20, 0xFF},
			Medium:      bank.MediumCart,
			CachePolicy: bank.CacheTemporary,
			FontIndices: []uint8{1, 2},
		}},
	}
}

const testFontXML = `<SoundFont Version="0" Num="1" Medium="Cart" CachePolicy="Either" Data1="1" Data2="2" Data3="3">
    <Drums Count="1">
        <Drum ReleaseRate="10" Pan="64" Loaded="0" SampleRef="audio/samples/foo" Tuning="1">
            <Envelopes Count="2">
                <Envelope Delay="1" Arg="32700"/>
                <Envelope Delay="-1" Arg="0"/>
            </Envelopes>
        </Drum>
    </Drums>
    <Instruments Count="1">
        <Instrument IsValid="true" Loaded="0" NormalRangeLo="0" NormalRangeHi="127" ReleaseRate="5">
            <Envelopes Count="1">
                <Envelope Delay="2" Arg="100"/>
            </Envelopes>
            <LowNotesSound/>
            <NormalNotesSound SampleRef="audio/samples/foo" Tuning="0.5"/>
            <HighNotesSound/>
        </Instrument>
    </Instruments>
    <SfxTable Count="2">
        <Sfx/>
        <Sfx SampleRef="bar" Tuning="1.5"/>
    </SfxTable>
</SoundFont>
`
