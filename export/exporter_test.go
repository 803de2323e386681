// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

import (
	"github.com/louist103/OTRExporter/bank"
	"github.com/louist103/OTRExporter/resource"
	"github.com/louist103/OTRExporter/sink"
	"github.com/louist103/OTRExporter/util"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExportText(t *testing.T) {
	b := testBank()
	mem := sink.NewMemory()
	report, err := New(mem, Options{}, quietLogger()).Export(b)
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		"audio/Audiobank",
		"audio/fonts/Font_01",
		"audio/samples/foo",
		"audio/samples/sample_00000020",
		"audio/sequencedata/Seq_03_RAW",
		"audio/sequences/Seq_03_META",
	}
	paths := mem.Paths()
	if len(paths) != len(expected) {
		t.Fatalf("Expected artifacts %v, got %v", expected, paths)
	}
	for i := range expected {
		if paths[i] != expected[i] {
			t.Errorf("Expected artifacts %v, got %v", expected, paths)
			break
		}
	}
	if report.Artifacts != len(expected) || report.Samples != 2 ||
		report.SoundFonts != 1 || report.Sequences != 1 {
		t.Errorf("Unexpected report %+v", report)
	}

	font, _ := mem.Get("audio/fonts/Font_01")
	util.AssertBytesEqual(t, []byte(testFontXML), font)
	meta, _ := mem.Get("audio/sequences/Seq_03_META")
	util.AssertBytesEqual(t, []byte(testSequenceXML), meta)

	var total int64
	for _, p := range paths {
		data, _ := mem.Get(p)
		total += int64(len(data))
	}
	if report.Bytes != total {
		t.Errorf("Report counts %d bytes, %d were registered", report.Bytes, total)
	}
}

func TestExportBinary(t *testing.T) {
	b := testBank()
	mem := sink.NewMemory()
	opts := Options{Root: "res", Fonts: EncodingBinary, Sequences: EncodingBinary}
	if _, err := New(mem, opts, quietLogger()).Export(b); err != nil {
		t.Fatal(err)
	}

	font, ok := mem.Get("res/fonts/Font_01")
	if !ok {
		t.Fatalf("No binary font among %v", mem.Paths())
	}
	expected, _ := EncodeSoundFontBinary(b, &b.SoundFonts[0])
	util.AssertBytesEqual(t, expected, font)

	if _, ok := mem.Get("res/sequences/Seq_03"); !ok {
		t.Errorf("No binary sequence among %v", mem.Paths())
	}
	if _, ok := mem.Get("res/sequencedata/Seq_03_RAW"); ok {
		t.Error("The binary pipeline wrote a raw sequence artifact")
	}
}

func TestExportBankHeader(t *testing.T) {
	b := testBank()
	mem := sink.NewMemory()
	if _, err := New(mem, Options{}, quietLogger()).Export(b); err != nil {
		t.Fatal(err)
	}
	data, ok := mem.Get("audio/Audiobank")
	if !ok {
		t.Fatal("No bank artifact was registered")
	}

	r := bytes.NewReader(data)
	hdr, err := resource.ReadHeader(r)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Type != resource.TypeAudio {
		t.Errorf("Unexpected type %s", hdr.Type)
	}
	var ids struct {
		Count uint32
		IDs   [2]uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &ids); err != nil {
		t.Fatal(err)
	}
	if ids.Count != 2 || ids.IDs != [2]uint32{0x10, 0x20} {
		t.Errorf("Unexpected sample ids %+v", ids)
	}
}

func TestExportConcurrentMatchesSequential(t *testing.T) {
	sequential := sink.NewMemory()
	if _, err := New(sequential, Options{}, quietLogger()).Export(testBank()); err != nil {
		t.Fatal(err)
	}
	concurrent := sink.NewMemory()
	if _, err := New(concurrent, Options{Jobs: 4}, quietLogger()).Export(testBank()); err != nil {
		t.Fatal(err)
	}

	if sequential.Len() != concurrent.Len() {
		t.Fatalf("Sequential export wrote %d artifacts, concurrent wrote %d",
			sequential.Len(), concurrent.Len())
	}
	for _, p := range sequential.Paths() {
		expected, _ := sequential.Get(p)
		actual, ok := concurrent.Get(p)
		if !ok {
			t.Errorf("Concurrent export is missing %s", p)
			continue
		}
		util.AssertBytesEqual(t, expected, actual)
	}
}

func TestExportRejectsUnresolvedSample(t *testing.T) {
	b := testBank()
	b.Samples[0x20].FileName = ""
	mem := sink.NewMemory()

	_, err := New(mem, Options{}, quietLogger()).Export(b)
	if !errors.Is(err, bank.ErrUnresolvedSample) {
		t.Fatalf("Expected ErrUnresolvedSample, got %v", err)
	}
	var entity *bank.EntityError
	if !errors.As(err, &entity) || entity.Kind != bank.KindSoundFont ||
		entity.Name != "Font_01" {
		t.Errorf("The error does not name the offending soundfont: %v", err)
	}
	if mem.Len() != 0 {
		t.Errorf("A failed validation still wrote %v", mem.Paths())
	}
}

func TestExportReportsEveryFailure(t *testing.T) {
	b := testBank()
	b.Sequences = append(b.Sequences, bank.Sequence{Name: "Seq_03"})
	b.Sequences[0].Index = 300

	_, err := New(sink.NewMemory(), Options{}, quietLogger()).Export(b)
	if !errors.Is(err, bank.ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
	if !errors.Is(err, bank.ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}
}

func TestExportDuplicatePath(t *testing.T) {
	b := testBank()
	mem := sink.NewMemory()
	if err := mem.Register("audio/fonts/Font_01", nil); err != nil {
		t.Fatal(err)
	}

	_, err := New(mem, Options{Jobs: 2}, quietLogger()).Export(b)
	if !errors.Is(err, resource.ErrDuplicatePath) {
		t.Fatalf("Expected ErrDuplicatePath, got %v", err)
	}
	if n := strings.Count(err.Error(), "audio/fonts/Font_01"); n != 1 {
		t.Errorf("The path is named %d times in %q", n, err)
	}
	// Every other entity is still written.
	if _, ok := mem.Get("audio/sequences/Seq_03_META"); !ok {
		t.Error("A failed soundfont stopped the sequence export")
	}
}

func TestExportSharedCanonicalSample(t *testing.T) {
	b := testBank()
	twin := *b.Samples[0x10]
	b.Samples[0x30] = &twin
	mem := sink.NewMemory()

	report, err := New(mem, Options{Jobs: 2}, quietLogger()).Export(b)
	if err != nil {
		t.Fatal(err)
	}
	if report.Artifacts != 6 || report.Samples != 3 {
		t.Errorf("Unexpected report %+v", report)
	}
	data, ok := mem.Get("audio/samples/foo")
	if !ok {
		t.Fatalf("No shared sample among %v", mem.Paths())
	}
	expected, _ := EncodeSample(b.Samples[0x10])
	util.AssertBytesEqual(t, expected, data)

	header, _ := mem.Get("audio/Audiobank")
	count := binary.LittleEndian.Uint32(header[resource.HEADER_BYTES:])
	if count != 3 {
		t.Errorf("The bank header lists %d samples, expected 3", count)
	}
}

func TestExportRejectsPathConflicts(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*bank.Bank)
		kind   string
	}{
		{"dedup name matches a fallback name", func(b *bank.Bank) {
			b.Dedup[bank.SampleKey{BankID: 1, LoopOffset: 2, DataOffset: 3}] =
				"sample_00000020"
		}, bank.KindSample},
		{"bank name is an artifact directory", func(b *bank.Bank) {
			b.Name = "fonts"
		}, bank.KindSoundFont},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBank()
			tt.modify(b)
			if err := b.Validate(); err != nil {
				t.Fatalf("The bank is not otherwise valid: %v", err)
			}
			mem := sink.NewMemory()

			_, err := New(mem, Options{}, quietLogger()).Export(b)
			if !errors.Is(err, ErrPathConflict) {
				t.Fatalf("Expected ErrPathConflict, got %v", err)
			}
			var entity *bank.EntityError
			if !errors.As(err, &entity) || entity.Kind != tt.kind {
				t.Errorf("Expected a %s error, got %v", tt.kind, err)
			}
			if mem.Len() != 0 {
				t.Errorf("A conflicting export still wrote %v", mem.Paths())
			}
		})
	}
}

// discardSink accepts every artifact, including repeated paths.
type discardSink struct{}

func (discardSink) Register(string, []byte) error { return nil }

func TestConcurrentExportsReportSeparately(t *testing.T) {
	e := New(discardSink{}, Options{Jobs: 2}, quietLogger())
	expected, err := e.Export(testBank())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := e.Export(testBank())
			if err != nil {
				t.Error(err)
				return
			}
			if *report != *expected {
				t.Errorf("Expected report %+v, got %+v", expected, report)
			}
		}()
	}
	wg.Wait()
}

func TestParseEncoding(t *testing.T) {
	for _, e := range []Encoding{EncodingText, EncodingBinary} {
		parsed, err := ParseEncoding(e.String())
		if err != nil || parsed != e {
			t.Errorf("Parsing %q gave %v, %v", e, parsed, err)
		}
	}
	if _, err := ParseEncoding("yaml"); err == nil {
		t.Error("Parsing an unknown encoding succeeded")
	}
}
