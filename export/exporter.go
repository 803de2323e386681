// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

import (
	"golang.org/x/sync/errgroup"

	"github.com/louist103/OTRExporter/bank"
	"github.com/louist103/OTRExporter/resource"
)

// The resource root used when Options.Root is empty. Sample references are
// always written relative to this root.
const DefaultRoot = "audio"

// A Sink receives finished artifacts. Each path is registered at most once;
// implementations return resource.ErrDuplicatePath for a repeated path and
// must be safe for concurrent use when Options.Jobs is above 1.
type Sink interface {
	Register(path string, data []byte) error
}

// An Encoding selects which form of a soundfont or sequence is written.
type Encoding int

const (
	// EncodingText writes XML sidecars. Sequences additionally get a raw data
	// artifact.
	EncodingText Encoding = iota
	// EncodingBinary writes self-describing binary resources.
	EncodingBinary
)

func (e Encoding) String() string {
	switch e {
	case EncodingText:
		return "text"
	case EncodingBinary:
		return "binary"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding parses the name of an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "text", "xml":
		return EncodingText, nil
	case "binary":
		return EncodingBinary, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", name)
	}
}

// Options controls what an Exporter writes.
type Options struct {
	// The resource root every artifact path is placed under.
	Root      string
	Fonts     Encoding
	Sequences Encoding
	// The number of artifacts encoded concurrently. Values below 2 encode
	// sequentially.
	Jobs int
}

// A Report summarizes a finished export.
type Report struct {
	Samples    int
	SoundFonts int
	Sequences  int
	Artifacts  int
	Bytes      int64
}

// An Exporter writes every artifact of a bank to its Sink. Export may be
// called concurrently.
type Exporter struct {
	Sink    Sink
	Options Options
	// Logger receives one debug record per artifact. slog.Default() is used
	// when Logger is nil.
	Logger *slog.Logger
}

// A tally counts what a single Export registered.
type tally struct {
	artifacts atomic.Int64
	bytes     atomic.Int64
}

// New returns an Exporter writing to sink.
func New(sink Sink, opts Options, logger *slog.Logger) *Exporter {
	return &Exporter{Sink: sink, Options: opts, Logger: logger}
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Exporter) root() string {
	if e.Options.Root == "" {
		return DefaultRoot
	}
	return e.Options.Root
}

func (e *Exporter) path(hint string) string {
	return resource.PathToRes(e.root(), hint)
}

// Export validates b and writes its samples, its bank header, its soundfont
// tables and its sequences, in that order. Nothing is written when b is
// invalid or when two of its entities would be written to the same path.
// Past that point every entity is encoded independently; the failures of all
// entities are returned together, and no entity is skipped because another
// one failed.
func (e *Exporter) Export(b *bank.Bank) (*Report, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("bank %q failed validation: %w", b.Name, err)
	}
	t := new(tally)
	tasks, err := e.plan(b, t)
	if err != nil {
		return nil, fmt.Errorf("bank %q has conflicting artifacts: %w", b.Name, err)
	}
	if err := e.run(tasks); err != nil {
		return nil, err
	}

	report := &Report{
		Samples:    len(b.Samples),
		SoundFonts: len(b.SoundFonts),
		Sequences:  len(b.Sequences),
		Artifacts:  int(t.artifacts.Load()),
		Bytes:      t.bytes.Load(),
	}
	e.logger().Info("exported audio bank",
		"bank", b.Name,
		"samples", report.Samples,
		"soundfonts", report.SoundFonts,
		"sequences", report.Sequences,
		"artifacts", report.Artifacts,
		"bytes", report.Bytes,
	)
	return report, nil
}

// plan assigns every artifact of b its path and returns one task per entity.
// Samples that share a deduplicated name share one artifact, which is
// written for the lowest of their ids.
func (e *Exporter) plan(b *bank.Bank, t *tally) ([]func() error, error) {
	claims := newClaims()
	var tasks []func() error

	written := make(map[string]bool)
	for _, id := range b.SampleIDs() {
		s := b.Samples[id]
		if name, ok := b.CanonicalName(s); ok {
			if written[name] {
				continue
			}
			written[name] = true
		}
		artifact := e.path(SamplePath(b, id, s))
		claims.claim(artifact, owner{bank.KindSample, id, ""})
		tasks = append(tasks, func() error { return e.exportSample(t, s, id, artifact) })
	}

	header := e.path(b.Name)
	claims.claim(header, owner{bank.KindBank, 0, b.Name})
	tasks = append(tasks, func() error { return e.exportBankHeader(t, b, header) })

	for i := range b.SoundFonts {
		font := &b.SoundFonts[i]
		artifact := e.path(FontPath(font))
		claims.claim(artifact, owner{bank.KindSoundFont, font.Index, font.Name})
		tasks = append(tasks, func() error { return e.exportSoundFont(t, b, font, artifact) })
	}

	for i := range b.Sequences {
		seq := &b.Sequences[i]
		o := owner{bank.KindSequence, seq.Index, seq.Name}
		switch e.Options.Sequences {
		case EncodingBinary:
			artifact := e.path(SequencePath(seq))
			claims.claim(artifact, o)
			tasks = append(tasks, func() error {
				return e.exportSequenceBinary(t, seq, artifact)
			})
		default:
			data, meta := e.path(SequenceDataPath(seq)), e.path(SequenceMetaPath(seq))
			claims.claim(data, o)
			claims.claim(meta, o)
			tasks = append(tasks, func() error {
				return e.exportSequenceText(t, seq, data, meta)
			})
		}
	}

	if err := claims.check(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// run executes every task and joins their errors in task order.
func (e *Exporter) run(tasks []func() error) error {
	errs := make([]error, len(tasks))
	if e.Options.Jobs < 2 {
		for i, task := range tasks {
			errs[i] = task()
		}
		return errors.Join(errs...)
	}

	var g errgroup.Group
	g.SetLimit(e.Options.Jobs)
	for i, task := range tasks {
		g.Go(func() error {
			errs[i] = task()
			// Failures are collected rather than returned, so that one failed
			// entity never stops the others.
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// register hands data to the sink. Sinks name the path in their errors.
func (e *Exporter) register(t *tally, path string, data []byte) error {
	if err := e.Sink.Register(path, data); err != nil {
		return err
	}
	t.artifacts.Add(1)
	t.bytes.Add(int64(len(data)))
	e.logger().Debug("registered artifact", "path", path, "size", len(data))
	return nil
}

func (e *Exporter) exportSample(t *tally, s *bank.SampleEntry, id uint32,
	path string) error {
	data, err := EncodeSample(s)
	if err == nil {
		err = e.register(t, path, data)
	}
	if err != nil {
		return &bank.EntityError{Kind: bank.KindSample, Index: id, Err: err}
	}
	return nil
}

// exportBankHeader writes the bank resource itself: a header followed by
// the ids of all samples, in ascending order.
func (e *Exporter) exportBankHeader(t *tally, b *bank.Bank, path string) error {
	buf := new(bytes.Buffer)
	w := resource.NewWriter(buf)
	resource.WriteHeader(w, resource.TypeAudio, binaryVersion)
	ids := b.SampleIDs()
	w.Count(len(ids))
	for _, id := range ids {
		w.Uint32(id)
	}
	err := w.Err()
	if err == nil {
		err = e.register(t, path, buf.Bytes())
	}
	if err != nil {
		return &bank.EntityError{Kind: bank.KindBank, Name: b.Name, Err: err}
	}
	return nil
}

func (e *Exporter) exportSoundFont(t *tally, b *bank.Bank, font *bank.SoundFont,
	path string) error {
	var data []byte
	var err error
	switch e.Options.Fonts {
	case EncodingBinary:
		data, err = EncodeSoundFontBinary(b, font)
	default:
		data, err = EncodeSoundFontText(b, font)
	}
	if err == nil {
		err = e.register(t, path, data)
	}
	if err != nil {
		return &bank.EntityError{Kind: bank.KindSoundFont, Index: font.Index,
			Name: font.Name, Err: err}
	}
	return nil
}

func (e *Exporter) exportSequenceBinary(t *tally, seq *bank.Sequence,
	path string) error {
	data, err := EncodeSequenceBinary(seq)
	if err == nil {
		err = e.register(t, path, data)
	}
	if err != nil {
		return &bank.EntityError{Kind: bank.KindSequence, Index: seq.Index,
			Name: seq.Name, Err: err}
	}
	return nil
}

func (e *Exporter) exportSequenceText(t *tally, seq *bank.Sequence,
	dataPath, metaPath string) error {
	data, meta, err := EncodeSequenceText(seq, dataPath)
	if err == nil {
		err = e.register(t, dataPath, data)
	}
	if err == nil {
		err = e.register(t, metaPath, meta)
	}
	if err != nil {
		return &bank.EntityError{Kind: bank.KindSequence, Index: seq.Index,
			Name: seq.Name, Err: err}
	}
	return nil
}
