// Package bank implements the in-memory model of a decoded audio bank.
package bank

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrTooLarge is returned when a size or count does not fit the field it
	// is written to.
	ErrTooLarge = errors.New("value does not fit its encoded width")
	// ErrUnresolvedSample is returned when a present sample has neither a
	// deduplicated name nor a fallback file name.
	ErrUnresolvedSample = errors.New("sample reference cannot be resolved")
	// ErrMissingSample is returned when a sample id maps to no entry.
	ErrMissingSample = errors.New("sample id has no entry")
	// ErrMissingName is returned when an entity that names an artifact has no
	// name.
	ErrMissingName = errors.New("entity has no name")
	// ErrDuplicateName is returned when two entities of the same kind would be
	// written to the same artifact.
	ErrDuplicateName = errors.New("entity name is not unique")
	// ErrInvalidName is returned when a name would place its artifact outside
	// its directory.
	ErrInvalidName = errors.New("name is not a single path element")
)

// Entity kinds reported by an EntityError.
const (
	KindBank      = "bank"
	KindSample    = "sample"
	KindSoundFont = "soundfont"
	KindSequence  = "sequence"
)

// An EntityError identifies the bank entity that violated a precondition.
type EntityError struct {
	Kind string
	// The sample id for samples, or the position in the bank for soundfonts
	// and sequences.
	Index uint32
	Name  string
	Err   error
}

func (e *EntityError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %d (%q): %v", e.Kind, e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %d: %v", e.Kind, e.Index, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// Validate checks every entity of b for precondition violations that would
// produce a truncated or size-mismatched artifact. All violations are
// reported together.
func (b *Bank) Validate() error {
	var errs []error

	if err := checkName(b.Name); err != nil {
		errs = append(errs, fmt.Errorf("bank: %w", err))
	}

	for _, id := range b.SampleIDs() {
		if err := b.validateSample(b.Samples[id]); err != nil {
			errs = append(errs, &EntityError{KindSample, id, "", err})
		}
	}

	fontNames := make(map[string]bool)
	for i := range b.SoundFonts {
		font := &b.SoundFonts[i]
		err := b.validateSoundFont(font)
		if err == nil && fontNames[font.Name] {
			err = ErrDuplicateName
		}
		fontNames[font.Name] = true
		if err != nil {
			errs = append(errs, &EntityError{KindSoundFont, uint32(i), font.Name, err})
		}
	}

	seqNames := make(map[string]bool)
	for i := range b.Sequences {
		seq := &b.Sequences[i]
		err := validateSequence(seq)
		if err == nil && seqNames[seq.Name] {
			err = ErrDuplicateName
		}
		seqNames[seq.Name] = true
		if err != nil {
			errs = append(errs, &EntityError{KindSequence, uint32(i), seq.Name, err})
		}
	}

	return errors.Join(errs...)
}

// ValidateSoundFont checks a single soundfont table of b.
func (b *Bank) ValidateSoundFont(font *SoundFont) error {
	return b.validateSoundFont(font)
}

// ValidateSequence checks a single sequence.
func ValidateSequence(seq *Sequence) error {
	return validateSequence(seq)
}

func (b *Bank) validateSample(s *SampleEntry) error {
	switch {
	case s == nil:
		return ErrMissingSample
	case tooLong(len(s.Data)):
		return fmt.Errorf("payload of %d bytes: %w", len(s.Data), ErrTooLarge)
	case tooLong(len(s.Loop.States)):
		return fmt.Errorf("%d loop states: %w", len(s.Loop.States), ErrTooLarge)
	case tooLong(len(s.Book.Coefficients)):
		return fmt.Errorf("%d codebook coefficients: %w",
			len(s.Book.Coefficients), ErrTooLarge)
	}
	if name, ok := b.CanonicalName(s); ok {
		if err := checkName(name); err != nil {
			return fmt.Errorf("deduplicated name: %w", err)
		}
	}
	return nil
}

func (b *Bank) validateSoundFont(font *SoundFont) error {
	if err := checkName(font.Name); err != nil {
		return err
	}
	switch {
	case tooLong(len(font.Drums)), tooLong(len(font.Instruments)),
		tooLong(len(font.SoundEffects)):
		return ErrTooLarge
	}

	for i, d := range font.Drums {
		if tooLong(len(d.Envelope)) {
			return fmt.Errorf("drum %d envelope: %w", i, ErrTooLarge)
		}
		if err := b.checkSample(d.Sample); err != nil {
			return fmt.Errorf("drum %d: %w", i, err)
		}
	}

	for i, inst := range font.Instruments {
		if tooLong(len(inst.Envelope)) {
			return fmt.Errorf("instrument %d envelope: %w", i, ErrTooLarge)
		}
		ranges := []struct {
			name  string
			entry *SoundFontEntry
		}{
			{"low notes", inst.LowNotes},
			{"normal notes", inst.NormalNotes},
			{"high notes", inst.HighNotes},
		}
		for _, r := range ranges {
			if err := b.checkEntry(r.entry); err != nil {
				return fmt.Errorf("instrument %d %s: %w", i, r.name, err)
			}
		}
	}

	for i, sfx := range font.SoundEffects {
		if err := b.checkEntry(sfx); err != nil {
			return fmt.Errorf("sound effect %d: %w", i, err)
		}
	}
	return nil
}

func validateSequence(seq *Sequence) error {
	if err := checkName(seq.Name); err != nil {
		return err
	}
	switch {
	case seq.Index > math.MaxUint8:
		return fmt.Errorf("index %d: %w", seq.Index, ErrTooLarge)
	case tooLong(len(seq.Data)):
		return fmt.Errorf("%d bytes: %w", len(seq.Data), ErrTooLarge)
	case tooLong(len(seq.FontIndices)):
		return fmt.Errorf("%d font indices: %w", len(seq.FontIndices), ErrTooLarge)
	}
	return nil
}

func (b *Bank) checkEntry(e *SoundFontEntry) error {
	if e == nil {
		return nil
	}
	return b.checkSample(e.Sample)
}

// checkSample fails if s is present but resolves to neither a deduplicated
// name nor a fallback file name.
func (b *Bank) checkSample(s *SampleEntry) error {
	if s == nil {
		return nil
	}
	if _, ok := b.CanonicalName(s); ok || s.FileName != "" {
		return nil
	}
	return fmt.Errorf("bank %d loop 0x%X data 0x%X: %w",
		s.BankID, s.LoopOffset, s.DataOffset, ErrUnresolvedSample)
}

// checkName fails unless name can be used as one element of an artifact
// path.
func checkName(name string) error {
	switch {
	case name == "":
		return ErrMissingName
	case name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

func tooLong(n int) bool {
	return uint64(n) > math.MaxUint32
}
