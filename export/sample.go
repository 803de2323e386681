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
)

// The number of bytes of a sample resource that do not depend on the sizes
// of its payload, loop state and codebook lists.
const SAMPLE_FIXED_BYTES = resource.HEADER_BYTES + 4 + 4 + 16 + 12

// The width in bytes of a single loop state value and codebook coefficient.
const (
	LOOP_STATE_BYTES  = 2
	COEFFICIENT_BYTES = 2
)

// EncodeSample returns the binary resource for s. Samples have no XML form.
// Every count is written immediately before the list it describes.
func EncodeSample(s *bank.SampleEntry) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := resource.NewWriter(buf)

	resource.WriteHeader(w, resource.TypeAudioSample, binaryVersion)

	w.Uint8(s.Codec)
	w.Uint8(uint8(s.Medium))
	w.Bool(s.Unk26)
	w.Bool(s.Unk25)

	w.Count(len(s.Data))
	w.Bytes(s.Data)

	w.Uint32(s.Loop.Start)
	w.Uint32(s.Loop.End)
	w.Uint32(s.Loop.Count)
	w.Count(len(s.Loop.States))
	for _, state := range s.Loop.States {
		w.Int16(state)
	}

	w.Uint32(uint32(s.Book.Order))
	w.Uint32(uint32(s.Book.NPredictors))
	w.Count(len(s.Book.Coefficients))
	for _, coeff := range s.Book.Coefficients {
		w.Int16(coeff)
	}

	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("encoding sample: %w", err)
	}
	return buf.Bytes(), nil
}
