// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"bytes"
	"fmt"
	"strconv"
)

import (
	"github.com/louist103/OTRExporter/bank"
	"github.com/louist103/OTRExporter/resource"
	"github.com/louist103/OTRExporter/xmlnode"
)

// SequenceElement returns the metadata tree of seq. dataPath is the full
// output path of the artifact holding the sequence's raw bytes.
func SequenceElement(seq *bank.Sequence, dataPath string) *xmlnode.Element {
	root := xmlnode.New("Sequence")
	root.SetAttr("Index", strconv.FormatUint(uint64(seq.Index), 10))
	root.SetAttr("Medium", seq.Medium.String())
	root.SetAttr("CachePolicy", seq.CachePolicy.String())
	root.SetAttr("Size", strconv.Itoa(len(seq.Data)))
	root.SetAttr("Path", dataPath)

	fonts := root.AddChild("FontIndicies")
	for _, idx := range seq.FontIndices {
		fonts.AddChild("FontIndex").SetAttr("FontIdx", strconv.Itoa(int(idx)))
	}
	return root
}

// EncodeSequenceText returns the raw data artifact and the printed metadata
// artifact for seq.
func EncodeSequenceText(seq *bank.Sequence, dataPath string) (data, meta []byte,
	err error) {
	if err := bank.ValidateSequence(seq); err != nil {
		return nil, nil, fmt.Errorf("encoding sequence %q: %w", seq.Name, err)
	}
	data = make([]byte, len(seq.Data))
	copy(data, seq.Data)
	return data, SequenceElement(seq, dataPath).Bytes(), nil
}

// EncodeSequenceBinary returns the self-describing binary resource for seq:
// the raw bytes followed by the metadata that the text pipeline keeps in a
// separate artifact.
func EncodeSequenceBinary(seq *bank.Sequence) ([]byte, error) {
	if err := bank.ValidateSequence(seq); err != nil {
		return nil, fmt.Errorf("encoding sequence %q: %w", seq.Name, err)
	}

	buf := new(bytes.Buffer)
	w := resource.NewWriter(buf)

	resource.WriteHeader(w, resource.TypeAudioSequence, binaryVersion)
	w.Count(len(seq.Data))
	w.Bytes(seq.Data)
	w.Uint8(uint8(seq.Index))
	w.Uint8(uint8(seq.Medium))
	w.Uint8(uint8(seq.CachePolicy))
	w.Count(len(seq.FontIndices))
	for _, idx := range seq.FontIndices {
		w.Uint8(idx)
	}

	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("encoding sequence %q: %w", seq.Name, err)
	}
	return buf.Bytes(), nil
}
