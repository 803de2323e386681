// Package util implements common utility functions.
package util

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func SkipIfShort(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping large artifact comparison test.")
	}
}

// AssertBytesEqual fails t if actual differs from expected, reporting the
// first differing offset and a dump of both buffers around it.
func AssertBytesEqual(t *testing.T, expected, actual []byte) {
	t.Helper()
	if bytes.Equal(expected, actual) {
		return
	}
	if len(expected) != len(actual) {
		t.Errorf("%d bytes were written, but %d bytes were expected",
			len(actual), len(expected))
	}
	off := 0
	for off < len(expected) && off < len(actual) && expected[off] == actual[off] {
		off++
	}
	from := off &^ 0xF
	t.Errorf("The buffers first differ at offset 0x%X.\nexpected:\n%sactual:\n%s",
		off, hex.Dump(window(expected, from)), hex.Dump(window(actual, from)))
	t.FailNow()
}

func window(p []byte, from int) []byte {
	if from > len(p) {
		return nil
	}
	to := from + 0x40
	if to > len(p) {
		to = len(p)
	}
	return p[from:to]
}
