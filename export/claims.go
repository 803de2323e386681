// Package export implements the audio resource encoder: it turns a decoded
// bank into binary resources and their XML sidecars.
package export

import (
	"errors"
	"fmt"
	"path"
)

import (
	"github.com/louist103/OTRExporter/bank"
)

// ErrPathConflict is returned when two entities of a bank would be written to
// the same artifact path, or when the path of one artifact is needed as the
// directory of another.
var ErrPathConflict = errors.New("artifact path is claimed by another entity")

// An owner is the bank entity that an artifact path is written for.
type owner struct {
	kind  string
	index uint32
	name  string
}

func (o owner) String() string {
	if o.name != "" {
		return fmt.Sprintf("%s %d (%q)", o.kind, o.index, o.name)
	}
	return fmt.Sprintf("%s %d", o.kind, o.index)
}

func (o owner) fail(err error) error {
	return &bank.EntityError{Kind: o.kind, Index: o.index, Name: o.name, Err: err}
}

// claims records every artifact path of an export before anything is
// registered.
type claims struct {
	paths  []string
	owners map[string]owner
	errs   []error
}

func newClaims() *claims {
	return &claims{owners: make(map[string]owner)}
}

func (c *claims) claim(artifact string, o owner) {
	if prev, ok := c.owners[artifact]; ok {
		c.errs = append(c.errs, o.fail(fmt.Errorf("%s is also written by %s: %w",
			artifact, prev, ErrPathConflict)))
		return
	}
	c.owners[artifact] = o
	c.paths = append(c.paths, artifact)
}

// check returns every conflict found so far, plus every artifact whose
// directory is itself an artifact.
func (c *claims) check() error {
	for _, artifact := range c.paths {
		for dir := path.Dir(artifact); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if prev, ok := c.owners[dir]; ok {
				c.errs = append(c.errs, c.owners[artifact].fail(fmt.Errorf(
					"%s needs %s as a directory, which is written by %s: %w",
					artifact, dir, prev, ErrPathConflict)))
				break
			}
		}
	}
	return errors.Join(c.errs...)
}
