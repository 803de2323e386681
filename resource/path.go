// Package resource implements the binary primitives shared by every resource
// artifact: the little-endian writer, the resource header and output naming.
package resource

import (
	"errors"
	"path"
	"strings"
)

// PathToRes returns the output path of an artifact named by the relative
// hint, under the resource root. Paths always use forward slashes.
func PathToRes(root, hint string) string {
	root = strings.ReplaceAll(root, "\\", "/")
	if root == "" {
		return path.Clean(hint)
	}
	return path.Join(root, hint)
}

// ErrDuplicatePath is returned by artifact sinks when an artifact is
// registered under a path that is already taken.
var ErrDuplicatePath = errors.New("artifact path is already registered")
