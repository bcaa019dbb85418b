package checkpoint

import (
	"maps"
	"slices"
)

// Manifest maps an absolute file path to its encrypted token.
type Manifest map[string]string

// Paths returns the manifest keys in lexical order.
func (m Manifest) Paths() []string {
	return slices.Sorted(maps.Keys(m))
}

// Metadata maps an absolute directory to the files it held at checkpoint time.
type Metadata map[string][]string
