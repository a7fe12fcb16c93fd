// Package anchor generates heading anchor ids of the form h.<hex>.
package anchor

import (
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Prefix starts every heading anchor id.
const Prefix = "h."

// DuplicateAnchorError reports an id used by two headings of one document.
type DuplicateAnchorError struct {
	ID string
}

func (e *DuplicateAnchorError) Error() string {
	return fmt.Sprintf("duplicate heading anchor %q", e.ID)
}

// Generator hands out ids that are unique within one document. It is not
// safe for concurrent use; create one per conversion.
type Generator struct {
	rng  *rand.Rand
	used map[string]bool
}

// NewGenerator returns a generator whose sequence is fixed by seed.
func NewGenerator(seed [32]byte) *Generator {
	return &Generator{
		rng:  rand.New(rand.NewChaCha8(seed)),
		used: make(map[string]bool),
	}
}

// SeedFrom derives a seed from document content, so converting the same
// document twice yields the same generated ids.
func SeedFrom(content []byte) [32]byte {
	return sha256.Sum256(content)
}

// Reserve marks an existing id as taken.
func (g *Generator) Reserve(id string) error {
	if g.used[id] {
		return &DuplicateAnchorError{ID: id}
	}
	g.used[id] = true
	return nil
}

// Next returns a fresh id: 48 random bits as 12 hex digits.
func (g *Generator) Next() string {
	for {
		id := fmt.Sprintf("%s%012x", Prefix, g.rng.Uint64()&0xffffffffffff)
		if !g.used[id] {
			g.used[id] = true
			return id
		}
	}
}

// IsAnchor reports whether name looks like a heading anchor id.
func IsAnchor(name string) bool {
	return strings.HasPrefix(name, Prefix) && len(name) > len(Prefix)
}
