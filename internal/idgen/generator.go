// Package idgen provides the identifier generators injected into the engine.
//
// Engine components never draw on ambient randomness: every id comes from a
// Generator passed in by the caller, so tests can use a Counter and assert
// exact ids while production uses a seeded Hash or UUID generator.
package idgen

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ID kind prefixes used by the engine
const (
	KindDiagnostic = "dx"
	KindTestCase   = "tc"
	KindPatch      = "patch"
	KindLockedFix  = "fix"
	KindRefinement = "ref"
)

// Generator hands out unique identifiers for a kind prefix.
type Generator interface {
	Next(kind string) string
}

// Counter generates sequential ids per kind: dx-1, dx-2, tc-1, ...
type Counter struct {
	mu   sync.Mutex
	next map[string]uint64
}

// NewCounter creates a counter starting at 1 for every kind.
func NewCounter() *Counter {
	return &Counter{next: make(map[string]uint64)}
}

func (c *Counter) Next(kind string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next[kind]++
	return fmt.Sprintf("%s-%d", kind, c.next[kind])
}

// Hash generates deterministic base36 hash ids from a seed. Two generators
// with the same seed produce the same sequence.
type Hash struct {
	mu     sync.Mutex
	seed   string
	length int
	seq    map[string]uint64
}

// NewHash creates a hash generator. length is the number of base36 characters
// after the prefix (3-8).
func NewHash(seed string, length int) *Hash {
	return &Hash{seed: seed, length: length, seq: make(map[string]uint64)}
}

func (h *Hash) Next(kind string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq[kind]++
	return HashID(h.seed, kind, h.seq[kind], h.length)
}

// UUID generates random ids. It is the only generator that is not
// reproducible and should not be used in tests that assert ids.
type UUID struct{}

func (UUID) Next(kind string) string {
	return kind + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// New returns the generator named by mode ("counter", "hash" or "uuid").
// Unknown modes fall back to hash.
func New(mode, seed string) Generator {
	switch mode {
	case "counter":
		return NewCounter()
	case "uuid":
		return UUID{}
	default:
		return NewHash(seed, 6)
	}
}
