package testutil

import (
	"fmt"
	"sync"
)

// SequentialTokenGenerator generates numbered submission tokens.
//
// This enables deterministic test execution and golden snapshot
// comparison: the same scenario produces byte-identical trace output.
//
// Unlike runtime.FixedGenerator, which panics when its token list is
// exhausted, this generator never runs out. Useful for scenarios where
// the exact submission count is not fixed up front.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialTokenGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTokenGenerator creates a generator producing
// "<prefix>-1", "<prefix>-2", and so on.
//
// An empty prefix defaults to "sub".
func NewSequentialTokenGenerator(prefix string) *SequentialTokenGenerator {
	if prefix == "" {
		prefix = "sub"
	}
	return &SequentialTokenGenerator{prefix: prefix}
}

// Generate returns the next numbered token.
// Implements runtime.TokenGenerator.
func (g *SequentialTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts numbering from 1.
func (g *SequentialTokenGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
