package testutil

import (
	"fmt"
	"sync"
)

// SeqTokens generates "gen-1", "gen-2", ... in order.
//
// This keeps timeline generation tokens stable across test runs so event
// streams can be compared against golden files.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SeqTokens struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next token in sequence.
func (g *SeqTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("gen-%d", g.n)
}
