package session

import "github.com/google/uuid"

// TokenGenerator mints timeline generation tokens. Implemented by
// UUIDv7Generator (production) and by a sequential generator in tests so
// event streams stay comparable across runs.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 tokens. Sorting by token
// therefore sorts timelines by creation time, which is convenient when
// reading archived event logs.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
