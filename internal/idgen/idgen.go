// Package idgen allocates short document identifiers.
package idgen

import "github.com/google/uuid"

// Length is the fixed identifier length.
const Length = 8

// New returns a fresh identifier: the first 8 characters of a random UUID.
// Truncation shrinks the collision-resistance guarantee from the full UUID
// space; collisions against IDs already in the sheet or on disk are an
// accepted operational risk, not checked here.
func New() string {
	return uuid.NewString()[:Length]
}
