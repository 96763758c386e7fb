// Package utils provides shared utility functions used across the application.
//
// Go Learning Note — "pkg/" Directory Convention:
// Code under pkg/ is intended to be importable by external projects (unlike
// internal/ which is compiler-enforced private). This is a community convention,
// not a Go language feature. Both the web redirector and the tierlist API
// import these helpers, and so would any other client that needs to agree on
// what a tierlist identifier looks like.
package utils

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when a string is not a canonical UUID.
var ErrInvalidID = errors.New("invalid identifier")

// IDGenerator produces fresh identifiers. Services depend on this interface
// rather than on GenerateID directly so tests can pin the value they expect.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production IDGenerator.
type UUIDGenerator struct{}

// NewID returns a random UUID v4 string.
func (UUIDGenerator) NewID() string {
	return GenerateID()
}

// GenerateID creates a new UUID v4 string for use as an entity identifier.
//
// Go Learning Note — "github.com/google/uuid":
// This library generates RFC 4122 UUIDs. uuid.New() creates a v4 (random) UUID
// like "550e8400-e29b-41d4-a716-446655440000". 122 of its 128 bits are random,
// so two page loads never mint the same tierlist in practice, and no central
// counter has to be consulted.
func GenerateID() string {
	return uuid.New().String()
}

// ValidateID reports whether id is a canonical, dashed, lowercase UUID.
// uuid.Parse also accepts the braced and "urn:uuid:" forms; those are rejected
// here because the identifier ends up verbatim in a URL path.
func ValidateID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidID
	}
	if parsed.String() != id {
		return ErrInvalidID
	}
	return nil
}
