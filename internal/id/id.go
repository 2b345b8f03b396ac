// Package id generates identifiers for client-side objects: call handles,
// broker subscribers, and per-request correlation IDs.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for locally generated IDs.
const (
	PrefixCall       = "call"
	PrefixSubscriber = "sub"
	PrefixView       = "view"
)

// Generate creates a prefixed NanoID, e.g. "call-V1StGXR8_Z5jdHi6B-myT".
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// RequestID returns a random UUID for the X-Request-ID header of an outbound call.
func RequestID() string {
	return uuid.NewString()
}
