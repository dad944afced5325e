// Package idgen mints event ids: a short prefix followed by random
// URL-safe characters from nanoid.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// EventPrefix marks ids minted for change events.
	EventPrefix = "evt-"

	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	size     = 12
)

// Generate returns a fresh event id.
func Generate() (string, error) {
	return New(EventPrefix)
}

// New returns prefix followed by a random suffix.
func New(prefix string) (string, error) {
	suffix, err := nanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return prefix + suffix, nil
}

// Valid reports whether id could have been minted by New(prefix).
func Valid(id, prefix string) bool {
	suffix, ok := strings.CutPrefix(id, prefix)
	if !ok || len(suffix) != size {
		return false
	}
	for _, r := range suffix {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
