package util

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID generates a new ULID string.
func NewID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewAPIKey returns a random 32-char hex key.
func NewAPIKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
