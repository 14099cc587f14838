package collection

import "github.com/google/uuid"

// UUIDGenerator generates time-sortable UUIDv7 habit ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids sort by
// creation time.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NewID creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
