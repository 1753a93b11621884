package store

import "github.com/oklog/ulid/v2"

// NewID returns a ULID for session and viewer ids. Ids minted in the same millisecond
// still sort in creation order.
func NewID() string {
	return ulid.Make().String()
}
