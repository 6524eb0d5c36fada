package utils

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// seq reduces sort-key collisions when multiple messages share the same
// millisecond timestamp.
var seq uint64

// NewID returns a new opaque entity id.
func NewID() string {
	return uuid.NewString()
}

// SortKey returns a lexicographically sortable key segment for the given
// Unix-millisecond timestamp. Keys produced later always sort after keys
// produced earlier, even within the same millisecond.
func SortKey(unixMilli int64) string {
	s := atomic.AddUint64(&seq, 1)
	return fmt.Sprintf("%020d-%012d", unixMilli, s)
}
