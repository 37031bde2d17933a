// Package ids generates opaque identifiers for inventory entities.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec // ids are not secrets
)

// New returns a lexicographically sortable identifier. IDs generated later
// sort after earlier ones, which keeps list output in creation order.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// maxLength bounds client-supplied identifiers.
const maxLength = 64

// Valid reports whether a client-supplied identifier is acceptable:
// 1-64 printable ASCII characters without spaces or slashes.
func Valid(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c <= ' ' || c > '~' || c == '/' {
			return false
		}
	}
	return true
}
