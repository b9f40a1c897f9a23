package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// CreateULID returns a time-sortable ULID encoded as a 26-character string.
func CreateULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return id.String()
}

// NewCallbackID returns a fresh identifier suitable for naming a host-side
// callback slot. ULIDs contain no characters that need escaping inside a JS
// identifier suffix, which keeps the generated shim names valid.
func NewCallbackID() string {
	return "cb_" + CreateULID()
}
