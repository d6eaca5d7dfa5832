package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable identifier suitable for storage
// keys. ULIDs keep index locality for append-heavy tables like the reset
// token log.
func New() string {
	return ulid.Make().String()
}
