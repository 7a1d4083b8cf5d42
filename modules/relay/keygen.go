package relay

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// keyBytes is the number of random bytes behind a room key. 4 bytes encode to
// 8 hex characters and carry 32 bits of entropy, which makes collisions
// negligible for realistic room counts. The store still checks for an existing
// key and regenerates on a hit.
const keyBytes = 4

// KeyFunc produces a new room key candidate.
type KeyFunc func() (string, error)

// GenerateKey returns an 8-character uppercase hexadecimal room key drawn from
// crypto/rand.
func GenerateKey() (string, error) {
	var b [keyBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b[:])), nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewMessageID returns a globally unique, time-ordered message ID.
func NewMessageID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
}
