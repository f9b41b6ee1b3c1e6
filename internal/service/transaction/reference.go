package transaction

import (
	"crypto/rand"
)

const (
	referenceLength  = 10
	referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewReference returns a 10-character uppercase alphanumeric reference.
// Collisions are caught by the unique index on transactions.reference and
// retried by the caller.
func NewReference() string {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = referenceCharset[int(b)%len(referenceCharset)]
	}
	return string(buf)
}
