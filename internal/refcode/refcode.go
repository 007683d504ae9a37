// Package refcode issues the short public identifiers printed on
// submission receipts. Codes are not guaranteed unique here; the
// submission store enforces uniqueness at insert and the caller
// retries on collision.
package refcode

import (
	"crypto/rand"
	"math/big"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	length   = 8
)

// Generate returns an 8-character code drawn uniformly from [A-Z0-9].
func Generate() string {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; nothing sensible can continue from there.
			panic(err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf)
}
