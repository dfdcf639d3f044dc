package mbpay

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// DefaultNonceLength is the length of generated payment-link nonces
const DefaultNonceLength = 16

const nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateNonce returns length characters drawn uniformly from [A-Za-z0-9]
// using crypto/rand
func GenerateNonce(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("nonce length must be greater than 0")
	}

	limit := big.NewInt(int64(len(nonceAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		buf[i] = nonceAlphabet[n.Int64()]
	}
	return string(buf), nil
}
