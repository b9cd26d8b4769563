package cryptox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns a uniformly random numeric string of the given
// length, zero-padded. Used for short-lived one-time passcodes.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", errors.New("cryptox: code length out of range")
	}

	limit := big.NewInt(1)
	for range digits {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
