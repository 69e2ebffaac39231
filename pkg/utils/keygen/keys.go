package keygen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	apiKeyCharset    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	MinAPIKeyLength  = 24
	DefaultKeyLength = 40
)

// GenerateAPIKey returns a random alphanumeric key suitable for
// auth.admin_api_key.
func GenerateAPIKey(length int) (string, error) {
	if length < MinAPIKeyLength {
		return "", fmt.Errorf("api key length must be at least %d, got %d", MinAPIKeyLength, length)
	}

	max := big.NewInt(int64(len(apiKeyCharset)))
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		result[i] = apiKeyCharset[num.Int64()]
	}
	return string(result), nil
}
