package tales

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
)

// Token purposes. The purpose is stored with the token and checked by the
// consuming operation; the prefix in the token string is only a debugging aid.
const (
	PurposeEdit  = "edit"
	PurposeClaim = "claim"
)

const (
	// tokenLength is the number of random characters after the purpose prefix.
	tokenLength = 24

	// tokenAlphabet is the URL-safe alphabet used for edit tokens.
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

	secretLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// secretCodePattern is the fixed, typo-checkable shape of a secret code.
var secretCodePattern = regexp.MustCompile(`^TALE-\d{4}-[A-Z]{4}$`)

// GenerateSecretCode returns a human-copyable code of the form TALE-DDDD-LLLL.
// The digit block is always in 1000-9999.
func GenerateSecretCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("failed to generate secret digits: %w", err)
	}

	letters, err := randomString(secretLetters, 4)
	if err != nil {
		return "", fmt.Errorf("failed to generate secret letters: %w", err)
	}

	return fmt.Sprintf("TALE-%04d-%s", 1000+n.Int64(), letters), nil
}

// ValidSecretCode reports whether code has the secret code shape.
func ValidSecretCode(code string) bool {
	return secretCodePattern.MatchString(code)
}

// GenerateEditToken returns "<purpose>_" followed by 24 random URL-safe characters.
func GenerateEditToken(purpose string) (string, error) {
	s, err := randomString(tokenAlphabet, tokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return purpose + "_" + s, nil
}

// hashToken creates a SHA256 hash of a token for storage and lookup.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// randomString draws n characters uniformly from alphabet using crypto/rand.
func randomString(alphabet string, n int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
