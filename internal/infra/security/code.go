package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// ResetCodeLength is the fixed width of generated password reset codes.
const ResetCodeLength = 6

var resetCodeSpace = big.NewInt(1_000_000)

// GenerateResetCode returns a uniformly random 6-digit numeric code,
// zero-padded so leading zeros are preserved ("000042").
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, resetCodeSpace)
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return formatResetCode(n.Int64()), nil
}

func formatResetCode(n int64) string {
	return fmt.Sprintf("%0*d", ResetCodeLength, n)
}

// HashCode calculates the deterministic SHA-256 digest of a reset code.
// Codes are short-lived and single-use, so unlike passwords they are stored
// under a fast unsalted digest and located by exact hash match.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
