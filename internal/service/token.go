package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/Payphone-Digital/accounts/internal/constants"
)

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generateSecret returns a random alphanumeric token secret.
func generateSecret() (string, error) {
	max := big.NewInt(int64(len(secretAlphabet)))
	var b strings.Builder
	b.Grow(constants.TokenSecretLen)
	for i := 0; i < constants.TokenSecretLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate token secret: %w", err)
		}
		b.WriteByte(secretAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// hashSecret is the form persisted in the token column.
func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func hashesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// formatPlainText builds the string handed to the client: <prefix><id>|<secret>.
func formatPlainText(prefix string, id uint, secret string) string {
	return prefix + strconv.FormatUint(uint64(id), 10) + constants.TokenIDSep + secret
}

// parsedToken is a presented bearer value split into its parts.
type parsedToken struct {
	ID     uint
	HasID  bool
	Secret string
}

// parsePlainText strips the optional prefix and splits off the token id.
// A value without a separator is treated as a bare secret.
func parsePlainText(prefix, raw string) (parsedToken, bool) {
	raw = strings.TrimSpace(raw)
	if prefix != "" {
		raw = strings.TrimPrefix(raw, prefix)
	}
	if raw == "" {
		return parsedToken{}, false
	}

	idPart, secret, found := strings.Cut(raw, constants.TokenIDSep)
	if !found {
		return parsedToken{Secret: raw}, true
	}
	if secret == "" {
		return parsedToken{}, false
	}

	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || id == 0 {
		return parsedToken{}, false
	}
	return parsedToken{ID: uint(id), HasID: true, Secret: secret}, true
}
