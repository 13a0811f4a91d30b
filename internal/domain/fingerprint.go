package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

// Accepted source text length, in characters.
const (
	MinSourceTextLength = 1000
	MaxSourceTextLength = 10000
)

// Fingerprint returns the lowercase hex SHA-256 digest of text's UTF-8 bytes.
// It is deterministic and used to correlate generations and failures with the
// submitted text without storing the text itself.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SourceTextLength returns the length of text in characters.
func SourceTextLength(text string) int {
	return utf8.RuneCountInString(text)
}

// ValidateSourceText checks that text is within the accepted length range.
func ValidateSourceText(text string) error {
	n := SourceTextLength(text)
	if n < MinSourceTextLength || n > MaxSourceTextLength {
		return fmt.Errorf("%w: got %d characters, want %d to %d",
			ErrSourceTextLength, n, MinSourceTextLength, MaxSourceTextLength)
	}
	return nil
}
