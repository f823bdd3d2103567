package util

import (
	"strings"

	"github.com/google/uuid"
)

const ShortCodeLength = 8

// NewAuthority returns a 32-char hex token identifying one payment attempt.
func NewAuthority() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewShortCode returns the first ShortCodeLength hex chars of a random uuid.
func NewShortCode() string {
	return NewAuthority()[:ShortCodeLength]
}
