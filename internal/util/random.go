// Package util provides small helpers shared across FixPipe components.
package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified
// length. Uses math/rand/v2; these IDs are identifiers, not secrets.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateSessionID generates a unique troubleshooting session ID with "ts_" prefix.
func GenerateSessionID() string {
	return GenerateRandomID("ts_", 32)
}

// GenerateIssueID generates a placeholder issue ID with "i_" prefix, used
// when a chat conversation starts a session with no externally supplied
// issue reference.
func GenerateIssueID() string {
	return GenerateRandomID("i_", 32)
}
