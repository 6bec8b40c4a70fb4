package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// inviteAlphabet omits 0/O and 1/I/L so codes read back over the phone survive.
const inviteAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	inviteGroups    = 3
	inviteGroupSize = 4
)

// GenerateInviteCode returns a client portal invite code like "K7QF-2M9X-PA4D".
func GenerateInviteCode() (string, error) {
	raw := make([]byte, inviteGroups*inviteGroupSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	var b strings.Builder
	for i, r := range raw {
		if i > 0 && i%inviteGroupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(inviteAlphabet[int(r)%len(inviteAlphabet)])
	}
	return b.String(), nil
}

// NormalizeInviteCode uppercases a typed code and restores the dashes,
// so "k7qf 2m9x pa4d" matches "K7QF-2M9X-PA4D".
func NormalizeInviteCode(code string) string {
	var compact strings.Builder
	for _, r := range strings.ToUpper(code) {
		if r == '-' || r == ' ' || r == '\t' {
			continue
		}
		compact.WriteRune(r)
	}

	s := compact.String()
	if len(s) != inviteGroups*inviteGroupSize {
		return s
	}

	parts := make([]string, 0, inviteGroups)
	for i := 0; i < len(s); i += inviteGroupSize {
		parts = append(parts, s[i:i+inviteGroupSize])
	}
	return strings.Join(parts, "-")
}
