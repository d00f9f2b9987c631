package group

import (
	"errors"
	"strings"
)

const InviteCodeLength = 8

var ErrInvalidInviteCode = errors.New("invite code must be 8 letters or digits")

// NormalizeInviteCode strips display separators and returns the wire form.
func NormalizeInviteCode(raw string) (string, error) {
	code := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(raw)))
	if len(code) != InviteCodeLength {
		return "", ErrInvalidInviteCode
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", ErrInvalidInviteCode
		}
	}
	return code, nil
}

// FormatInviteCode renders a wire code as XXXX-XXXX. Invalid input is returned unchanged.
func FormatInviteCode(code string) string {
	normalized, err := NormalizeInviteCode(code)
	if err != nil {
		return code
	}
	return normalized[:4] + "-" + normalized[4:]
}
