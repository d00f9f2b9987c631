package id

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

const (
	inviteLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	inviteDigits  = "23456789"
)

// InviteCodeGenerator produces 8-character codes: four letters then four digits.
// Ambiguous glyphs (I, O, 0, 1) are excluded.
type InviteCodeGenerator struct{}

func NewInviteCodeGenerator() *InviteCodeGenerator {
	return &InviteCodeGenerator{}
}

func (g *InviteCodeGenerator) NewID() (string, error) {
	buf := make([]byte, 0, 8)
	for i := 0; i < 8; i++ {
		alphabet := inviteLetters
		if i >= 4 {
			alphabet = inviteDigits
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		buf = append(buf, alphabet[n.Int64()])
	}
	return string(buf), nil
}
