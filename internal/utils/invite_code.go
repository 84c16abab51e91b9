package utils

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GenerateInviteCode returns a random code shaped xxxx-xxxx-xxxx, taken from
// the first six bytes of a version 4 UUID.
func GenerateInviteCode() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}

	raw := hex.EncodeToString(id[:6])
	return raw[0:4] + "-" + raw[4:8] + "-" + raw[8:12], nil
}
