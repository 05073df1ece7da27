package storage

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyInfo describes a stored API key without its hash.
type KeyInfo struct {
	ID          string
	Subject     string
	ServiceTier string
	TenantID    string
	Scopes      []string
	CreatedAt   time.Time
	RevokedAt   *time.Time
}

// Revoked reports whether the key has been revoked.
func (k KeyInfo) Revoked() bool {
	return k.RevokedAt != nil
}

// NewKeyID returns a fresh key identifier.
func NewKeyID() string {
	return "key_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
