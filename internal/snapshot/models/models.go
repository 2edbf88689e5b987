package models

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	competency "toolgate/internal/competency/models"
	"toolgate/pkg/domain"
)

// tokenBytes gives 256 bits of entropy; collisions are a program error, not
// an expected event, but inserts still check.
const tokenBytes = 32

// VerificationSnapshot is a frozen, shareable competency record. Everything
// except ViewCount is immutable after creation; the live evidence moving on
// never changes what a previously issued token shows.
type VerificationSnapshot struct {
	Token       string
	PrincipalID domain.UserID
	UserName    string
	Skills      competency.SkillSnapshot
	CreatedAt   time.Time
	ExpiresAt   *time.Time
	ViewCount   int
}

// Expired reports whether the snapshot is past its expiry at the given time.
func (s *VerificationSnapshot) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// NewToken mints an opaque URL-safe verification token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate snapshot token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
