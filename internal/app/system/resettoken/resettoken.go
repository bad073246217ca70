// Package resettoken issues the signed, expiring tokens mailed to users for
// password resets and email verification.
//
// Tokens are securecookie values: HMAC-signed, optionally encrypted and
// timestamped. A password-reset token also carries a stamp derived from the
// user's current password hash, so it stops working once the password has
// been changed.
package resettoken

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"
)

// Purpose names what a token may be used for. A token issued for one
// purpose does not verify for another.
type Purpose string

const (
	PasswordReset Purpose = "password-reset"
	VerifyEmail   Purpose = "verify-email"
)

// ErrInvalid is returned for tokens that are malformed, tampered with,
// expired or issued for a different purpose.
var ErrInvalid = errors.New("resettoken: invalid or expired token")

// Claims is the token payload.
type Claims struct {
	UserID string `json:"uid"`
	Stamp  string `json:"st,omitempty"`
}

// Codec encodes and verifies tokens.
type Codec struct {
	sc  *securecookie.SecureCookie
	ttl time.Duration
}

// New returns a Codec. hashKey must be at least 32 bytes. blockKey may be
// empty (no encryption) or 16, 24 or 32 bytes.
func New(hashKey, blockKey []byte, ttl time.Duration) (*Codec, error) {
	if len(hashKey) < 32 {
		return nil, fmt.Errorf("resettoken: hash key must be at least 32 bytes, got %d", len(hashKey))
	}
	switch len(blockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("resettoken: block key must be 16, 24 or 32 bytes, got %d", len(blockKey))
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(ttl / time.Second))
	return &Codec{sc: sc, ttl: ttl}, nil
}

// TTL is how long tokens stay valid.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue returns a URL-safe token for purpose.
func (c *Codec) Issue(purpose Purpose, claims Claims) (string, error) {
	tok, err := c.sc.Encode(string(purpose), claims)
	if err != nil {
		return "", fmt.Errorf("resettoken: encode: %w", err)
	}
	return tok, nil
}

// Verify decodes token and checks that it was issued for purpose.
func (c *Codec) Verify(purpose Purpose, token string) (Claims, error) {
	var claims Claims
	if token == "" {
		return claims, ErrInvalid
	}
	if err := c.sc.Decode(string(purpose), token, &claims); err != nil {
		return Claims{}, ErrInvalid
	}
	if claims.UserID == "" {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}

// Stamp derives the password stamp stored in reset tokens.
func Stamp(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
