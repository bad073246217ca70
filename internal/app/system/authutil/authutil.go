// internal/app/system/authutil/authutil.go
package authutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/pantry/validate"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password accepted.
	MinPasswordLength = 8
	// MaxPasswordLength bounds passwords; bcrypt ignores bytes past 72 anyway.
	MaxPasswordLength = 128
	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 12
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	ErrPasswordCommon   = errors.New("this password is too common")
	ErrPasswordNumeric  = errors.New("this password is entirely numeric")
	ErrPasswordSimilar  = errors.New("the password is too similar to your account details")
)

var commonPasswords = map[string]bool{
	"12345678": true, "123456789": true, "1234567890": true, "password": true,
	"password1": true, "password123": true, "qwertyuiop": true, "iloveyou": true,
	"sunshine": true, "princess": true, "football": true, "baseball": true,
	"welcome1": true, "letmein1": true, "trustno1": true, "superman": true,
	"abc12345": true, "11111111": true, "00000000": true, "qwerty123": true,
	"passw0rd": true, "starwars": true, "whatever": true, "dragon123": true,
	"realestate": true, "homesweethome": true,
}

// ValidatePassword checks pw against the password rules. similarTo holds
// account attributes (email, username, names) the password must not
// contain or match.
func ValidatePassword(pw string, similarTo ...string) error {
	switch {
	case len(pw) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(pw) > MaxPasswordLength:
		return ErrPasswordTooLong
	}

	lower := strings.ToLower(pw)
	if commonPasswords[lower] {
		return ErrPasswordCommon
	}
	if strings.Trim(pw, "0123456789") == "" {
		return ErrPasswordNumeric
	}
	for _, attr := range similarTo {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if local, _, ok := strings.Cut(attr, "@"); ok {
			attr = local
		}
		if len(attr) >= 3 && (lower == attr || strings.Contains(lower, attr)) {
			return ErrPasswordSimilar
		}
	}
	return nil
}

// PasswordRules describes the rules for display next to a password field.
func PasswordRules() string {
	return fmt.Sprintf("At least %d characters, not entirely numeric, not a common password, and not based on your email or name.", MinPasswordLength)
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return validate.SimpleEmailValid(strings.TrimSpace(s))
}
