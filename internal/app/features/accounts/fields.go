package accounts

import (
	"errors"
	"strings"

	userstore "github.com/dalemusser/propertyhub/internal/app/store/users"
	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/app/system/normalize"
	"github.com/dalemusser/propertyhub/internal/domain/models"
)

// fields reads string and bool values out of a payload, keeping the first
// coercion error.
type fields struct {
	p   formutil.Payload
	err error
}

func (f *fields) has(key string) bool { return f.p.Has(key) }

func (f *fields) str(key string) string {
	v, ok := f.p[key]
	if !ok || f.err != nil {
		return ""
	}
	s, err := formutil.String(key, v)
	if err != nil {
		f.err = err
	}
	return strings.TrimSpace(s)
}

// secret reads a password field without trimming it.
func (f *fields) secret(key string) string {
	v, ok := f.p[key]
	if !ok || f.err != nil {
		return ""
	}
	s, err := formutil.String(key, v)
	if err != nil {
		f.err = err
	}
	return s
}

func (f *fields) boolean(key string, cur bool) bool {
	v, ok := f.p[key]
	if !ok || f.err != nil {
		return cur
	}
	b, err := formutil.Bool(key, v)
	if err != nil {
		f.err = err
		return cur
	}
	return b
}

// storeErr maps identity-store sentinels onto API errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		return apierr.NotFound("user not found")
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return apierr.Conflict("email", "A user with this email already exists.")
	case errors.Is(err, userstore.ErrDuplicateUsername):
		return apierr.Conflict("username", "A user with this username already exists.")
	}
	return err
}

// markupField returns the first free-text profile field that contains
// markup, or "".
func markupField(u *models.User) string {
	for _, c := range []struct{ name, value string }{
		{"bio", u.Bio},
		{"location", u.Location},
		{"company_name", u.CompanyName},
	} {
		if normalize.HasMarkup(c.value) {
			return c.name
		}
	}
	return ""
}
