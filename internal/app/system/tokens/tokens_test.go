package tokens_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/tokens"
)

const secret = "0123456789abcdef0123456789abcdef"

func newIssuer(t *testing.T) *tokens.Issuer {
	t.Helper()
	iss, err := tokens.NewIssuer(secret, "propertyhub", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return iss
}

func TestNewIssuer_RejectsShortSecret(t *testing.T) {
	if _, err := tokens.NewIssuer("short", "x", time.Minute, time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
	if _, err := tokens.NewIssuer(secret, "x", 0, time.Hour); err == nil {
		t.Error("expected error for zero access ttl")
	}
}

func TestIssueAndParse(t *testing.T) {
	iss := newIssuer(t)
	pair, err := iss.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	access, err := iss.Parse(pair.Access, tokens.TypeAccess)
	if err != nil {
		t.Fatalf("Parse access: %v", err)
	}
	if access.Subject != "user-1" {
		t.Errorf("subject: got %q, want %q", access.Subject, "user-1")
	}

	refresh, err := iss.Parse(pair.Refresh, tokens.TypeRefresh)
	if err != nil {
		t.Fatalf("Parse refresh: %v", err)
	}
	if refresh.ID == access.ID {
		t.Error("access and refresh tokens must have distinct ids")
	}
	if d := time.Until(refresh.Expiry()); d < 23*time.Hour || d > 24*time.Hour {
		t.Errorf("refresh expiry: %v from now", d)
	}
}

func TestParse_WrongType(t *testing.T) {
	iss := newIssuer(t)
	pair, _ := iss.Issue("user-1")

	if _, err := iss.Parse(pair.Refresh, tokens.TypeAccess); !errors.Is(err, tokens.ErrWrongType) {
		t.Errorf("refresh as access: got %v, want ErrWrongType", err)
	}
	if _, err := iss.Parse(pair.Access, tokens.TypeRefresh); !errors.Is(err, tokens.ErrWrongType) {
		t.Errorf("access as refresh: got %v, want ErrWrongType", err)
	}
}

func TestParse_Expired(t *testing.T) {
	iss := newIssuer(t)
	past := time.Now().Add(-time.Hour)
	iss.SetClock(func() time.Time { return past })
	tok, err := iss.Access("user-1")
	if err != nil {
		t.Fatal(err)
	}

	iss.SetClock(time.Now)
	if _, err := iss.Parse(tok, tokens.TypeAccess); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("expired: got %v, want ErrInvalid", err)
	}
}

func TestParse_Tampered(t *testing.T) {
	iss := newIssuer(t)
	tok, _ := iss.Access("user-1")

	other, _ := tokens.NewIssuer(strings.Repeat("z", 32), "propertyhub", time.Minute, time.Hour)
	if _, err := other.Parse(tok, tokens.TypeAccess); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("wrong secret: got %v, want ErrInvalid", err)
	}
	if _, err := iss.Parse("not.a.jwt", tokens.TypeAccess); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("garbage: got %v, want ErrInvalid", err)
	}
}
