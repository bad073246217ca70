package mailer

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestBuildPasswordResetEmail(t *testing.T) {
	e := BuildPasswordResetEmail(LinkEmailData{
		SiteName:  "PropertyHub",
		Name:      "Ann <Agent>",
		Link:      "https://example.com/reset?token=abc",
		ExpiresIn: "1 hour",
	})

	if e.Subject != "Reset your PropertyHub password" {
		t.Errorf("subject: got %q", e.Subject)
	}
	for _, want := range []string{"Hi Ann <Agent>,", "https://example.com/reset?token=abc", "expires in 1 hour"} {
		if !strings.Contains(e.TextBody, want) {
			t.Errorf("text body missing %q:\n%s", want, e.TextBody)
		}
	}
	if !strings.Contains(e.HTMLBody, "Ann &lt;Agent&gt;") {
		t.Error("html body should escape the name")
	}
	if !strings.Contains(e.HTMLBody, "Reset password") {
		t.Error("html body should contain the button label")
	}
}

func TestBuildVerificationEmail(t *testing.T) {
	e := BuildVerificationEmail(LinkEmailData{SiteName: "PropertyHub", Link: "https://x/verify", ExpiresIn: "2 days"})
	if e.Subject != "Confirm your PropertyHub email address" {
		t.Errorf("subject: got %q", e.Subject)
	}
	if strings.Contains(e.TextBody, "Hi ") {
		t.Error("no greeting expected without a name")
	}
	if !strings.Contains(e.HTMLBody, `href="https://x/verify"`) {
		t.Error("html body should link to the verification url")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{From: "a@b.c"}, zap.NewNop()); err == nil {
		t.Error("expected error without host")
	}
	if _, err := New(Config{Host: "smtp.example.com"}, zap.NewNop()); err == nil {
		t.Error("expected error without from")
	}
	m, err := New(Config{Host: "smtp.example.com", From: "noreply@example.com", FromName: "PropertyHub"}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Send(Email{Subject: "x"}); err == nil {
		t.Error("expected error for empty recipient")
	}

	msg := m.message(Email{To: "u@example.com", Subject: "Hello", TextBody: "body"})
	if got := msg.GetHeader("To"); len(got) != 1 || got[0] != "u@example.com" {
		t.Errorf("To header: got %v", got)
	}
	if got := msg.GetHeader("From"); len(got) != 1 || !strings.Contains(got[0], "noreply@example.com") {
		t.Errorf("From header: got %v", got)
	}
}

func TestLogSender(t *testing.T) {
	if err := (LogSender{Logger: zap.NewNop()}).Send(Email{To: "u@example.com"}); err != nil {
		t.Errorf("LogSender.Send: %v", err)
	}
}
