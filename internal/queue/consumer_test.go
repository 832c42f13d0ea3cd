package queue

import (
	"strings"
	"testing"
)

func TestRenderEmail_ResetRequest(t *testing.T) {
	t.Parallel()

	link := "https://app.example/reset-password?token=abc"
	subject, html, err := renderEmail(AccountEvent{
		Type:      EventPasswordResetRequested,
		Email:     "a@x.com",
		Username:  "amy",
		ResetLink: link,
	})
	if err != nil {
		t.Fatalf("renderEmail error: %v", err)
	}
	if subject != "Password Reset Request" {
		t.Fatalf("unexpected subject: %q", subject)
	}
	if !strings.Contains(html, link) {
		t.Fatalf("reset link missing from body: %s", html)
	}
	if !strings.Contains(html, "expire in 1 hour") {
		t.Fatalf("expiry notice missing from body")
	}
}

func TestRenderEmail_UsernameChanged(t *testing.T) {
	t.Parallel()

	_, html, err := renderEmail(AccountEvent{
		Type:        EventUsernameChanged,
		Username:    "new-name",
		OldUsername: "old-name",
	})
	if err != nil {
		t.Fatalf("renderEmail error: %v", err)
	}
	if !strings.Contains(html, "old-name") || !strings.Contains(html, "new-name") {
		t.Fatalf("old/new username missing from body: %s", html)
	}
}

func TestRenderEmail_UnknownType(t *testing.T) {
	t.Parallel()

	if _, _, err := renderEmail(AccountEvent{Type: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown event type")
	}
}

func TestHandleMessage_MalformedBody(t *testing.T) {
	t.Parallel()

	if err := handleMessage([]byte("{not json"), nil); err == nil {
		t.Fatalf("expected error for malformed body")
	}
}

func TestHandleMessage_NoMailerLogsOnly(t *testing.T) {
	t.Parallel()

	body := []byte(`{"type":"password_changed","email":"a@x.com","username":"amy"}`)
	if err := handleMessage(body, nil); err != nil {
		t.Fatalf("handleMessage error without mailer: %v", err)
	}
}
