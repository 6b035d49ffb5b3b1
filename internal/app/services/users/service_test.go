package users

import (
	"context"
	"testing"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/auth"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage/memory"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/apperr"
)

func newService() *Service {
	return New(memory.New(), auth.NewManager("test-secret", time.Hour), nil)
}

func register(t *testing.T, svc *Service) string {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Email:       "ama@example.com",
		Password:    "correct-horse",
		DisplayName: "Ama",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u.ID
}

func TestRegisterValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"missing email", RegisterInput{Password: "longenough", DisplayName: "Ama"}},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "longenough", DisplayName: "Ama"}},
		{"short password", RegisterInput{Email: "a@b.com", Password: "short", DisplayName: "Ama"}},
		{"missing name", RegisterInput{Email: "a@b.com", Password: "longenough"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.in); apperr.KindOf(err) != apperr.KindInvalid {
				t.Fatalf("expected invalid, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService()
	register(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:       "AMA@example.com",
		Password:    "another-pass",
		DisplayName: "Other Ama",
	})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc := newService()
	id := register(t, svc)
	ctx := context.Background()

	u, token, err := svc.Login(ctx, "ama@example.com", "correct-horse", "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.ID != id {
		t.Fatalf("expected user %s, got %s", id, u.ID)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if u.LastLoginAt.IsZero() {
		t.Fatal("expected last_login_at to be stamped")
	}

	authed, sess, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != id || sess.UserID != id {
		t.Fatal("authenticate resolved the wrong user")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newService()
	register(t, svc)

	_, _, err := svc.Login(context.Background(), "ama@example.com", "wrong", "", "")
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	svc := newService()

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever-pass", "", "")
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newService()
	register(t, svc)
	ctx := context.Background()

	_, token, err := svc.Login(ctx, "ama@example.com", "correct-horse", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, token); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}

	// Logout twice is fine.
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc := newService()
	id := register(t, svc)
	ctx := context.Background()

	_, token, err := svc.Login(ctx, "ama@example.com", "correct-horse", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.ChangePassword(ctx, id, "wrong", "brand-new-pass"); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized for wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, id, "correct-horse", "brand-new-pass"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, _, err := svc.Authenticate(ctx, token); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected old session to be revoked, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ama@example.com", "brand-new-pass", "", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
