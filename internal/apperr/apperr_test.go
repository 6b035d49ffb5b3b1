package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/storage"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"invalid", Invalid("quantity must be positive"), KindInvalid},
		{"not found", NotFound("product %s", "p-1"), KindNotFound},
		{"conflict", Conflict("sku taken"), KindConflict},
		{"wrapped", fmt.Errorf("commit sale: %w", Forbidden("cashier only")), KindForbidden},
		{"sql no rows", fmt.Errorf("load: %w", sql.ErrNoRows), KindNotFound},
		{"store not found", fmt.Errorf("product p-1: %w", storage.ErrNotFound), KindNotFound},
		{"store duplicate", fmt.Errorf("sku: %w", storage.ErrDuplicate), KindConflict},
		{"store stock", fmt.Errorf("product p-1: %w", storage.ErrInsufficientStock), KindConflict},
		{"plain", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%s: KindOf = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, cause, "save sale")
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause lost")
	}
	if err.Error() != "save sale: connection reset" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("persist movement", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause not unwrappable")
	}
	if KindOf(err) != KindInternal {
		t.Fatalf("kind = %v", KindOf(err))
	}
}
