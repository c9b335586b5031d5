package lifecycle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestReasonQueryFlag(t *testing.T) {
	tests := []struct {
		reason Reason
		want   string
	}{
		{ReasonDuplicateBid, "dup=1"},
		{ReasonAwarded, "awarded=1"},
		{ReasonTooEarly, "too_early=1"},
		{ReasonNotPDF, "pdf=0"},
		{ReasonFileDup, "filedup=1"},
		{ReasonEditLocked, "e=edit_locked"},
		{ReasonDeleteLocked, "e=delete_locked"},
		{ReasonNotDeliverable, "e=not_deliverable"},
	}
	for _, tt := range tests {
		if got := tt.reason.QueryFlag(); got != tt.want {
			t.Errorf("%s.QueryFlag() = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Fatalf("AsError(nil) should be nil")
	}

	pre := errPrecondition(ReasonAwarded)
	if got := AsError(fmt.Errorf("wrapped: %w", pre)); got != pre {
		t.Fatalf("AsError lost the original *Error")
	}

	raw := errors.New("connection reset")
	got := AsError(raw)
	if got.Kind != StorageError || got.Reason != ReasonServer || !errors.Is(got, raw) {
		t.Fatalf("AsError(raw) = %+v", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"pgconn", &pgconn.PgError{Code: "23505"}, true},
		{"pgconn other", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite text", errors.New("UNIQUE constraint failed: bids.project_id"), true},
		{"other", errors.New("timeout"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
