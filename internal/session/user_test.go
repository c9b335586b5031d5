package session

import (
	"testing"

	"github.com/xin-kz910/SE-project/internal/models"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		id       uint
		username string
		role     models.Role
		wantErr  bool
	}{
		{"client", 1, "alice", models.RoleClient, false},
		{"freelancer upper case role", 2, "bob", "Freelancer", false},
		{"trimmed username", 3, "  carol ", models.RoleClient, false},
		{"zero id", 0, "dave", models.RoleClient, true},
		{"empty username", 4, "   ", models.RoleClient, true},
		{"unknown role", 5, "eve", "admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := New(tt.id, tt.username, tt.role)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("New() expected error, got user %+v", u)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if u.ID() != tt.id {
				t.Errorf("ID() = %d, want %d", u.ID(), tt.id)
			}
		})
	}
}

func TestUserAccessors(t *testing.T) {
	u, err := New(7, " frank ", "FREELANCER")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if u.Username() != "frank" {
		t.Errorf("Username() = %q, want %q", u.Username(), "frank")
	}
	if u.Role() != models.RoleFreelancer {
		t.Errorf("Role() = %q, want %q", u.Role(), models.RoleFreelancer)
	}
	if !u.IsFreelancer() || u.IsClient() {
		t.Errorf("IsFreelancer/IsClient mismatch for role %q", u.Role())
	}
}
