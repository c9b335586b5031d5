package storage

import (
	"strings"
	"testing"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\final v2.zip`, "final_v2.zip"},
		{"設計稿.pdf", "___.pdf"},
		{".hidden", "hidden"},
		{"", "file"},
		{"/", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SafeName(tt.in); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeName_Truncates(t *testing.T) {
	got := SafeName(strings.Repeat("a", 300) + ".pdf")
	if len(got) != maxNameLen || !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("SafeName long = %q (%d)", got, len(got))
	}
}

func TestNewKey(t *testing.T) {
	a := NewKey(PrefixDeliveries, "work.zip")
	b := NewKey(PrefixDeliveries, "work.zip")
	if a == b {
		t.Fatalf("keys should differ: %q", a)
	}
	if !strings.HasPrefix(a, "deliveries/") || !strings.HasSuffix(a, "_work.zip") {
		t.Fatalf("unexpected key %q", a)
	}
	if !validKey(a) {
		t.Fatalf("generated key %q is not valid", a)
	}
}

func TestValidKey(t *testing.T) {
	for _, k := range []string{"", "/abs", "a/../b", "a//b", `a\b`, "."} {
		if validKey(k) {
			t.Errorf("validKey(%q) = true", k)
		}
	}
}
