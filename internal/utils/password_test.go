package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

// ab64Encode is passlib's base64 variant: no padding, "." in place of "+".
func ab64Encode(b []byte) string {
	return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b), "+", ".")
}

func passlibHash(password string, salt []byte, rounds int) string {
	sum := pbkdf2.Key([]byte(password), salt, rounds, 32, sha256.New)
	return pbkdf2Prefix + strconv.Itoa(rounds) + "$" + ab64Encode(salt) + "$" + ab64Encode(sum)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	h, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() err=%v", err)
	}
	if !strings.HasPrefix(h, "$2a$") {
		t.Fatalf("hash %q is not bcrypt", h)
	}
	if !CheckPassword(h, "hunter22") {
		t.Fatalf("CheckPassword rejected correct password")
	}
	if CheckPassword(h, "hunter23") {
		t.Fatalf("CheckPassword accepted wrong password")
	}
	if NeedsUpgrade(h) {
		t.Fatalf("bcrypt hash should not need upgrade")
	}
}

func TestCheckPassword_Formats(t *testing.T) {
	salt := []byte{0xfb, 0xef, 0xbe, 0x01, 0x02, 0x03, 0x04, 0x05}

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{"plain ok", "plain:abc123", "abc123", true},
		{"plain wrong", "plain:abc123", "abc124", false},
		{"pbkdf2 ok", passlibHash("s3cret", salt, 1000), "s3cret", true},
		{"pbkdf2 wrong", passlibHash("s3cret", salt, 1000), "s3cre", false},
		{"pbkdf2 malformed", pbkdf2Prefix + "abc$$", "x", false},
		{"unknown scheme", "md5$whatever", "whatever", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.hash, tt.password); got != tt.want {
				t.Errorf("CheckPassword(%q) = %v, want %v", tt.hash, got, tt.want)
			}
		})
	}
}

func TestNeedsUpgrade(t *testing.T) {
	if !NeedsUpgrade("plain:x") {
		t.Errorf("plain hash should need upgrade")
	}
	if NeedsUpgrade("$pbkdf2-sha256$1$a$b") {
		t.Errorf("pbkdf2 hash should not need upgrade")
	}
}
