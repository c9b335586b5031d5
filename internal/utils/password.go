package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	plainPrefix  = "plain:"
	pbkdf2Prefix = "$pbkdf2-sha256$"
)

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword accepts bcrypt hashes, passlib pbkdf2-sha256 hashes and
// legacy "plain:" values.
func CheckPassword(hash, password string) bool {
	switch {
	case strings.HasPrefix(hash, plainPrefix):
		return subtle.ConstantTimeCompare([]byte(hash[len(plainPrefix):]), []byte(password)) == 1
	case isBcrypt(hash):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	case strings.HasPrefix(hash, pbkdf2Prefix):
		return checkPBKDF2(hash, password)
	default:
		return false
	}
}

// NeedsUpgrade reports whether a stored hash should be replaced with bcrypt
// after a successful login.
func NeedsUpgrade(hash string) bool {
	return strings.HasPrefix(hash, plainPrefix)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// $pbkdf2-sha256$<rounds>$<salt>$<checksum>, salt and checksum in passlib's ab64.
func checkPBKDF2(hash, password string) bool {
	parts := strings.Split(strings.TrimPrefix(hash, pbkdf2Prefix), "$")
	if len(parts) != 3 {
		return false
	}
	rounds, err := strconv.Atoi(parts[0])
	if err != nil || rounds <= 0 {
		return false
	}
	salt, err := ab64Decode(parts[1])
	if err != nil {
		return false
	}
	want, err := ab64Decode(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func ab64Decode(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(s, ".", "+"))
}
