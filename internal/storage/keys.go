package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	PrefixDeliveries = "deliveries"
	PrefixProposals  = "proposals"
)

const maxNameLen = 100

// NewKey returns a fresh key under prefix. The uuid keeps two uploads with the
// same filename apart.
func NewKey(prefix, filename string) string {
	return prefix + "/" + uuid.NewString() + "_" + SafeName(filename)
}

// SafeName strips directories and anything outside [A-Za-z0-9._-].
func SafeName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxNameLen {
		ext := path.Ext(out)
		if len(ext) > 10 {
			ext = ""
		}
		out = out[:maxNameLen-len(ext)] + ext
	}
	if out == "" || out == "_" {
		return "file"
	}
	return out
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
