package lifecycle

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xin-kz910/SE-project/internal/storage"
)

// Upload is a file received from a form. Open is called at most once, after
// every guard has passed.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func (u *Upload) empty() bool {
	return u == nil || u.Size <= 0 || strings.TrimSpace(u.Filename) == ""
}

// isPDF checks the extension and the declared content type. The bytes are
// not sniffed.
func (u *Upload) isPDF() bool {
	if !strings.EqualFold(filepath.Ext(u.Filename), ".pdf") {
		return false
	}
	mt, _, err := mime.ParseMediaType(u.ContentType)
	return err == nil && mt == "application/pdf"
}

func (e *Engine) tooLarge(u *Upload) bool {
	return e.MaxUploadBytes > 0 && u.Size > e.MaxUploadBytes
}

// store writes the upload under prefix and remembers the key so a rollback
// can remove it.
func (t *txn) store(ctx context.Context, s storage.Store, prefix string, u *Upload) (string, error) {
	f, err := u.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := storage.NewKey(prefix, u.Filename)
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.Put(ctx, key, f, u.Size, contentType); err != nil {
		return "", err
	}
	t.stored = append(t.stored, key)
	return key, nil
}
