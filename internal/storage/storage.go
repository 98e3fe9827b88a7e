package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store persists uploaded files and generated artifacts under opaque keys.
// Keys are slash-separated relative paths; implementations must reject keys
// that escape their root.
type Store interface {
	// Save writes the reader's content under key and returns the absolute
	// path of the stored file.
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// Path resolves a key to its absolute path without touching the file.
	Path(key string) string
}

// Purpose prefixes group stored files by role.
const (
	PrefixManuscripts = "manuscripts"
	PrefixTemplates   = "templates"
	PrefixReports     = "reports"
)

// ObjectKey builds a collision-free key for an upload: the purpose prefix,
// a fresh uuid, and a sanitized trace of the original filename.
func ObjectKey(prefix, filename string) string {
	base := sanitizeFilename(path.Base(filename))
	return fmt.Sprintf("%s/%s_%s", prefix, uuid.New().String(), base)
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "file"
	}
	return out
}
