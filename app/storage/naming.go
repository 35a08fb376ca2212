package storage

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Naming picks the stored name for an upload.
type Naming interface {
	Name(original string, data []byte) string
}

// TimestampNaming prefixes the client filename with the upload time in
// seconds. Identical filenames within the same second collide.
type TimestampNaming struct {
	Now func() time.Time
}

func (n TimestampNaming) Name(original string, data []byte) string {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	return fmt.Sprintf("%d_%s", now().Unix(), CleanFilename(original))
}

// UUIDNaming uses a random UUID and keeps the extension.
type UUIDNaming struct{}

func (UUIDNaming) Name(original string, data []byte) string {
	return uuid.NewString() + extension(original)
}

// ContentNaming names blobs by their BLAKE2b-256 digest, so identical uploads
// share one blob.
type ContentNaming struct{}

func (ContentNaming) Name(original string, data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]) + extension(original)
}

// NewNaming returns the strategy registered under kind.
func NewNaming(kind string) (Naming, error) {
	switch kind {
	case "", "timestamp":
		return TimestampNaming{}, nil
	case "uuid":
		return UUIDNaming{}, nil
	case "content":
		return ContentNaming{}, nil
	default:
		return nil, fmt.Errorf("unknown naming strategy %q", kind)
	}
}

// CleanFilename reduces a client supplied filename to a safe base name.
func CleanFilename(original string) string {
	name := original
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimLeft(strings.TrimSpace(name), ".")
	if name == "" {
		return "upload"
	}
	return name
}

func extension(original string) string {
	ext := strings.ToLower(filepath.Ext(CleanFilename(original)))
	if len(ext) > 10 {
		return ""
	}
	return ext
}
