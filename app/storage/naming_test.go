package storage

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampNaming(t *testing.T) {
	n := TimestampNaming{Now: func() time.Time { return time.Unix(1700000000, 0) }}
	assert.Equal(t, "1700000000_fileA.png", n.Name("fileA.png", nil))
	assert.Equal(t, "1700000000_evil.png", n.Name("../../evil.png", nil))
	assert.Equal(t, "1700000000_shot.png", n.Name(`C:\Users\me\shot.png`, nil))
	assert.Equal(t, "1700000000_upload", n.Name("", nil))
}

func TestUUIDNaming(t *testing.T) {
	n := UUIDNaming{}
	a := n.Name("Photo.JPG", nil)
	b := n.Name("Photo.JPG", nil)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.jpg$`), a)
}

func TestContentNaming(t *testing.T) {
	n := ContentNaming{}
	a := n.Name("a.png", []byte("same"))
	b := n.Name("b.png", []byte("same"))
	c := n.Name("a.png", []byte("different"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}\.png$`), a)
}

func TestNewNaming(t *testing.T) {
	for kind, want := range map[string]Naming{
		"":          TimestampNaming{},
		"timestamp": TimestampNaming{},
		"uuid":      UUIDNaming{},
		"content":   ContentNaming{},
	} {
		got, err := NewNaming(kind)
		require.NoError(t, err)
		assert.IsType(t, want, got)
	}

	_, err := NewNaming("sequential")
	assert.Error(t, err)
}

func TestCleanFilename(t *testing.T) {
	tests := map[string]string{
		"cat.png":           "cat.png",
		"dir/cat.png":       "cat.png",
		".hidden":           "hidden",
		"  spaced.png  ":    "spaced.png",
		"bad\x00\nname.png": "badname.png",
		"..":                "upload",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanFilename(in), in)
	}
}
