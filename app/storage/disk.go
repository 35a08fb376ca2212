package storage

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DiskStore keeps blobs as files in a single directory and serves them under
// a public URL prefix.
type DiskStore struct {
	dir    string
	prefix string
}

func NewDiskStore(dir, publicPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "could not make upload dir %q", dir)
	}
	return &DiskStore{
		dir:    dir,
		prefix: strings.TrimRight(publicPrefix, "/"),
	}, nil
}

func (s *DiskStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "could not write %q", path)
	}
	log.WithFields(log.Fields{
		"name":  name,
		"bytes": len(data),
		"type":  contentType,
	}).Debug("Stored blob")
	return s.publicPath(name), nil
}

// publicPath is the URL path a stored name is served at. The name keeps its
// characters on disk and is escaped in the URL.
func (s *DiskStore) publicPath(name string) string {
	return s.prefix + "/" + url.PathEscape(name)
}

func (s *DiskStore) Exists(ctx context.Context, publicPath string) (bool, error) {
	escaped, ok := strings.CutPrefix(publicPath, s.prefix+"/")
	if !ok {
		return false, nil
	}
	name, err := url.PathUnescape(escaped)
	if err != nil || checkName(name) != nil {
		return false, nil
	}
	_, err = os.Stat(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "stat %q", name)
	}
	return true, nil
}

// Path returns the file backing name.
func (s *DiskStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *DiskStore) PublicPrefix() string {
	return s.prefix
}

// Handler serves stored files. Directory listings are not exposed.
func (s *DiskStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.StripPrefix(s.prefix+"/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}
