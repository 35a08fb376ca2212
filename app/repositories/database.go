package repositories

import (
	"github.com/dgraph-io/badger/v4"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// OpenDB opens the badger store at path. An empty path opens an in-memory
// store, which is what the tests use.
func OpenDB(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.
		WithLogger(badgerLogger{log.WithField("component", "badger")}).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open badger at %q", path)
	}
	return db, nil
}

// badgerLogger routes badger's internal logging through logrus. Badger is
// chatty at info level, so that is demoted to debug.
type badgerLogger struct {
	entry *log.Entry
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}
