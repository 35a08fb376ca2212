package repositories

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	pkgerrors "github.com/pkg/errors"
)

const (
	// PostKeyPrefix namespaces post records.
	PostKeyPrefix = "post:"

	// PostSeqKey holds the last issued post ID.
	PostSeqKey = "seq:post"
)

var (
	ErrNotFound = errors.New("record not found")
)

// postKey zero-pads the ID so that iteration order matches ID order.
func postKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%010d", PostKeyPrefix, id))
}

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id int
	item, err := txn.Get([]byte(seqKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		id = 1
	} else if err != nil {
		return 0, err
	} else {
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt sequence %q: %d bytes", seqKey, len(val))
			}
			id = int(binary.BigEndian.Uint64(val))
			return nil
		})
		if err != nil {
			return 0, err
		}
		id++
	}

	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, uint64(id))
	if err := txn.Set([]byte(seqKey), idBytes); err != nil {
		return 0, err
	}

	return id, nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to marshal entity")
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return pkgerrors.Wrap(err, "failed to unmarshal entity")
	}
	return nil
}
