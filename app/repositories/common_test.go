package repositories

import (
	"testing"

	"postboard/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.DB {
	db, err := OpenDB("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetNextID(t *testing.T) {
	db := setupTestDB(t)

	t.Run("first ID", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("sequential IDs", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			for i := 2; i <= 5; i++ {
				id, err := getNextID(txn, PostSeqKey)
				assert.NoError(t, err)
				assert.Equal(t, i, id)
			}
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("persistence", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)

		// Second transaction should continue from last ID
		err = db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, 2, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("corrupt sequence", func(t *testing.T) {
		require.NoError(t, db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte("bad:seq"), []byte{1, 2})
		}))
		err := db.Update(func(txn *badger.Txn) error {
			_, err := getNextID(txn, "bad:seq")
			return err
		})
		assert.Error(t, err)
	})
}

func TestPostKeyOrdering(t *testing.T) {
	assert.Equal(t, "post:0000000001", string(postKey(1)))
	assert.Less(t, string(postKey(2)), string(postKey(10)))
}

func TestMarshalEntity(t *testing.T) {
	t.Run("marshal post", func(t *testing.T) {
		post := &models.Post{
			ID:      1,
			Title:   "Test Post",
			Content: "Test Content",
		}
		post.SetPicture("/storage/uploads/1_a.png")

		data, err := marshalEntity(post)
		assert.NoError(t, err)
		assert.Contains(t, string(data), `"picture":"/storage/uploads/1_a.png"`)

		var unmarshaled models.Post
		err = unmarshalEntity(data, &unmarshaled)
		assert.NoError(t, err)
		assert.Equal(t, post.ID, unmarshaled.ID)
		assert.Equal(t, post.PictureURL(), unmarshaled.PictureURL())
	})

	t.Run("picture absent", func(t *testing.T) {
		data, err := marshalEntity(&models.Post{ID: 1, Title: "Hello", Content: "World"})
		assert.NoError(t, err)
		assert.Contains(t, string(data), `"picture":null`)
	})

	t.Run("marshal invalid entity", func(t *testing.T) {
		invalidEntity := struct {
			Ch chan int
		}{
			Ch: make(chan int),
		}

		_, err := marshalEntity(invalidEntity)
		assert.Error(t, err)
	})
}

func TestUnmarshalEntity(t *testing.T) {
	t.Run("unmarshal post", func(t *testing.T) {
		data := []byte(`{"id":1,"title":"Test Post","content":"Test Content","picture":null}`)
		var post models.Post
		err := unmarshalEntity(data, &post)
		assert.NoError(t, err)
		assert.Equal(t, 1, post.ID)
		assert.Equal(t, "Test Post", post.Title)
		assert.False(t, post.HasPicture())
	})

	t.Run("unmarshal invalid JSON", func(t *testing.T) {
		data := []byte(`{"id":1,invalid json}`)
		var post models.Post
		err := unmarshalEntity(data, &post)
		assert.Error(t, err)
	})
}
