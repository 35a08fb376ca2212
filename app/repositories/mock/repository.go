package mock

import (
	"errors"
	"sync"

	"postboard/app/models"
	"postboard/app/repositories"
)

// PostRepository is an in-memory repositories.PostRepository. Records are
// copied on the way in and out, like a real store.
type PostRepository struct {
	posts  map[int]models.Post
	nextID int
	mutex  sync.RWMutex

	// FailWith, when set, is returned from every call.
	FailWith error
}

var _ repositories.PostRepository = (*PostRepository)(nil)

// ErrInjected is a convenience value for FailWith.
var ErrInjected = errors.New("injected failure")

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]models.Post),
		nextID: 1,
	}
}

// Len returns the number of stored posts.
func (m *PostRepository) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.posts)
}

func (m *PostRepository) Create(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = *post
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &post, nil
}

func (m *PostRepository) Update(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.posts[post.ID] = *post
	return nil
}

func (m *PostRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *PostRepository) List() ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	posts := []*models.Post{}
	for id := 1; id < m.nextID; id++ {
		if post, exists := m.posts[id]; exists {
			posts = append(posts, &post)
		}
	}
	return posts, nil
}
