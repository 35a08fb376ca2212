package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postboard/app/models"
	"postboard/app/repositories"
	"postboard/app/storage"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// PostInput is the full set of client supplied fields for a create or
// update. Title and Content always replace the stored values. Picture is
// only applied when set.
type PostInput struct {
	Title   string                   `form:"title" validate:"required,max=255"`
	Content string                   `form:"content" validate:"required"`
	Picture models.Optional[*Upload] `form:"-"`
}

// PostService handles business logic for blog posts
type PostService struct {
	postRepo repositories.PostRepository
	blobs    storage.BlobStore
	uploads  UploadPolicy
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, blobs storage.BlobStore, uploads UploadPolicy) *PostService {
	return &PostService{
		postRepo: postRepo,
		blobs:    blobs,
		uploads:  uploads,
	}
}

// ListPosts returns every post in storage order.
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.postRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost retrieves a post by ID
func (s *PostService) GetPost(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, translate(err, id)
	}
	return post, nil
}

// CreatePost validates in, stores its picture if any, then stores the post.
func (s *PostService) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	picture, err := s.validate(&in)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
	}
	if picture != nil {
		path, err := s.storePicture(ctx, picture)
		if err != nil {
			return nil, err
		}
		post.SetPicture(path)
	}
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("invalid post: %w", err)
	}

	if err := s.postRepo.Create(post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	log.WithFields(log.Fields{
		"id":      post.ID,
		"picture": post.PictureURL(),
	}).Info("Created post")
	return post, nil
}

// UpdatePost overwrites title and content of an existing post. The picture
// is replaced only when in.Picture is set; the previous blob is kept.
func (s *PostService) UpdatePost(ctx context.Context, id int, in PostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, translate(err, id)
	}

	picture, err := s.validate(&in)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	if picture != nil {
		path, err := s.storePicture(ctx, picture)
		if err != nil {
			return nil, err
		}
		post.SetPicture(path)
	}
	post.BeforeUpdate()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("invalid post: %w", err)
	}

	if err := s.postRepo.Update(post); err != nil {
		return nil, translate(err, id)
	}

	log.WithFields(log.Fields{
		"id":      post.ID,
		"picture": post.PictureURL(),
	}).Info("Updated post")
	return post, nil
}

// DeletePost removes a post. Its picture blob is left in place.
func (s *PostService) DeletePost(ctx context.Context, id int) error {
	if err := s.postRepo.Delete(id); err != nil {
		return translate(err, id)
	}
	log.WithField("id", id).Info("Deleted post")
	return nil
}

// validate normalises in and checks every field, collecting all failures.
func (s *PostService) validate(in *PostInput) (*inspectedUpload, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)

	verr := NewValidationError()
	if err := models.Validator().Struct(in); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return nil, fmt.Errorf("validate post: %w", err)
		}
		verr.addValidatorErrors(errs)
	}

	var picture *inspectedUpload
	if up, ok := in.Picture.Get(); ok {
		var err error
		picture, err = s.uploads.inspectUpload(up, verr)
		if err != nil {
			return nil, err
		}
	}

	if !verr.Empty() {
		return nil, verr
	}
	return picture, nil
}

func (s *PostService) storePicture(ctx context.Context, up *inspectedUpload) (string, error) {
	path, err := s.blobs.Put(ctx, up.name, up.data, up.contentType)
	if err != nil {
		return "", fmt.Errorf("failed to store picture: %w", err)
	}
	return path, nil
}

func translate(err error, id int) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrPostNotFound, id)
	}
	return err
}
