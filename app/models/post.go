package models

import (
	"errors"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
}

// BeforeUpdate refreshes the modification time.
func (p *Post) BeforeUpdate() {
	p.UpdatedAt = time.Now()
}

// HasPicture reports whether the post references an uploaded picture.
func (p *Post) HasPicture() bool {
	return p.Picture != nil && *p.Picture != ""
}

// PictureURL returns the public picture path, or "" when there is none.
func (p *Post) PictureURL() string {
	if !p.HasPicture() {
		return ""
	}
	return *p.Picture
}

// SetPicture points the post at a stored blob. An empty path clears it.
func (p *Post) SetPicture(path string) {
	if path == "" {
		p.Picture = nil
		return
	}
	p.Picture = &path
}
