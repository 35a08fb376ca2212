package services

import (
	"fmt"
	"io"

	"postboard/app/storage"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxUploadBytes is the picture size ceiling, 2048 KiB.
const DefaultMaxUploadBytes int64 = 2 << 20

// imageTypes are the MIME types accepted as pictures.
var imageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/bmp":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// Upload is a picture file received from a client.
type Upload struct {
	Filename string
	// Size as declared by the client; zero when unknown.
	Size   int64
	Reader io.Reader
}

// UploadPolicy bounds and names accepted pictures.
type UploadPolicy struct {
	MaxBytes int64
	Naming   storage.Naming
}

func (p UploadPolicy) maxBytes() int64 {
	if p.MaxBytes > 0 {
		return p.MaxBytes
	}
	return DefaultMaxUploadBytes
}

func (p UploadPolicy) naming() storage.Naming {
	if p.Naming != nil {
		return p.Naming
	}
	return storage.TimestampNaming{}
}

// inspectedUpload is an upload that passed validation and has been read.
type inspectedUpload struct {
	name        string
	contentType string
	data        []byte
}

// inspectUpload reads at most the size ceiling and sniffs the content.
// Problems with the file itself are reported on verr; only read failures
// come back as error.
func (p UploadPolicy) inspectUpload(up *Upload, verr *ValidationError) (*inspectedUpload, error) {
	if up == nil || up.Reader == nil {
		verr.Add("picture", "The picture field must be a file.")
		return nil, nil
	}
	limit := p.maxBytes()
	tooLarge := fmt.Sprintf("The picture field must not be greater than %d kilobytes.", limit/1024)
	if up.Size > limit {
		verr.Add("picture", tooLarge)
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(up.Reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", up.Filename, err)
	}
	if int64(len(data)) > limit {
		verr.Add("picture", tooLarge)
		return nil, nil
	}

	mt := mimetype.Detect(data)
	if !isImage(mt) {
		verr.Add("picture", "The picture field must be an image.")
		return nil, nil
	}

	return &inspectedUpload{
		name:        p.naming().Name(up.Filename, data),
		contentType: mt.String(),
		data:        data,
	}, nil
}

func isImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if imageTypes[m.String()] {
			return true
		}
	}
	return false
}
