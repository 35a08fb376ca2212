package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"postboard/app/models"

	"github.com/jinzhu/copier"
	log "github.com/sirupsen/logrus"
)

// FormState is where the post form is in its lifecycle.
type FormState int

const (
	FormClosed FormState = iota
	FormCreating
	FormEditing
)

func (s FormState) String() string {
	switch s {
	case FormClosed:
		return "closed"
	case FormCreating:
		return "creating"
	case FormEditing:
		return "editing"
	}
	return "unknown"
}

// Notification texts shown after a submit.
const (
	MsgCreated      = "Post created successfully."
	MsgUpdated      = "Post updated successfully."
	MsgCreateFailed = "Failed to create post."
	MsgUpdateFailed = "Failed to update post."
)

var (
	ErrFormOpen       = errors.New("form is already open")
	ErrFormClosed     = errors.New("form is not open")
	ErrSubmitInFlight = errors.New("a submit is already in flight")
)

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// Form is the create/edit post form. Title and content are edited locally;
// a picked file is kept apart from the stored picture until submit.
type Form struct {
	client *Client
	notify Notifier

	mu         sync.Mutex
	state      FormState
	post       models.Post
	title      string
	content    string
	file       *File
	preview    string
	submitting bool
	posts      []*models.Post
}

// snapshotOption copies a post without sharing its pointers. time.Time is
// copied by value since its fields are unexported.
var snapshotOption = copier.Option{
	DeepCopy: true,
	Converters: []copier.TypeConverter{{
		SrcType: time.Time{},
		DstType: time.Time{},
		Fn:      func(src interface{}) (interface{}, error) { return src, nil },
	}},
}

// NewForm returns a closed form.
func NewForm(c *Client, n Notifier) *Form {
	return &Form{client: c, notify: n}
}

// Open starts editing post, or a new post when post is nil.
func (f *Form) Open(post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FormClosed {
		return ErrFormOpen
	}

	f.post = models.Post{}
	f.state = FormCreating
	if post != nil {
		if err := copier.CopyWithOption(&f.post, post, snapshotOption); err != nil {
			f.state = FormClosed
			return err
		}
		f.state = FormEditing
	}
	f.title = f.post.Title
	f.content = f.post.Content
	f.file = nil
	f.preview = ""
	return nil
}

func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Title() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

func (f *Form) Content() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content
}

func (f *Form) SetTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = title
}

func (f *Form) SetContent(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = content
}

// SelectFile picks a picture for the next submit and renders a local
// preview of it. Files that cannot be decoded are still sent, so the server
// can reject them; they just have no preview.
func (f *Form) SelectFile(name string, data []byte) {
	preview, err := Preview(data)
	if err != nil {
		log.WithFields(log.Fields{"err": err, "file": name}).Debug("No preview for selected file")
		preview = ""
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.file = &File{Name: name, Data: data}
	f.preview = preview
}

// Preview returns what the picture slot shows: the local preview of a
// selected file, otherwise the stored picture URL.
func (f *Form) Preview() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file != nil {
		return f.preview
	}
	return f.post.PictureURL()
}

// Posts is the list as of the last successful submit or Refresh.
func (f *Form) Posts() []*models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts
}

// Refresh reloads the full list.
func (f *Form) Refresh(ctx context.Context) error {
	res, err := f.client.List(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.posts = res.Posts
	f.mu.Unlock()
	return nil
}

// Cancel closes the form and drops local edits.
func (f *Form) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

// Submit sends the form. On success the form closes and the list is
// replaced by the server's; on failure the form stays open as it was.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.state == FormClosed {
		f.mu.Unlock()
		return ErrFormClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitting = true
	state := f.state
	id := f.post.ID
	draft := Draft{Title: f.title, Content: f.content, File: f.file}
	f.mu.Unlock()

	var (
		res *ListResult
		err error
	)
	if state == FormEditing {
		res, err = f.client.Update(ctx, id, draft)
	} else {
		res, err = f.client.Create(ctx, draft)
	}

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.mu.Unlock()
		msg := MsgCreateFailed
		if state == FormEditing {
			msg = MsgUpdateFailed
		}
		log.WithFields(log.Fields{
			"err":   err,
			"state": state.String(),
			"id":    id,
		}).Error(msg)
		f.notify.Failure(msg)
		return err
	}
	f.posts = res.Posts
	f.reset()
	f.mu.Unlock()

	msg := MsgCreated
	if state == FormEditing {
		msg = MsgUpdated
	}
	f.notify.Success(msg)
	return nil
}

func (f *Form) reset() {
	f.state = FormClosed
	f.post = models.Post{}
	f.title = ""
	f.content = ""
	f.file = nil
	f.preview = ""
}
