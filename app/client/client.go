// Package client talks to the post routes the way the browser form does:
// multipart submits, method override for updates and a cookie jar so the
// flash message survives the redirect.
package client

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"postboard/app/models"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// File is a picture picked for upload.
type File struct {
	Name string
	Data []byte
}

// Draft is what a submit sends. File is only attached when set.
type Draft struct {
	Title   string
	Content string
	File    *File
}

// ListResult is the list page: every post plus the pending flash message.
type ListResult struct {
	Posts []*models.Post `json:"posts"`
	Flash string         `json:"flash"`
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// Client is a thin HTTP client for the post routes.
type Client struct {
	http *resty.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &Client{http: r}
}

// List fetches every post.
func (c *Client) List(ctx context.Context) (*ListResult, error) {
	var out ListResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/posts")
	if err := check("list posts", 0, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one post.
func (c *Client) Get(ctx context.Context, id int) (*models.Post, error) {
	var out models.Post
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/posts/" + strconv.Itoa(id))
	if err := check("get post", id, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create submits a new post. The server redirects to the list, which is
// returned with the flash message.
func (c *Client) Create(ctx context.Context, d Draft) (*ListResult, error) {
	return c.submit(ctx, "create post", "/posts", 0, d, nil)
}

// Update replaces title and content of post id, and its picture when the
// draft carries a file.
func (c *Client) Update(ctx context.Context, id int, d Draft) (*ListResult, error) {
	return c.submit(ctx, "update post", "/posts/"+strconv.Itoa(id), id, d, map[string]string{"_method": http.MethodPut})
}

// Delete removes post id and returns the refreshed list.
func (c *Client) Delete(ctx context.Context, id int) (*ListResult, error) {
	var out ListResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{}).
		Delete("/posts/" + strconv.Itoa(id))
	if err := check("delete post", id, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) submit(ctx context.Context, op, path string, id int, d Draft, extra map[string]string) (*ListResult, error) {
	fields := map[string]string{
		"title":   d.Title,
		"content": d.Content,
	}
	for k, v := range extra {
		fields[k] = v
	}

	var out ListResult
	req := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(fields).
		SetResult(&out).
		SetError(&errorBody{})
	if d.File != nil {
		req.SetFileReader("picture", d.File.Name, bytes.NewReader(d.File.Data))
	}

	resp, err := req.Post(path)
	if err := check(op, id, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func check(op string, id int, resp *resty.Response, err error) error {
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if resp.IsSuccess() {
		return nil
	}

	switch resp.StatusCode() {
	case http.StatusUnprocessableEntity:
		verr := &ValidationError{Message: "The given data was invalid."}
		if body, ok := resp.Error().(*errorBody); ok && body != nil {
			if body.Message != "" {
				verr.Message = body.Message
			}
			verr.Fields = body.Errors
		}
		return verr
	case http.StatusNotFound:
		return &NotFoundError{ID: id}
	}
	return &TransportError{Op: op, StatusCode: resp.StatusCode()}
}
