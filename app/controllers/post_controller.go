package controllers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"postboard/app/middleware"
	"postboard/app/models"
	"postboard/app/services"
	"postboard/app/views"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	postService *services.PostService
	templates   views.Templates
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, templates views.Templates) *PostController {
	return &PostController{
		postService: postService,
		templates:   templates,
	}
}

// Index lists every post.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ListPosts(r.Context())
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	flash := popFlash(w, r)

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{
			"posts": posts,
			"flash": flash,
		})
		return
	}

	data := struct {
		Posts []*models.Post
		Flash string
	}{
		Posts: posts,
		Flash: flash,
	}
	pc.render(w, r, "index", data)
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pc.postID(w, r)
	if !ok {
		return
	}

	post, err := pc.postService.GetPost(r.Context(), id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}

	data := struct {
		Post  *models.Post
		Flash string
	}{
		Post:  post,
		Flash: popFlash(w, r),
	}
	pc.render(w, r, "show", data)
}

// Create handles creating a new post
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := pc.readInput(r)
	defer cleanup()
	if err != nil {
		pc.sendBadRequest(w, r, err)
		return
	}

	post, err := pc.postService.CreatePost(r.Context(), in)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if isAPI(r) {
		pc.sendJSON(w, http.StatusCreated, post)
		return
	}
	setFlash(w, FlashCreated)
	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

// Update replaces title and content of a post, and its picture when a new
// file is sent.
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pc.postID(w, r)
	if !ok {
		return
	}

	in, cleanup, err := pc.readInput(r)
	defer cleanup()
	if err != nil {
		pc.sendBadRequest(w, r, err)
		return
	}

	post, err := pc.postService.UpdatePost(r.Context(), id, in)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if isAPI(r) {
		pc.sendJSON(w, http.StatusOK, post)
		return
	}
	setFlash(w, FlashUpdated)
	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

// Delete handles deleting a post
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pc.postID(w, r)
	if !ok {
		return
	}

	if err := pc.postService.DeletePost(r.Context(), id); err != nil {
		pc.sendError(w, r, err)
		return
	}

	if isAPI(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	setFlash(w, FlashDeleted)
	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

// readInput collects title, content and the optional picture from a form or
// JSON body. The returned cleanup must always be called.
func (pc *PostController) readInput(r *http.Request) (services.PostInput, func(), error) {
	var in services.PostInput
	noop := func() {}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return in, noop, err
		}
		in.Title = body.Title
		in.Content = body.Content
		return in, noop, nil
	}

	if err := middleware.ParseForm(r); err != nil {
		return in, noop, err
	}
	in.Title = r.FormValue("title")
	in.Content = r.FormValue("content")

	file, header, err := r.FormFile("picture")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return in, noop, nil
	}
	if err != nil {
		return in, noop, err
	}
	in.Picture = models.Some(&services.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Reader:   file,
	})
	return in, func() { file.Close() }, nil
}

func (pc *PostController) postID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pc.sendError(w, r, services.ErrPostNotFound)
		return 0, false
	}
	return id, true
}

func (pc *PostController) render(w http.ResponseWriter, r *http.Request, page string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pc.templates.Render(w, page, data); err != nil {
		log.WithFields(log.Fields{
			"err":        err,
			"page":       page,
			"request_id": middleware.RequestIDFrom(r.Context()),
		}).Error("Template error")
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

// Helper methods for consistent response handling

func (pc *PostController) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithField("err", err).Warn("Failed writing response")
	}
}

// errorBody is the JSON error shape: a summary plus per-field messages for
// validation failures.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (pc *PostController) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.StatusCode(err)
	body := errorBody{Message: err.Error()}

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		body.Errors = verr.Fields
	case status == http.StatusNotFound:
		body.Message = "Post not found"
	case status >= http.StatusInternalServerError:
		log.WithFields(log.Fields{
			"err":        err,
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.RequestIDFrom(r.Context()),
		}).Error("Request failed")
		body.Message = http.StatusText(status)
	}
	pc.writeError(w, r, status, body)
}

func (pc *PostController) sendBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	pc.writeError(w, r, status, errorBody{Message: "Invalid request body: " + err.Error()})
}

func (pc *PostController) writeError(w http.ResponseWriter, r *http.Request, status int, body errorBody) {
	if wantsJSON(r) {
		pc.sendJSON(w, status, body)
		return
	}
	lines := []string{body.Message}
	if len(body.Errors) > 0 {
		lines = lines[:0]
		fields := make([]string, 0, len(body.Errors))
		for field := range body.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			lines = append(lines, body.Errors[field]...)
		}
	}
	http.Error(w, strings.Join(lines, "\n"), status)
}

func isAPI(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

func wantsJSON(r *http.Request) bool {
	return isAPI(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}
