package controllers

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"postboard/app/middleware"
	"postboard/app/models"
	"postboard/app/repositories/mock"
	"postboard/app/services"
	"postboard/app/storage"
	"postboard/app/views"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestPostController(t *testing.T) (*PostController, *services.PostService, *mock.PostRepository) {
	t.Helper()
	postRepo := mock.NewPostRepository()
	blobs, err := storage.NewDiskStore(t.TempDir(), "/storage/uploads")
	require.NoError(t, err)
	postService := services.NewPostService(postRepo, blobs, services.UploadPolicy{})
	controller := NewPostController(postService, views.MustLoad())
	return controller, postService, postRepo
}

func setupRouter(controller *PostController) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/posts", controller.Index).Methods("GET")
	router.HandleFunc("/posts", controller.Create).Methods("POST")
	router.HandleFunc("/posts/{id:[0-9]+}", controller.Show).Methods("GET")
	router.HandleFunc("/posts/{id:[0-9]+}", controller.Update).Methods("PUT")
	router.HandleFunc("/posts/{id:[0-9]+}", controller.Delete).Methods("DELETE")

	api := router.PathPrefix("/api/posts").Subrouter()
	api.HandleFunc("", controller.Index).Methods("GET")
	api.HandleFunc("", controller.Create).Methods("POST")
	api.HandleFunc("/{id:[0-9]+}", controller.Show).Methods("GET")
	api.HandleFunc("/{id:[0-9]+}", controller.Update).Methods("PUT")
	api.HandleFunc("/{id:[0-9]+}", controller.Delete).Methods("DELETE")

	return middleware.MethodOverride(router)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

type formFile struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("picture", file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func flashFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == flashCookie {
			return c
		}
	}
	t.Fatalf("no flash cookie set")
	return nil
}

type listResponse struct {
	Posts []*models.Post `json:"posts"`
	Flash string         `json:"flash"`
}

func TestPostControllerWeb(t *testing.T) {
	controller, service, postRepo := setupTestPostController(t)
	router := setupRouter(controller)

	t.Run("create redirects with flash", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/posts", map[string]string{
			"title":   "Hello",
			"content": "World",
		}, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/posts", w.Header().Get("Location"))
		assert.Equal(t, 1, postRepo.Len())

		// The next list response carries the flash once.
		req = httptest.NewRequest(http.MethodGet, "/posts", nil)
		req.Header.Set("Accept", "application/json")
		req.AddCookie(flashFrom(t, w))
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var list listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(t, FlashCreated, list.Flash)
		require.Len(t, list.Posts, 1)
		assert.Equal(t, "Hello", list.Posts[0].Title)
		assert.Nil(t, list.Posts[0].Picture)
		assert.Equal(t, -1, flashFrom(t, w).MaxAge)
	})

	t.Run("list page renders html", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req.AddCookie(&http.Cookie{Name: flashCookie, Value: "Post+deleted+successfully."})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		body := w.Body.String()
		assert.Contains(t, body, "Hello")
		assert.Contains(t, body, FlashDeleted)
		assert.Contains(t, body, `name="_method" value="PUT"`)
		assert.Contains(t, body, `name="_method" value="DELETE"`)
	})

	t.Run("update through method override", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/posts/1", map[string]string{
			"_method": "PUT",
			"title":   "Hello2",
			"content": "World",
		}, &formFile{name: "fileA.png", data: pngBytes(t)})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		flash := flashFrom(t, w)
		assert.Equal(t, FlashUpdated, mustUnescape(t, flash.Value))

		post, err := postRepo.GetByID(1)
		require.NoError(t, err)
		assert.Equal(t, "Hello2", post.Title)
		assert.Regexp(t, `^/storage/uploads/\d+_fileA\.png$`, post.PictureURL())
		picture := post.PictureURL()

		// Without a file the picture stays.
		req = multipartRequest(t, http.MethodPost, "/posts/1", map[string]string{
			"_method": "PUT",
			"title":   "Hello3",
			"content": "World",
		}, nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusSeeOther, w.Code)

		post, err = service.GetPost(req.Context(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Hello3", post.Title)
		assert.Equal(t, picture, post.PictureURL())
	})

	t.Run("validation failure is 422", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/posts", map[string]string{
			"title": "",
		}, &formFile{name: "notes.png", data: []byte("plain text")})
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, []string{"The title field is required."}, body.Errors["title"])
		assert.Equal(t, []string{"The content field is required."}, body.Errors["content"])
		assert.Equal(t, []string{"The picture field must be an image."}, body.Errors["picture"])
		assert.Equal(t, 1, postRepo.Len())
	})

	t.Run("validation failure as text", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/posts", map[string]string{"content": "x"}, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "The title field is required.\n", w.Body.String())
	})

	t.Run("update missing post is 404", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/posts/99", map[string]string{
			"_method": "PUT",
			"title":   "Hello",
			"content": "World",
		}, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		req := multipartRequest(t, http.MethodPost, "/posts/1", map[string]string{"_method": "DELETE"}, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, FlashDeleted, mustUnescape(t, flashFrom(t, w).Value))
		assert.Equal(t, 0, postRepo.Len())

		req = httptest.NewRequest(http.MethodDelete, "/posts/1", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPostControllerAPI(t *testing.T) {
	controller, _, postRepo := setupTestPostController(t)
	router := setupRouter(controller)

	var created models.Post
	t.Run("create post", func(t *testing.T) {
		payload := `{"title": "Test Post", "content": "This is a test post content"}`
		req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotZero(t, created.ID)
		assert.Equal(t, "Test Post", created.Title)
		assert.Nil(t, created.Picture)
	})

	t.Run("get post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts/"+strconv.Itoa(created.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, created.Title, response.Title)
	})

	t.Run("show page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/"+strconv.Itoa(created.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<title>Test Post</title>")
	})

	t.Run("update post", func(t *testing.T) {
		payload := `{"title": "Updated Title", "content": "Updated content"}`
		req := httptest.NewRequest(http.MethodPut, "/api/posts/"+strconv.Itoa(created.ID), strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Updated Title", response.Title)
		assert.Equal(t, "Updated content", response.Content)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/posts/"+strconv.Itoa(created.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/posts/"+strconv.Itoa(created.ID), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)

		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Post not found", body.Message)
	})

	t.Run("store failure is 500", func(t *testing.T) {
		postRepo.FailWith = mock.ErrInjected
		defer func() { postRepo.FailWith = nil }()

		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), mock.ErrInjected.Error())
	})
}

func mustUnescape(t *testing.T, s string) string {
	t.Helper()
	out, err := url.QueryUnescape(s)
	require.NoError(t, err)
	return out
}
