package routes

import (
	"net/http"
	"strings"

	"postboard/app/controllers"
	"postboard/app/middleware"
	"postboard/app/storage"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// SetupRoutes builds the web and API routes for posts. Blob stores that can
// serve their own files are mounted at their public prefix. The returned
// handler carries the global middleware; maxBody <= 0 disables the body cap.
func SetupRoutes(postController *controllers.PostController, blobs storage.BlobStore, maxBody int64) http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Not found"})
			return
		}
		http.NotFound(w, r)
	})

	// Uploaded pictures
	if server, ok := blobs.(storage.Server); ok {
		router.PathPrefix(server.PublicPrefix()+"/").Handler(server.Handler()).Methods("GET", "HEAD")
	}

	// Web routes
	router.Handle("/", http.RedirectHandler("/posts", http.StatusFound)).Methods("GET")

	posts := router.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}", postController.Update).Methods("PUT", "PATCH")
	posts.HandleFunc("/{id:[0-9]+}", postController.Delete).Methods("DELETE")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	apiPosts := api.PathPrefix("/posts").Subrouter()
	apiPosts.HandleFunc("", postController.Index).Methods("GET")
	apiPosts.HandleFunc("", postController.Create).Methods("POST")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.Update).Methods("PUT", "PATCH")
	apiPosts.HandleFunc("/{id:[0-9]+}", postController.Delete).Methods("DELETE")

	var handler http.Handler = middleware.MethodOverride(router)
	if maxBody > 0 {
		handler = middleware.LimitBody(maxBody)(handler)
	}
	return middleware.RequestID(middleware.Logger(middleware.Recoverer(handler)))
}
