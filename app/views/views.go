// Package views holds the server rendered pages.
package views

import (
	"embed"
	"html/template"
	"io"

	"postboard/app/models"
)

//go:embed layout.html posts/*.html
var files embed.FS

// FormData feeds the post_form template. A nil Post renders the create form.
type FormData struct {
	Post *models.Post
}

var funcs = template.FuncMap{
	"formFor": func(p *models.Post) FormData { return FormData{Post: p} },
}

// Templates maps page names to parsed templates.
type Templates map[string]*template.Template

// Load parses every page with the shared layout and form partial.
func Load() (Templates, error) {
	pages := map[string]string{
		"index": "posts/index.html",
		"show":  "posts/show.html",
	}
	templates := make(Templates, len(pages))
	for name, page := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "layout.html", "posts/form.html", page)
		if err != nil {
			return nil, err
		}
		templates[name] = t
	}
	return templates, nil
}

// MustLoad is Load for package initialisation.
func MustLoad() Templates {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the named page inside the layout.
func (t Templates) Render(w io.Writer, name string, data interface{}) error {
	return t[name].ExecuteTemplate(w, "layout", data)
}
