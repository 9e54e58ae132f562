package handlers

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
)

//go:embed assets/index.html
var assets embed.FS

type index struct {
	page []byte
}

// newIndex renders the page once with the node events url.
func newIndex(nodeEvents string) (index, error) {
	tmpl, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return index{}, err
	}

	data := struct {
		EventsURL string
	}{
		EventsURL: nodeEvents,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return index{}, err
	}

	return index{page: buf.Bytes()}, nil
}

func (ig index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(ig.page)
	return err
}
