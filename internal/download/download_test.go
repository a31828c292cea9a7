package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newFileServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/videos/"):
			_, _ = w.Write([]byte("payload:" + r.URL.Path))
		case r.URL.Path == "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAll(t *testing.T) {
	srv := newFileServer(t)
	dir := t.TempDir()
	fetcher, err := NewFetcher(dir, WithConcurrency(2))
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	paths, err := fetcher.FetchAll(context.Background(), []string{
		srv.URL + "/videos/intro.mp4",
		srv.URL + "/videos/lesson-2.mp4",
	})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}
	if filepath.Base(paths[0]) != "intro.mp4" {
		t.Fatalf("unexpected local name: %s", paths[0])
	}
	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "payload:/videos/lesson-2.mp4" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestFetchAllKeepsSameNamedFilesApart(t *testing.T) {
	srv := newFileServer(t)
	dir := t.TempDir()
	fetcher, err := NewFetcher(dir)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	paths, err := fetcher.FetchAll(context.Background(), []string{
		srv.URL + "/videos/a/clip.mp4",
		srv.URL + "/videos/b/clip.mp4",
	})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if paths[0] == paths[1] {
		t.Fatalf("colliding basenames mapped to one file: %s", paths[0])
	}
	contents := map[string]bool{}
	for _, p := range paths {
		if ext := filepath.Ext(p); ext != ".mp4" {
			t.Fatalf("extension lost in disambiguation: %s", p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		contents[string(data)] = true
	}
	if !contents["payload:/videos/a/clip.mp4"] || !contents["payload:/videos/b/clip.mp4"] {
		t.Fatalf("payloads lost or overwritten: %v", contents)
	}
}

func TestFetchAllFailsFast(t *testing.T) {
	srv := newFileServer(t)
	fetcher, err := NewFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	if _, err := fetcher.FetchAll(context.Background(), []string{
		srv.URL + "/videos/ok.mp4",
		srv.URL + "/missing",
	}); err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestFetchAllValidation(t *testing.T) {
	fetcher, err := NewFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	if _, err := fetcher.FetchAll(context.Background(), nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty batch, got %v", err)
	}
	if _, err := fetcher.FetchAll(context.Background(), []string{"::not-a-url"}); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}

func TestNewFetcherRequiresDir(t *testing.T) {
	if _, err := NewFetcher("   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
