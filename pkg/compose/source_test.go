package compose

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/httputil"
)

func pngBytes(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(4, 4, c)); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, pngBytes(t, red), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	src := FileSource{}
	for _, uri := range []string{path, "file://" + path} {
		img, err := src.Image(context.Background(), uri)
		if err != nil {
			t.Fatalf("Image(%q) error = %v", uri, err)
		}
		if img.Bounds().Dx() != 4 {
			t.Errorf("Image(%q) width = %d, want 4", uri, img.Bounds().Dx())
		}
	}

	_, err := src.Image(context.Background(), filepath.Join(dir, "missing.png"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file error = %v, want NOT_FOUND", errors.GetCode(err))
	}
}

func TestHTTPSourceCachesBytes(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(pngBytes(t, green))
	}))
	defer srv.Close()

	cache, err := httputil.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	src := NewHTTPSource(cache)

	for i := 0; i < 3; i++ {
		img, err := src.Image(context.Background(), srv.URL+"/a.png")
		if err != nil {
			t.Fatalf("Image() error = %v", err)
		}
		if img.Bounds().Dx() != 4 {
			t.Errorf("width = %d, want 4", img.Bounds().Dx())
		}
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1 (cache misses)", got)
	}
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Write(pngBytes(t, blue))
	}))
	defer srv.Close()

	src := NewHTTPSource(nil)
	if _, err := src.Image(context.Background(), srv.URL+"/b.png"); err != nil {
		t.Fatalf("Image() error = %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestHTTPSourceDoesNotRetryNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(nil)
	_, err := src.Image(context.Background(), srv.URL+"/gone.png")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", errors.GetCode(err))
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1 (no retry on 404)", got)
	}
}

func TestRoutingSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, red))
	}))
	defer srv.Close()

	dir := t.TempDir()
	local := filepath.Join(dir, "local.png")
	os.WriteFile(local, pngBytes(t, green), 0o644)

	src := NewDefaultSource(nil)

	if _, err := src.Image(context.Background(), srv.URL+"/r.png"); err != nil {
		t.Errorf("remote route error = %v", err)
	}
	if _, err := src.Image(context.Background(), local); err != nil {
		t.Errorf("local route error = %v", err)
	}
}
