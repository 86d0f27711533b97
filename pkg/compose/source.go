package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/httputil"
)

// ImageSource resolves a slot or overlay URI to a decoded image.
type ImageSource interface {
	Image(ctx context.Context, uri string) (image.Image, error)
}

// =============================================================================
// File Source
// =============================================================================

// FileSource loads images from the local filesystem. It accepts bare paths
// and file:// URIs.
type FileSource struct{}

// Image loads and decodes the image at the given path.
func (FileSource) Image(_ context.Context, uri string) (image.Image, error) {
	path := strings.TrimPrefix(uri, "file://")
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open image %s", path)
	}
	return img, nil
}

// =============================================================================
// HTTP Source
// =============================================================================

const fetchTimeout = 20 * time.Second

// maxImageBytes bounds a single fetched image. CDN originals top out well
// below this.
const maxImageBytes = 32 << 20

// HTTPSource fetches images over HTTP, optionally caching the raw bytes on
// disk. Enhancement outputs live on a CDN and never change for a given URL,
// so cached bytes stay valid indefinitely.
type HTTPSource struct {
	client *http.Client
	cache  *httputil.Cache
}

// NewHTTPSource creates an HTTP image source. cache may be nil to disable
// caching.
func NewHTTPSource(cache *httputil.Cache) *HTTPSource {
	return &HTTPSource{
		client: &http.Client{Timeout: fetchTimeout},
		cache:  cache,
	}
}

// Image fetches and decodes the image at url, retrying transient failures.
func (s *HTTPSource) Image(ctx context.Context, url string) (image.Image, error) {
	if s.cache != nil {
		if data, ok, _ := s.cache.Get(url); ok {
			return decode(data, url)
		}
	}

	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var ferr error
		data, ferr = s.fetch(ctx, url)
		return ferr
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "fetch image %s", url)
	}

	if s.cache != nil {
		// A failed cache write costs a refetch later, nothing more.
		_ = s.cache.Set(url, data)
	}
	return decode(data, url)
}

func (s *HTTPSource) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if httputil.RetryableStatus(resp.StatusCode) {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func decode(data []byte, uri string) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode image %s", uri)
	}
	return img, nil
}

// =============================================================================
// Memory Source
// =============================================================================

// MemorySource serves images from an in-process map. Test double.
type MemorySource struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewMemorySource creates an empty memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{images: make(map[string]image.Image)}
}

// Add registers an image under uri.
func (s *MemorySource) Add(uri string, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[uri] = img
}

// Image returns the image registered under uri.
func (s *MemorySource) Image(_ context.Context, uri string) (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[uri]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no image registered for %s", uri)
	}
	return img, nil
}

// =============================================================================
// Routing Source
// =============================================================================

// RoutingSource dispatches by URI scheme: remote http/https URIs go to
// Remote, everything else to Local.
type RoutingSource struct {
	Remote ImageSource
	Local  ImageSource
}

// NewDefaultSource returns the production routing: HTTP with the given
// cache for remote URIs, filesystem for local ones.
func NewDefaultSource(cache *httputil.Cache) *RoutingSource {
	return &RoutingSource{
		Remote: NewHTTPSource(cache),
		Local:  FileSource{},
	}
}

// Image resolves uri through the matching backend.
func (s *RoutingSource) Image(ctx context.Context, uri string) (image.Image, error) {
	if errors.IsRemoteURL(uri) {
		return s.Remote.Image(ctx, uri)
	}
	return s.Local.Image(ctx, uri)
}

var (
	_ ImageSource = (*FileSource)(nil)
	_ ImageSource = (*HTTPSource)(nil)
	_ ImageSource = (*MemorySource)(nil)
	_ ImageSource = (*RoutingSource)(nil)
)
