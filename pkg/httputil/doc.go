// Package httputil provides HTTP utilities shared by image fetching and
// upload code.
//
// # Overview
//
//   - [Cache]: File-based caching of fetched image bytes
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores raw response bytes in the filesystem (~/.cache/beautycanvas/)
// with configurable TTL. Remote slot images and enhancement outputs are
// fetched repeatedly during re-renders, and the bytes never change for a
// given URL, so caching them locally keeps render latency off the network.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 24*time.Hour)
//	data, ok, _ := cache.Get(url)
//	if !ok {
//	    data = fetchFromCDN(url)
//	    cache.Set(url, data)
//	}
//
// Cache keys should be namespaced by source to avoid collisions.
//
// # Retry
//
// [Retry] wraps operations with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Wrap the transient failure in [RetryableError] to opt in:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    if err := upload(); isTransient(err) {
//	        return &httputil.RetryableError{Err: err}
//	    } else {
//	        return err
//	    }
//	})
package httputil
