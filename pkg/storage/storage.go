// Package storage abstracts the durable object store that holds uploaded
// photos and enhancement outputs.
//
// Uploads are idempotent by path: writing the same path twice overwrites the
// object and returns the same URL. This is what makes re-saving a project
// safe — a second save of an unchanged local capture lands on the same
// object instead of accumulating duplicates.
//
// Two backends ship with the core:
//   - Dir: a local directory served under a base URL, for the CLI and
//     development
//   - Memory: an in-process map, for tests
package storage

import "context"

// Uploader writes bytes to durable storage and returns the public URL of the
// stored object. Implementations must overwrite idempotently by path.
type Uploader interface {
	Upload(ctx context.Context, data []byte, path string) (url string, err error)
}
