package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// Dir stores objects as files under a root directory and maps them to URLs
// under a base URL. Writes go through a temp file and rename, so a crashed
// upload never leaves a half-written object at a served path.
type Dir struct {
	root    string
	baseURL string
}

// NewDir creates a directory-backed uploader. The root directory is created
// if it doesn't exist. baseURL is the URL prefix objects are served under,
// without a trailing slash.
func NewDir(root, baseURL string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUploadFailed, err, "create storage root %s", root)
	}
	return &Dir{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload writes data to root/path and returns baseURL/path.
func (d *Dir) Upload(ctx context.Context, data []byte, path string) (string, error) {
	if err := errors.ValidateStoragePath(path); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(d.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeUploadFailed, err, "create directory for %s", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUploadFailed, err, "stage upload for %s", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrCodeUploadFailed, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrCodeUploadFailed, err, "close %s", path)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrCodeUploadFailed, err, "commit %s", path)
	}

	return d.baseURL + "/" + path, nil
}

var _ Uploader = (*Dir)(nil)
