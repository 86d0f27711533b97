package template

import (
	"context"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// FileProvider loads templates from TOML files in a directory. A template
// with id "split-before-after" is read from <dir>/split-before-after.toml.
// Files are parsed on every lookup; template files are small and editing one
// on disk should take effect without a restart.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider over the given directory.
func NewFileProvider(dir string) (*FileProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "template directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeValidation, "template path %s is not a directory", dir)
	}
	return &FileProvider{dir: dir}, nil
}

// Template reads and validates the template with the given id.
func (p *FileProvider) Template(_ context.Context, id string) (*Template, error) {
	if err := errors.ValidateSlotID(id); err != nil {
		return nil, err
	}

	path := filepath.Join(p.dir, id+".toml")
	var t Template
	if _, err := toml.DecodeFile(path, &t); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "template %q not found", id)
		}
		return nil, errors.Wrap(errors.ErrCodeValidation, err, "parse template %s", path)
	}

	if t.ID == "" {
		t.ID = id
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
