package project

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jackhunterking/beautycanvas/pkg/compose"
	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/httputil"
	"github.com/jackhunterking/beautycanvas/pkg/observability"
	"github.com/jackhunterking/beautycanvas/pkg/slot"
	"github.com/jackhunterking/beautycanvas/pkg/storage"
)

// Session identifies the authenticated caller of a save or load. It is
// passed explicitly per call; there is no process-wide ambient session.
type Session struct {
	UserID string
	Token  string
}

// Validate rejects sessions that cannot authorize a write.
func (s Session) Validate() error {
	if s.UserID == "" || s.Token == "" {
		return errors.New(errors.ErrCodeValidation, "session requires a user id and token")
	}
	return nil
}

// SaveInput is the in-memory state to persist.
type SaveInput struct {
	ProjectID  string
	TemplateID string
	ThemeColor string
	Slots      map[string]slot.SlotData
	Overlays   []compose.Overlay
}

// Saver persists projects with upload-before-write ordering: every local
// image referenced by the slot state is uploaded to durable storage and the
// state rewritten with the returned URLs before the record is written, so a
// saved record never references a transient local path.
type Saver struct {
	repo     Repository
	uploader storage.Uploader
	logger   *log.Logger
	now      func() time.Time
}

// NewSaver creates a Saver writing records to repo and images to uploader.
func NewSaver(repo Repository, uploader storage.Uploader, logger *log.Logger) *Saver {
	if logger == nil {
		logger = log.Default()
	}
	return &Saver{repo: repo, uploader: uploader, logger: logger, now: time.Now}
}

// SetClock overrides the saver's clock. Test hook.
func (s *Saver) SetClock(now func() time.Time) { s.now = now }

// Save uploads every distinct local image exactly once, rewrites the slot
// state with remote URLs, and writes the record. Any upload failure aborts
// the whole save; objects already uploaded stay put, harmless because
// uploads are idempotent by path.
func (s *Saver) Save(ctx context.Context, sess Session, in SaveInput) (*Project, error) {
	start := s.now()

	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if in.ProjectID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "project id is required")
	}

	uploaded, err := s.uploadLocal(ctx, in.ProjectID, in.Slots)
	if err != nil {
		observability.Persistence().OnSave(ctx, in.ProjectID, len(uploaded), s.now().Sub(start), err)
		return nil, err
	}

	rewritten := rewriteSlots(in.Slots, uploaded)

	record := &Project{
		ID:         in.ProjectID,
		UserID:     sess.UserID,
		TemplateID: in.TemplateID,
		ThemeColor: in.ThemeColor,
		Slots:      rewritten,
		Overlays:   in.Overlays,
		CreatedAt:  start,
		UpdatedAt:  start,
	}
	if existing, gerr := s.repo.Get(ctx, in.ProjectID); gerr == nil {
		record.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Put(ctx, record); err != nil {
		observability.Persistence().OnSave(ctx, in.ProjectID, len(uploaded), s.now().Sub(start), err)
		return nil, err
	}

	s.logger.Info("project saved",
		"project", in.ProjectID, "slots", len(rewritten), "uploads", len(uploaded))
	observability.Persistence().OnSave(ctx, in.ProjectID, len(uploaded), s.now().Sub(start), nil)

	return record, nil
}

// Load fetches a project, migrating legacy rows into the unified slot blob.
func (s *Saver) Load(ctx context.Context, sess Session, projectID string) (*Project, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.UserID != "" && p.UserID != sess.UserID {
		return nil, errors.New(errors.ErrCodeProjectNotFound, "project %s not found", projectID)
	}

	if p.Migrate() {
		s.logger.Info("migrated legacy project row", "project", projectID, "slots", len(p.Slots))
	}
	return p, nil
}

// uploadLocal uploads every distinct non-remote URI across uri, originalUri,
// and transparentPngUrl, at most once each, and returns the local-to-remote
// mapping. Uploads run concurrently; the first failure wins and aborts.
func (s *Saver) uploadLocal(ctx context.Context, projectID string, slots map[string]slot.SlotData) (map[string]string, error) {
	distinct := make(map[string]bool)
	for _, data := range slots {
		for _, uri := range []string{data.URI, data.AI.OriginalURI, data.AI.TransparentPNGURL} {
			if uri != "" && !errors.IsRemoteURL(uri) {
				distinct[uri] = true
			}
		}
	}
	if len(distinct) == 0 {
		return map[string]string{}, nil
	}

	var (
		mu       sync.Mutex
		firstErr error
		uploaded = make(map[string]string, len(distinct))
		wg       sync.WaitGroup
	)
	for uri := range distinct {
		wg.Add(1)
		go func(uri string) {
			defer wg.Done()
			url, err := s.uploadOne(ctx, projectID, uri)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			uploaded[uri] = url
		}(uri)
	}
	wg.Wait()

	if firstErr != nil {
		return uploaded, firstErr
	}
	return uploaded, nil
}

func (s *Saver) uploadOne(ctx context.Context, projectID, uri string) (string, error) {
	start := s.now()

	data, err := os.ReadFile(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUploadFailed, err, "read local image %s", uri)
	}

	objectPath := objectPathFor(projectID, uri)

	var url string
	err = httputil.RetryWithBackoff(ctx, func() error {
		var uerr error
		url, uerr = s.uploader.Upload(ctx, data, objectPath)
		return uerr
	})
	observability.Persistence().OnUpload(ctx, objectPath, len(data), s.now().Sub(start), err)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUploadFailed, err, "upload %s", uri)
	}

	s.logger.Debug("uploaded image", "path", objectPath, "bytes", len(data))
	return url, nil
}

// objectPathFor derives a deterministic storage path from the local URI, so
// re-saving the same file overwrites the same object instead of piling up
// copies.
func objectPathFor(projectID, uri string) string {
	sum := sha256.Sum256([]byte(uri))
	name := hex.EncodeToString(sum[:8])
	if ext := path.Ext(uri); ext != "" && len(ext) <= 5 {
		name += ext
	}
	return path.Join("projects", projectID, name)
}

// rewriteSlots returns a copy of the slot state with every uploaded local
// URI replaced by its remote URL.
func rewriteSlots(slots map[string]slot.SlotData, uploaded map[string]string) map[string]slot.SlotData {
	out := make(map[string]slot.SlotData, len(slots))
	for id, data := range slots {
		if url, ok := uploaded[data.URI]; ok {
			data.URI = url
		}
		if url, ok := uploaded[data.AI.OriginalURI]; ok {
			data.AI.OriginalURI = url
		}
		if url, ok := uploaded[data.AI.TransparentPNGURL]; ok {
			data.AI.TransparentPNGURL = url
		}
		out[id] = data
	}
	return out
}
