package project

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
	"github.com/jackhunterking/beautycanvas/pkg/geometry"
	"github.com/jackhunterking/beautycanvas/pkg/slot"
	"github.com/jackhunterking/beautycanvas/pkg/storage"
)

func writeTempImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake image bytes for "+name), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func newTestSaver(t *testing.T) (*Saver, *MemoryRepository, *storage.Memory) {
	t.Helper()
	repo := NewMemoryRepository()
	up := storage.NewMemory("https://cdn.example.com")
	return NewSaver(repo, up, log.New(io.Discard)), repo, up
}

var testSession = Session{UserID: "user-1", Token: "tok-abc"}

func TestSaveUploadsLocalImagesOnce(t *testing.T) {
	s, repo, up := newTestSaver(t)
	ctx := context.Background()

	local := writeTempImage(t, "capture.jpg")
	transparent := writeTempImage(t, "cutout.png")

	// uri and originalUri point at the same local file; it must upload once.
	in := SaveInput{
		ProjectID:  "p1",
		TemplateID: "before-after",
		Slots: map[string]slot.SlotData{
			"before": {
				URI:         local,
				Adjustments: geometry.DefaultAdjustments(),
				AI: slot.AIMetadata{
					OriginalURI:       local,
					TransparentPNGURL: transparent,
				},
			},
			"after": {
				URI:         "https://cdn.example.com/already-remote.jpg",
				Adjustments: geometry.DefaultAdjustments(),
				AI:          slot.AIMetadata{OriginalURI: "https://cdn.example.com/already-remote.jpg"},
			},
		},
	}

	saved, err := s.Save(ctx, testSession, in)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if got := up.UploadCount(); got != 2 {
		t.Errorf("UploadCount() = %d, want 2 (one per distinct local file)", got)
	}

	before := saved.Slots["before"]
	if !errors.IsRemoteURL(before.URI) {
		t.Errorf("saved URI is still local: %q", before.URI)
	}
	if before.URI != before.AI.OriginalURI {
		t.Errorf("same local file mapped to different URLs: %q vs %q", before.URI, before.AI.OriginalURI)
	}
	if !errors.IsRemoteURL(before.AI.TransparentPNGURL) {
		t.Errorf("saved TransparentPNGURL is still local: %q", before.AI.TransparentPNGURL)
	}
	if !strings.HasPrefix(before.URI, "https://cdn.example.com/projects/p1/") {
		t.Errorf("URI = %q, want under projects/p1/", before.URI)
	}

	// Remote inputs pass through untouched.
	if saved.Slots["after"].URI != "https://cdn.example.com/already-remote.jpg" {
		t.Errorf("remote URI was rewritten: %q", saved.Slots["after"].URI)
	}

	// The stored record matches what was returned.
	stored, err := repo.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Slots["before"].URI != before.URI {
		t.Errorf("stored URI = %q, want %q", stored.Slots["before"].URI, before.URI)
	}
	if stored.UserID != "user-1" {
		t.Errorf("stored UserID = %q", stored.UserID)
	}

	// The caller's input was not mutated.
	if in.Slots["before"].URI != local {
		t.Errorf("Save() mutated its input: %q", in.Slots["before"].URI)
	}
}

func TestSaveRepeatedIsIdempotentPerPath(t *testing.T) {
	s, _, up := newTestSaver(t)
	ctx := context.Background()

	local := writeTempImage(t, "capture.jpg")
	in := SaveInput{
		ProjectID: "p1",
		Slots: map[string]slot.SlotData{
			"before": {URI: local, Adjustments: geometry.DefaultAdjustments(), AI: slot.AIMetadata{OriginalURI: local}},
		},
	}

	first, err := s.Save(ctx, testSession, in)
	if err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	second, err := s.Save(ctx, testSession, in)
	if err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	// Deterministic path: the second save overwrites the same object.
	if first.Slots["before"].URI != second.Slots["before"].URI {
		t.Errorf("re-save produced a new object: %q vs %q",
			first.Slots["before"].URI, second.Slots["before"].URI)
	}
	if _, ok := up.Object(strings.TrimPrefix(first.Slots["before"].URI, "https://cdn.example.com/")); !ok {
		t.Error("uploaded object missing")
	}
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, []byte, string) (string, error) {
	return "", errors.New(errors.ErrCodeInternal, "bucket unreachable")
}

func TestSaveAbortsOnUploadFailure(t *testing.T) {
	repo := NewMemoryRepository()
	s := NewSaver(repo, failingUploader{}, log.New(io.Discard))
	ctx := context.Background()

	local := writeTempImage(t, "capture.jpg")
	_, err := s.Save(ctx, testSession, SaveInput{
		ProjectID: "p1",
		Slots: map[string]slot.SlotData{
			"before": {URI: local, Adjustments: geometry.DefaultAdjustments()},
		},
	})
	if !errors.Is(err, errors.ErrCodeUploadFailed) {
		t.Errorf("error code = %v, want UPLOAD_FAILED", errors.GetCode(err))
	}

	// The record must not have been written.
	if _, err := repo.Get(ctx, "p1"); !errors.Is(err, errors.ErrCodeProjectNotFound) {
		t.Error("record was written despite upload failure")
	}
}

func TestSaveMissingLocalFile(t *testing.T) {
	s, _, _ := newTestSaver(t)
	_, err := s.Save(context.Background(), testSession, SaveInput{
		ProjectID: "p1",
		Slots: map[string]slot.SlotData{
			"before": {URI: "/nonexistent/capture.jpg", Adjustments: geometry.DefaultAdjustments()},
		},
	})
	if !errors.Is(err, errors.ErrCodeUploadFailed) {
		t.Errorf("error code = %v, want UPLOAD_FAILED", errors.GetCode(err))
	}
}

func TestSaveValidation(t *testing.T) {
	s, _, _ := newTestSaver(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, Session{}, SaveInput{ProjectID: "p1"}); !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("empty session error = %v, want VALIDATION", errors.GetCode(err))
	}
	if _, err := s.Save(ctx, testSession, SaveInput{}); !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("empty project id error = %v, want VALIDATION", errors.GetCode(err))
	}
}

func TestSavePreservesCreatedAt(t *testing.T) {
	s, _, _ := newTestSaver(t)
	ctx := context.Background()

	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	now := t0
	s.SetClock(func() time.Time { return now })

	if _, err := s.Save(ctx, testSession, SaveInput{ProjectID: "p1"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	now = t0.Add(time.Hour)
	p, err := s.Save(ctx, testSession, SaveInput{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !p.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want original %v", p.CreatedAt, t0)
	}
	if !p.UpdatedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v, want %v", p.UpdatedAt, t0.Add(time.Hour))
	}
}

func TestLoadMigratesAndChecksOwnership(t *testing.T) {
	s, repo, _ := newTestSaver(t)
	ctx := context.Background()

	repo.Put(ctx, &Project{
		ID:     "legacy",
		UserID: "user-1",
		CapturedImageURLs: map[string]string{
			"before": "https://cdn.example.com/b.jpg",
		},
	})

	p, err := s.Load(ctx, testSession, "legacy")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Slots["before"].URI != "https://cdn.example.com/b.jpg" {
		t.Errorf("migrated slot = %+v", p.Slots["before"])
	}

	// Someone else's project reads as not found, not as forbidden.
	_, err = s.Load(ctx, Session{UserID: "user-2", Token: "tok"}, "legacy")
	if !errors.Is(err, errors.ErrCodeProjectNotFound) {
		t.Errorf("foreign project error = %v, want PROJECT_NOT_FOUND", errors.GetCode(err))
	}
}
