package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"santa-video-backend/internal/models"
)

// UploadRegistry holds photos staged before payment, keyed by an opaque
// upload ID. Entries older than the TTL are evicted together with their
// files; the sweep runs opportunistically on every Stage call.
type UploadRegistry struct {
	mu      sync.Mutex
	uploads map[string]models.PendingUpload
	dir     string
	ttl     time.Duration
	logger  zerolog.Logger
}

func NewUploadRegistry(dir string, ttl time.Duration, logger zerolog.Logger) *UploadRegistry {
	return &UploadRegistry{
		uploads: make(map[string]models.PendingUpload),
		dir:     dir,
		ttl:     ttl,
		logger:  logger,
	}
}

// Stage writes the image to the uploads directory and registers it under a
// fresh upload ID.
func (r *UploadRegistry) Stage(data []byte, originalName string) (string, error) {
	id := "upload_" + uuid.New().String()

	path := filepath.Join(r.dir, id)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write staged upload: %w", err)
	}

	r.mu.Lock()
	r.uploads[id] = models.PendingUpload{
		ID:           id,
		FilePath:     path,
		OriginalName: originalName,
		CreatedAt:    time.Now(),
	}
	r.mu.Unlock()

	r.Sweep(time.Now())

	return id, nil
}

// Take removes and returns the staged upload. A miss is a normal condition:
// the entry may have been swept or already promoted into an order.
func (r *UploadRegistry) Take(id string) (models.PendingUpload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	upload, ok := r.uploads[id]
	if !ok {
		return models.PendingUpload{}, false
	}
	delete(r.uploads, id)
	return upload, true
}

// Has reports whether the upload is currently staged without consuming it.
func (r *UploadRegistry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.uploads[id]
	return ok
}

// Sweep evicts every entry created before now minus the TTL and deletes its
// file. A failed deletion is logged and does not stop the sweep.
func (r *UploadRegistry) Sweep(now time.Time) {
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, upload := range r.uploads {
		if upload.CreatedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(upload.FilePath); err != nil {
			r.logger.Warn().Err(err).Str("upload_id", id).Msg("failed to delete expired upload")
		}
		delete(r.uploads, id)
	}
}

// Len returns the number of currently staged uploads.
func (r *UploadRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.uploads)
}
