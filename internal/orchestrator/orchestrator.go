package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"santa-video-backend/internal/gemini"
	"santa-video-backend/internal/models"
	"santa-video-backend/internal/store"
)

// ErrUploadMissing is returned by ConfirmPayment when the staged upload
// for a paid session is unknown or was already evicted.
var ErrUploadMissing = errors.New("upload not found")

const (
	editInstruction = "Take this exact photograph and add a Santa Clause kneeling by the tree, he has his big bag of gifts sitting beside him, he's placing presents around the tree. We can only see him from behind. Keep everything else in the photo the same. No music, no audio, no speaking."
	videoPrompt     = "a video of santa clause placing presents under the christmas tree. He's taking gifts out of his big bag of gifts and placing them around the tree. No speaking, no audio, no music."
	sourceMimeType  = "image/jpeg"
)

// Generator is the external generation capability: edit an image, start a
// video synthesis job, poll it, and fetch the result bytes.
type Generator interface {
	EditImage(ctx context.Context, imageData []byte, mimeType, instruction string) ([]byte, error)
	StartVideo(ctx context.Context, imageData []byte, mimeType, prompt string) (string, error)
	PollOperation(ctx context.Context, operationName string) (*gemini.Operation, error)
	Download(ctx context.Context, uri string) ([]byte, error)
}

// Notifier sends the completion email.
type Notifier interface {
	SendVideoReady(ctx context.Context, to, videoURL string) error
}

// Config holds the orchestrator's pipeline parameters. The poll budget is
// the only timeout an order has: interval * attempts bounds how long a
// video job may run before the order fails.
type Config struct {
	OutputsDir      string
	BaseURL         string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Orchestrator promotes paid sessions into orders and drives each order
// through the generation pipeline in a detached goroutine. Exactly one
// goroutine per order is ever launched; after creation that goroutine is
// the order's only writer.
type Orchestrator struct {
	mu      sync.Mutex
	orders  *store.OrderStore
	uploads *store.UploadRegistry
	gen     Generator
	notify  Notifier
	cfg     Config
	logger  zerolog.Logger
}

func New(orders *store.OrderStore, uploads *store.UploadRegistry, gen Generator, notify Notifier, cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		orders:  orders,
		uploads: uploads,
		gen:     gen,
		notify:  notify,
		cfg:     cfg,
		logger:  logger,
	}
}

// ConfirmPayment handles a verified payment for a checkout session. If an
// order for the session already exists this is a no-op, so duplicate
// confirmations (page reloads, redundant webhooks) never start a second
// pipeline. Otherwise the staged upload is consumed, the order is created
// in the processing state, and the background driver is launched. Returns
// ErrUploadMissing when no staged upload matches.
func (o *Orchestrator) ConfirmPayment(sessionID, uploadID, email string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.orders.Exists(sessionID) {
		return nil
	}

	upload, ok := o.uploads.Take(uploadID)
	if !ok {
		return ErrUploadMissing
	}

	o.orders.Create(models.Order{
		SessionID: sessionID,
		Email:     email,
		PhotoPath: upload.FilePath,
		Status:    models.StatusProcessing,
		CreatedAt: time.Now(),
	})

	o.logger.Info().Str("session_id", sessionID).Str("upload_id", uploadID).Msg("order created, starting pipeline")
	go o.process(context.Background(), sessionID, upload.FilePath, email)

	return nil
}

// process is the background driver. Any fatal condition from the pipeline
// is caught here and converted into the order's terminal error state; it
// never propagates further.
func (o *Orchestrator) process(ctx context.Context, sessionID, photoPath, email string) {
	if err := o.run(ctx, sessionID, photoPath, email); err != nil {
		o.logger.Error().Err(err).Str("session_id", sessionID).Msg("pipeline failed")
		o.orders.Fail(sessionID, err.Error())
	}
}

func (o *Orchestrator) run(ctx context.Context, sessionID, photoPath, email string) error {
	// Stage 1: edit the photo.
	o.orders.SetStatus(sessionID, models.StatusAddingImageLayer)

	photoData, err := os.ReadFile(photoPath)
	if err != nil {
		return fmt.Errorf("failed to read source photo: %w", err)
	}

	editedImage, err := o.gen.EditImage(ctx, photoData, sourceMimeType, editInstruction)
	if err != nil {
		return fmt.Errorf("image edit failed: %w", err)
	}

	scenePath := filepath.Join(o.cfg.OutputsDir, sessionID+"-scene.jpg")
	if err := os.WriteFile(scenePath, editedImage, 0o644); err != nil {
		return fmt.Errorf("failed to save edited image: %w", err)
	}

	// Stage 2: animate the edited still.
	o.orders.SetStatus(sessionID, models.StatusGeneratingVideo)

	operationName, err := o.gen.StartVideo(ctx, editedImage, sourceMimeType, videoPrompt)
	if err != nil {
		return fmt.Errorf("video generation failed to start: %w", err)
	}

	op, err := o.awaitOperation(ctx, sessionID, operationName)
	if err != nil {
		return err
	}

	uri, err := op.VideoURI()
	if err != nil {
		return err
	}

	videoData, err := o.gen.Download(ctx, uri)
	if err != nil {
		return fmt.Errorf("failed to download video: %w", err)
	}

	videoPath := filepath.Join(o.cfg.OutputsDir, sessionID+"-video.mp4")
	if err := os.WriteFile(videoPath, videoData, 0o644); err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}

	videoURL := "/outputs/" + sessionID + "-video.mp4"
	o.orders.Complete(sessionID, videoURL)
	o.logger.Info().Str("session_id", sessionID).Str("video_url", videoURL).Msg("pipeline complete")

	// The order is terminal now; cleanup and notification problems are
	// logged but never demote it.
	if err := os.Remove(photoPath); err != nil {
		o.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to delete source photo")
	}

	if email != "" {
		if err := o.notify.SendVideoReady(ctx, email, o.cfg.BaseURL+videoURL); err != nil {
			o.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to send completion email")
		}
	}

	return nil
}

// awaitOperation polls the video operation at a fixed interval until it
// completes or the attempt budget runs out.
func (o *Orchestrator) awaitOperation(ctx context.Context, sessionID, operationName string) (*gemini.Operation, error) {
	for attempt := 1; attempt <= o.cfg.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.cfg.PollInterval):
		}

		op, err := o.gen.PollOperation(ctx, operationName)
		if err != nil {
			return nil, fmt.Errorf("failed to poll video operation: %w", err)
		}
		if op.Done {
			return op, nil
		}

		o.logger.Debug().Str("session_id", sessionID).Int("attempt", attempt).Msg("waiting for video")
	}

	return nil, fmt.Errorf("video generation timed out after %d attempts", o.cfg.MaxPollAttempts)
}
