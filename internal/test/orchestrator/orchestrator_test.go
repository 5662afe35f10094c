package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa-video-backend/internal/gemini"
	"santa-video-backend/internal/models"
	"santa-video-backend/internal/orchestrator"
	"santa-video-backend/internal/store"
)

// fakeGenerator scripts the external generation capability. By default it
// succeeds: one edited image, one operation that completes after
// pollsUntilDone polls, one downloadable video.
type fakeGenerator struct {
	mu sync.Mutex

	editErr        error
	startErr       error
	pollErr        error
	pollsUntilDone int
	neverDone      bool
	omitVideoURI   bool

	editCalls  int
	startCalls int
	pollCalls  int
}

func (g *fakeGenerator) EditImage(_ context.Context, _ []byte, _, _ string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.editCalls++
	if g.editErr != nil {
		return nil, g.editErr
	}
	return []byte("edited-image"), nil
}

func (g *fakeGenerator) StartVideo(_ context.Context, _ []byte, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startCalls++
	if g.startErr != nil {
		return "", g.startErr
	}
	return "models/veo/operations/op-1", nil
}

func (g *fakeGenerator) PollOperation(_ context.Context, name string) (*gemini.Operation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pollCalls++
	if g.pollErr != nil {
		return nil, g.pollErr
	}
	if g.neverDone || g.pollCalls < g.pollsUntilDone {
		return &gemini.Operation{Name: name, Done: false}, nil
	}

	response := `{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://videos.example/v/1"}}]}}`
	if g.omitVideoURI {
		response = `{"generateVideoResponse":{"generatedSamples":[]}}`
	}
	return &gemini.Operation{
		Name:     name,
		Done:     true,
		Response: json.RawMessage(response),
	}, nil
}

func (g *fakeGenerator) Download(_ context.Context, _ string) ([]byte, error) {
	return []byte("video-bytes"), nil
}

func (g *fakeGenerator) counts() (edits, starts int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.editCalls, g.startCalls
}

type notification struct {
	To       string
	VideoURL string
}

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	calls []notification
}

func (n *fakeNotifier) SendVideoReady(_ context.Context, to, videoURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{To: to, VideoURL: videoURL})
	return n.err
}

func (n *fakeNotifier) sent() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.calls...)
}

type fixture struct {
	orders     *store.OrderStore
	registry   *store.UploadRegistry
	gen        *fakeGenerator
	notifier   *fakeNotifier
	orch       *orchestrator.Orchestrator
	outputsDir string
}

func newFixture(t *testing.T, gen *fakeGenerator) *fixture {
	t.Helper()

	orders := store.NewOrderStore()
	registry := store.NewUploadRegistry(t.TempDir(), time.Hour, zerolog.Nop())
	notifier := &fakeNotifier{}
	outputsDir := t.TempDir()

	orch := orchestrator.New(orders, registry, gen, notifier, orchestrator.Config{
		OutputsDir:      outputsDir,
		BaseURL:         "http://localhost:3000",
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 5,
	}, zerolog.Nop())

	return &fixture{
		orders:     orders,
		registry:   registry,
		gen:        gen,
		notifier:   notifier,
		orch:       orch,
		outputsDir: outputsDir,
	}
}

func (f *fixture) stage(t *testing.T) string {
	t.Helper()
	uploadID, err := f.registry.Stage([]byte("source-photo"), "room.jpg")
	require.NoError(t, err)
	return uploadID
}

func (f *fixture) awaitTerminal(t *testing.T, sessionID string) models.Order {
	t.Helper()
	var order models.Order
	require.Eventually(t, func() bool {
		var ok bool
		order, ok = f.orders.Get(sessionID)
		return ok && (order.Status == models.StatusComplete || order.Status == models.StatusError)
	}, 5*time.Second, time.Millisecond, "order never reached a terminal state")
	return order
}

func TestConfirmPayment_EndToEnd(t *testing.T) {
	f := newFixture(t, &fakeGenerator{pollsUntilDone: 2})
	uploadID := f.stage(t)

	require.NoError(t, f.orch.ConfirmPayment("cs_e2e", uploadID, "e@x.com"))

	order := f.awaitTerminal(t, "cs_e2e")
	assert.Equal(t, models.StatusComplete, order.Status)
	assert.Contains(t, order.VideoURL, "cs_e2e")
	assert.Empty(t, order.ErrorMessage)

	videoData, err := os.ReadFile(filepath.Join(f.outputsDir, "cs_e2e-video.mp4"))
	require.NoError(t, err)
	assert.Equal(t, []byte("video-bytes"), videoData)

	sceneData, err := os.ReadFile(filepath.Join(f.outputsDir, "cs_e2e-scene.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("edited-image"), sceneData)

	require.Eventually(t, func() bool {
		return len(f.notifier.sent()) == 1
	}, 5*time.Second, time.Millisecond)
	sent := f.notifier.sent()[0]
	assert.Equal(t, "e@x.com", sent.To)
	assert.Contains(t, sent.VideoURL, order.VideoURL)
}

func TestConfirmPayment_CleansUpSourcePhoto(t *testing.T) {
	f := newFixture(t, &fakeGenerator{pollsUntilDone: 1})
	uploadID := f.stage(t)

	// Snapshot the staged path before it is consumed.
	require.True(t, f.registry.Has(uploadID))
	require.NoError(t, f.orch.ConfirmPayment("cs_clean", uploadID, ""))

	order := f.awaitTerminal(t, "cs_clean")
	require.Equal(t, models.StatusComplete, order.Status)

	require.Eventually(t, func() bool {
		_, err := os.Stat(order.PhotoPath)
		return os.IsNotExist(err)
	}, 5*time.Second, time.Millisecond, "source photo should be deleted after completion")

	assert.Empty(t, f.notifier.sent(), "no email without an address")
}

func TestConfirmPayment_Idempotent(t *testing.T) {
	f := newFixture(t, &fakeGenerator{pollsUntilDone: 1})
	uploadID := f.stage(t)

	require.NoError(t, f.orch.ConfirmPayment("cs_dup", uploadID, "e@x.com"))
	require.NoError(t, f.orch.ConfirmPayment("cs_dup", uploadID, "e@x.com"), "repeated confirmation must be a no-op")

	order := f.awaitTerminal(t, "cs_dup")
	assert.Equal(t, models.StatusComplete, order.Status)

	edits, starts := f.gen.counts()
	assert.Equal(t, 1, edits, "exactly one pipeline may run per session")
	assert.Equal(t, 1, starts)
	assert.Len(t, f.notifier.sent(), 1)
}

func TestConfirmPayment_ConcurrentConfirmations(t *testing.T) {
	f := newFixture(t, &fakeGenerator{pollsUntilDone: 1})
	uploadID := f.stage(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.orch.ConfirmPayment("cs_race", uploadID, "e@x.com")
		}()
	}
	wg.Wait()

	order := f.awaitTerminal(t, "cs_race")
	assert.Equal(t, models.StatusComplete, order.Status)

	edits, _ := f.gen.counts()
	assert.Equal(t, 1, edits, "concurrent confirmations must launch exactly one pipeline")
}

func TestConfirmPayment_UploadMissing(t *testing.T) {
	f := newFixture(t, &fakeGenerator{pollsUntilDone: 1})

	err := f.orch.ConfirmPayment("cs_gone", "upload_unknown", "e@x.com")
	require.ErrorIs(t, err, orchestrator.ErrUploadMissing)
	assert.False(t, f.orders.Exists("cs_gone"), "no order may be created without a staged upload")

	edits, starts := f.gen.counts()
	assert.Zero(t, edits)
	assert.Zero(t, starts)
}

func TestPipeline_EditArtifactMissing(t *testing.T) {
	gen := &fakeGenerator{editErr: errors.New("no image data in generation response")}
	f := newFixture(t, gen)
	uploadID := f.stage(t)

	require.NoError(t, f.orch.ConfirmPayment("cs_noimg", uploadID, "e@x.com"))

	order := f.awaitTerminal(t, "cs_noimg")
	assert.Equal(t, models.StatusError, order.Status)
	assert.Contains(t, order.ErrorMessage, "no image data")

	_, starts := gen.counts()
	assert.Zero(t, starts, "video stage must not run after a failed edit")
	assert.Empty(t, f.notifier.sent())
}

func TestPipeline_PollTimeout(t *testing.T) {
	f := newFixture(t, &fakeGenerator{neverDone: true})
	uploadID := f.stage(t)

	require.NoError(t, f.orch.ConfirmPayment("cs_slow", uploadID, ""))

	order := f.awaitTerminal(t, "cs_slow")
	assert.Equal(t, models.StatusError, order.Status)
	assert.Contains(t, order.ErrorMessage, "timed out")
}

func TestPipeline_MissingVideoURI(t *testing.T) {
	f := newFixture(t, &fakeGenerator{pollsUntilDone: 1, omitVideoURI: true})
	uploadID := f.stage(t)

	require.NoError(t, f.orch.ConfirmPayment("cs_nouri", uploadID, ""))

	order := f.awaitTerminal(t, "cs_nouri")
	assert.Equal(t, models.StatusError, order.Status)
	assert.Contains(t, order.ErrorMessage, "no video URI")
}

func TestPipeline_NotificationFailureKeepsOrderComplete(t *testing.T) {
	f := newFixture(t, &fakeGenerator{pollsUntilDone: 1})
	f.notifier.err = errors.New("smtp down")
	uploadID := f.stage(t)

	require.NoError(t, f.orch.ConfirmPayment("cs_mail", uploadID, "e@x.com"))

	order := f.awaitTerminal(t, "cs_mail")
	assert.Equal(t, models.StatusComplete, order.Status)
	assert.Empty(t, order.ErrorMessage)
}

func TestPipeline_StatusSequenceIsLegal(t *testing.T) {
	f := newFixture(t, &fakeGenerator{pollsUntilDone: 3})
	uploadID := f.stage(t)

	legal := map[models.Status]int{
		models.StatusProcessing:       0,
		models.StatusAddingImageLayer: 1,
		models.StatusGeneratingVideo:  2,
		models.StatusComplete:         3,
		models.StatusError:            3,
	}

	require.NoError(t, f.orch.ConfirmPayment("cs_seq", uploadID, ""))

	// Poll concurrently with the driver; every observed status must be in
	// the defined sequence and never move backwards.
	var observed []models.Status
	require.Eventually(t, func() bool {
		order, ok := f.orders.Get("cs_seq")
		if !ok {
			return false
		}
		observed = append(observed, order.Status)
		return order.Status == models.StatusComplete || order.Status == models.StatusError
	}, 5*time.Second, time.Millisecond)

	prev := -1
	for _, status := range observed {
		rank, ok := legal[status]
		require.True(t, ok, "observed undefined status %q", status)
		require.GreaterOrEqual(t, rank, prev, "status moved backwards: %v", observed)
		prev = rank
	}
	assert.Equal(t, models.StatusComplete, observed[len(observed)-1])
}
