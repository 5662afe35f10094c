package models

import "time"

// Status is the lifecycle state of an order. Transitions are strictly
// sequential: processing -> adding_image_layer -> generating_video ->
// complete | error. complete and error are terminal.
type Status string

const (
	StatusProcessing       Status = "processing"
	StatusAddingImageLayer Status = "adding_image_layer"
	StatusGeneratingVideo  Status = "generating_video"
	StatusComplete         Status = "complete"
	StatusError            Status = "error"
)

// Order is one paid request through the generation pipeline, keyed by the
// Stripe checkout session ID. After creation only the order's background
// driver mutates it.
type Order struct {
	SessionID    string
	Email        string
	PhotoPath    string
	Status       Status
	VideoURL     string
	ErrorMessage string
	CreatedAt    time.Time
}

// PendingUpload is a photo staged before payment. It lives until it is
// promoted into an Order or evicted by the registry sweep.
type PendingUpload struct {
	ID           string
	FilePath     string
	OriginalName string
	CreatedAt    time.Time
}
