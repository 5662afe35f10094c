package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type UploadResponse struct {
	Success  bool   `json:"success"`
	UploadID string `json:"upload_id"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type StatusResponse struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
