package models

type CheckoutRequest struct {
	UploadID string `json:"upload_id" binding:"required"`
	// Optional; also collected by Stripe Checkout if left empty.
	Email string `json:"email,omitempty"`
}
