package handlers

import (
	"context"

	"github.com/stripe/stripe-go/v78"

	"santa-video-backend/internal/payments"
)

// PaymentProvider is the slice of the payments client the handlers need;
// tests substitute a fake.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, uploadID, email string) (string, error)
	RetrieveSession(ctx context.Context, sessionID string) (*payments.CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (stripe.Event, error)
}
