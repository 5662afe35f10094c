package handlers_test

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v78"

	"santa-video-backend/internal/payments"
)

// fakePayments scripts the payment provider for handler tests.
type fakePayments struct {
	checkoutURL string
	checkoutErr error

	sessions    map[string]*payments.CheckoutSession
	retrieveErr error

	webhookEvent stripe.Event
	webhookErr   error
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, uploadID, email string) (string, error) {
	if f.checkoutErr != nil {
		return "", f.checkoutErr
	}
	return f.checkoutURL, nil
}

func (f *fakePayments) RetrieveSession(_ context.Context, sessionID string) (*payments.CheckoutSession, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}
	return session, nil
}

func (f *fakePayments) VerifyWebhook(_ []byte, _ string) (stripe.Event, error) {
	if f.webhookErr != nil {
		return stripe.Event{}, f.webhookErr
	}
	return f.webhookEvent, nil
}
