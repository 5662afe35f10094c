package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// CheckoutSession is the slice of a Stripe checkout session the rest of
// the system cares about: whether it was paid and what it bound at
// checkout time.
type CheckoutSession struct {
	ID       string
	Paid     bool
	UploadID string
	Email    string
}

// Client wraps the Stripe API for the single-product checkout flow.
type Client struct {
	api           *client.API
	webhookSecret string
	priceCents    int64
	baseURL       string
}

func New(apiKey, webhookSecret, baseURL string, priceCents int64) *Client {
	return &Client{
		api:           client.New(apiKey, nil),
		webhookSecret: webhookSecret,
		priceCents:    priceCents,
		baseURL:       baseURL,
	}
}

// CreateCheckoutSession creates a Stripe Checkout session for one video,
// binding the upload ID and email into the session metadata so the resume
// path can recover them after payment. Returns the hosted payment URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, uploadID, email string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(c.baseURL + "/processing?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(c.baseURL + "/"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(c.priceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Santa Magic Video"),
						Description: stripe.String("A personalized video of Santa in your home!"),
					},
				},
			},
		},
		Metadata: map[string]string{
			"upload_id": uploadID,
			"email":     email,
		},
	}
	params.Context = ctx
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return session.URL, nil
}

// RetrieveSession fetches a checkout session and projects out the payment
// state and the metadata bound at checkout time. The email collected by
// Stripe Checkout wins over the one supplied at session creation.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	email := session.Metadata["email"]
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		email = session.CustomerDetails.Email
	}

	return &CheckoutSession{
		ID:       session.ID,
		Paid:     session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		UploadID: session.Metadata["upload_id"],
		Email:    email,
	}, nil
}

// VerifyWebhook checks the Stripe signature on a webhook payload and
// returns the decoded event.
func (c *Client) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, c.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return event, nil
}
