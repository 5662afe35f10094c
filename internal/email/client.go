package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Client sends transactional email through Resend.
type Client struct {
	resend *resend.Client
	from   string
}

func NewClient(apiKey, from string) *Client {
	return &Client{
		resend: resend.NewClient(apiKey),
		from:   from,
	}
}

// SendVideoReady emails the customer a link to their finished video.
func (c *Client) SendVideoReady(ctx context.Context, to, videoURL string) error {
	body, err := RenderVideoReadyHTML(videoURL)
	if err != nil {
		return fmt.Errorf("failed to render email body: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: "Your Santa Magic Video is Ready!",
		Html:    body,
	}

	if _, err := c.resend.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
