package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender creates a sender. baseURL is only set to point at a test
// server.
func NewResendSender(apiKey, baseURL string) (*ResendSender, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key missing; set RESEND_API_KEY or email.api_key")
	}
	client := resend.NewClient(apiKey)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse email base url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendSender{client: client}, nil
}

func (s *ResendSender) Send(ctx context.Context, e Email) (string, error) {
	resp, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.From,
		To:      e.To,
		Subject: e.Subject,
		Html:    e.HTML,
	})
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}

// LogSender writes emails to the log instead of delivering them. It backs
// the offline "log" provider.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(_ context.Context, e Email) (string, error) {
	s.Log.Info().
		Str("from", e.From).
		Strs("to", e.To).
		Str("subject", e.Subject).
		Int("html_bytes", len(e.HTML)).
		Msg("email not delivered (log provider)")
	return "logged", nil
}
