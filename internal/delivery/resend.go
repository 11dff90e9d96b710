// Package delivery sends finished briefs to subscribers via the
// Resend email API.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/models"
)

const resendURL = "https://api.resend.com"

// EmailSender delivers report markdown by email.
type EmailSender struct {
	http *resty.Client
	from string
	to   []string
}

// NewEmailSender creates a Resend-backed sender. to is a comma
// separated recipient list.
func NewEmailSender(apiKey, from, to string) *EmailSender {
	var recipients []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}

	return &EmailSender{
		http: resty.New().
			SetBaseURL(resendURL).
			SetTimeout(15 * time.Second).
			SetAuthToken(apiKey),
		from: from,
		to:   recipients,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// SendBrief emails the rendered report. No recipients configured is a
// no-op, not an error.
func (s *EmailSender) SendBrief(ctx context.Context, subject string, state *models.MarketState) error {
	if len(s.to) == 0 {
		log.Debug().Msg("No email recipients configured, skipping delivery")
		return nil
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(sendRequest{
			From:    s.from,
			To:      s.to,
			Subject: fmt.Sprintf("%s (%s)", subject, state.Date),
			Text:    state.MarkdownReport,
		}).
		Post("/emails")

	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode(), resp.String())
	}

	log.Info().Str("subject", subject).Int("recipients", len(s.to)).Msg("Brief delivered")
	return nil
}
