// Package dispatch delivers qualified leads to the Discord webhook.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"leadsniper-engine/internal/domain"
	"leadsniper-engine/internal/errkind"
	"leadsniper-engine/internal/retry"
)

// Sender delivers one notification. Implementations retry internally; an
// error back means the notification was dropped for good.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

const (
	embedColorGreen  = 0x00ff00
	fieldValueMax    = 1000
	webhookUsername  = "Lead Sniper"
	webhookFooterTag = "Lead Sniper - AI Powered Lead Detection"
)

// Discord posts notifications as rich embeds to a webhook URL.
type Discord struct {
	WebhookURL string
	Client     *http.Client
	Policy     retry.Policy
}

func NewDiscord(webhookURL string, policy retry.Policy) *Discord {
	return &Discord{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
		Policy:     policy,
	}
}

// Send attempts delivery with bounded, strictly increasing backoff between
// tries. Exhausted retries come back tagged Delivery; the caller logs and
// drops, the notification is never re-queued.
func (d *Discord) Send(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(buildPayload(n))
	if err != nil {
		return errkind.Wrap(errkind.Delivery, err)
	}
	err = retry.Do(ctx, d.Policy, func() error {
		return d.post(ctx, body)
	})
	if err != nil && errkind.KindOf(err) != errkind.Delivery {
		return errkind.Wrap(errkind.Delivery, err)
	}
	return err
}

func (d *Discord) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return errkind.Wrap(errkind.Delivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return errkind.Wrap(errkind.Retryable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return errkind.Errorf(errkind.Retryable, "webhook status %s", resp.Status)
	default:
		// a 4xx is not going to fix itself on retry
		return errkind.Errorf(errkind.Delivery, "webhook status %s", resp.Status)
	}
}

func buildPayload(n domain.Notification) webhookPayload {
	e := embed{
		Title:       "High-Quality Lead Found!",
		Description: "**" + n.Title + "**",
		Color:       embedColorGreen,
		Fields: []embedField{
			{Name: "Snippet", Value: clampField(n.Snippet)},
			{Name: "Link", Value: n.URL},
			{Name: "Source", Value: n.SourceLabel, Inline: true},
			{Name: "Detected", Value: n.DetectedAt.Format("2006-01-02 15:04:05"), Inline: true},
		},
	}
	e.Footer.Text = webhookFooterTag
	return webhookPayload{Username: webhookUsername, Embeds: []embed{e}}
}

// Discord rejects field values over 1024 chars; clamp under that.
func clampField(s string) string {
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) <= fieldValueMax {
		return s
	}
	return string(r[:fieldValueMax]) + "..."
}
