package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Discord embed limits.
const (
	discordMaxTitle       = 256
	discordMaxDescription = 4096
)

const (
	colorOK     = 0x2e7d32
	colorFailed = 0xc62828
)

type discordPayload struct {
	Username        string           `json:"username,omitempty"`
	Embeds          []discordEmbed   `json:"embeds"`
	AllowedMentions *allowedMentions `json:"allowed_mentions"`
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type allowedMentions struct {
	Parse []string `json:"parse"`
}

// DiscordSender posts run reports to a Discord webhook as a single embed.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

// NewDiscordSender creates a DiscordSender for the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Send posts title and message as an embed. Titles mentioning a failure
// are coloured red. Mentions in the text are never resolved.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	color := colorOK
	if strings.Contains(strings.ToLower(title), "fail") {
		color = colorFailed
	}

	body, err := json.Marshal(discordPayload{
		Username: "cfbspreads",
		Embeds: []discordEmbed{{
			Title:       truncateRunes(title, discordMaxTitle),
			Description: truncateRunes(message, discordMaxDescription),
			Color:       color,
			Timestamp:   d.now().UTC().Format(time.RFC3339),
		}},
		AllowedMentions: &allowedMentions{Parse: []string{}},
	})
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("discord: retry after %ss: %w", resp.Header.Get("Retry-After"), domain.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
