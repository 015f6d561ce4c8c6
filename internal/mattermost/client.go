// Package mattermost provides webhook client for sending notifications to Mattermost.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/paddockpicks/paddock/internal/config"
	prommetrics "github.com/paddockpicks/paddock/internal/metrics"
	"github.com/paddockpicks/paddock/pkg/logger"
)

const botName = "Paddock Picks"

// Client handles Mattermost webhook notifications.
type Client struct {
	webhookURL string
	channel    string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new Mattermost client.
func NewClient(cfg *config.MattermostConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Message represents a Mattermost message payload.
type Message struct {
	Channel     string       `json:"channel,omitempty"`
	Username    string       `json:"username,omitempty"`
	Text        string       `json:"text,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a message attachment.
type Attachment struct {
	Fallback string  `json:"fallback,omitempty"`
	Color    string  `json:"color,omitempty"`
	Pretext  string  `json:"pretext,omitempty"`
	Title    string  `json:"title,omitempty"`
	Text     string  `json:"text,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
	Footer   string  `json:"footer,omitempty"`
}

// Field represents a message field.
type Field struct {
	Short bool   `json:"short"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// SendMessage sends a message to Mattermost.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	if !c.enabled {
		c.log.Debug().Msg("Mattermost is disabled, skipping message")
		return nil
	}

	if msg.Channel == "" {
		msg.Channel = c.channel
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Mattermost: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mattermost returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("channel", msg.Channel).
		Msg("Sent message to Mattermost")

	return nil
}

// ScoringSummary is what gets announced once an event has been scored.
type ScoringSummary struct {
	EventID       uint
	EventName     string
	Kind          string
	Scored        int
	Skipped       int
	Failed        int
	BadgesGranted int
	TopScorers    []Scorer
}

// Scorer is one line of the announcement podium.
type Scorer struct {
	Username string
	Points   int
}

// AnnounceScoring posts the summary of a scored event.
func (c *Client) AnnounceScoring(ctx context.Context, summary ScoringSummary) error {
	if !c.enabled {
		prommetrics.RecordAnnouncement("disabled")
		return nil
	}

	err := c.SendMessage(ctx, FormatScoringSummary(summary))
	if err != nil {
		prommetrics.RecordAnnouncement("error")
		return err
	}
	prommetrics.RecordAnnouncement("sent")
	return nil
}

// FormatScoringSummary renders the announcement message.
func FormatScoringSummary(summary ScoringSummary) *Message {
	title := fmt.Sprintf("🏁 %s has been scored", summary.EventName)
	if summary.Kind == "bonus" {
		title = fmt.Sprintf("❓ %s bonus questions have been scored", summary.EventName)
	}

	var text strings.Builder
	if len(summary.TopScorers) > 0 {
		medals := []string{"🥇", "🥈", "🥉"}
		for i, s := range summary.TopScorers {
			icon := "•"
			if i < len(medals) {
				icon = medals[i]
			}
			fmt.Fprintf(&text, "%s @%s: **%d** pts\n", icon, s.Username, s.Points)
		}
	} else {
		text.WriteString("_No submissions were scored._\n")
	}

	color := "#2eb886"
	if summary.Failed > 0 {
		color = "#daa038"
	}

	fields := []Field{
		{Short: true, Title: "Scored", Value: fmt.Sprintf("%d", summary.Scored)},
		{Short: true, Title: "Skipped", Value: fmt.Sprintf("%d", summary.Skipped)},
		{Short: true, Title: "Failed", Value: fmt.Sprintf("%d", summary.Failed)},
	}
	if summary.Kind != "bonus" {
		fields = append(fields, Field{Short: true, Title: "Badges", Value: fmt.Sprintf("%d", summary.BadgesGranted)})
	}

	return &Message{
		Username: botName,
		Attachments: []Attachment{{
			Fallback: title,
			Color:    color,
			Title:    title,
			Text:     text.String(),
			Fields:   fields,
			Footer:   fmt.Sprintf("event #%d", summary.EventID),
		}},
	}
}
