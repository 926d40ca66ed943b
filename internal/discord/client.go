package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultAPIBase = "https://discord.com/api/v10"

// DefaultResultOptions are the four selectable ratings offered on every
// announcement, in button order.
var DefaultResultOptions = []string{"pretty", "cute", "average", "ugly"}

// Client talks to the Discord REST API with a bot credential. It covers the
// two calls the service needs: announcing a new request to the review
// channel and replying to text commands.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	reviewChannel string
	options       []string
	logger        zerolog.Logger
}

func NewClient(token, reviewChannel string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		baseURL:       defaultAPIBase,
		token:         token,
		reviewChannel: reviewChannel,
		options:       DefaultResultOptions,
		logger:        logger.With().Str("component", "discord-client").Logger(),
	}
}

// WithBaseURL points the client at a different API root. Tests use it to
// target an httptest server.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

type messagePayload struct {
	Content          string            `json:"content"`
	Components       json.RawMessage   `json:"components,omitempty"`
	MessageReference *messageReference `json:"message_reference,omitempty"`
}

type messageReference struct {
	MessageID string `json:"message_id"`
}

// Announce posts a new evaluation request to the review channel: the image
// as an attachment, one row of rating buttons, and the equivalent command
// spelled out for reviewers who prefer typing. One attempt, no retry; the
// caller decides what a failure means.
func (c *Client) Announce(ctx context.Context, requestID string, image []byte, filename string) error {
	content := fmt.Sprintf("new photo review request `%s`. rate with the buttons below or type: `%s %s <result>`",
		requestID, CommandPrefix, requestID)
	payload := messagePayload{
		Content:    content,
		Components: ratingRow(requestID, c.options),
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("payload_json", string(payloadJSON)); err != nil {
		return err
	}
	fw, err := mw.CreateFormFile("files[0]", filename)
	if err != nil {
		return err
	}
	if _, err := fw.Write(image); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, c.reviewChannel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req)
}

// CreateMessage sends a plain channel message, optionally as a reply to an
// existing message.
func (c *Client) CreateMessage(ctx context.Context, channelID, content, replyToID string) error {
	payload := messagePayload{Content: content}
	if replyToID != "" {
		payload.MessageReference = &messageReference{MessageID: replyToID}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord api %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, snippet)
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
