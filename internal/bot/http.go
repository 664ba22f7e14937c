package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"supportchat/internal/domain"
)

// HTTP asks an external text-generation service for a reply. The request
// carries the pending participant messages; the service answers with a
// single reply string. Any transport or protocol failure is surfaced to
// the responder, which substitutes its fallback text.
type HTTP struct {
	url    string
	client *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Messages []generateMessage `json:"messages"`
}

type generateMessage struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

type generateResponse struct {
	Reply string `json:"reply"`
}

func (h *HTTP) Reply(ctx context.Context, tail []*domain.Message) (string, error) {
	payload := generateRequest{Messages: make([]generateMessage, 0, len(tail))}
	for _, m := range tail {
		payload.Messages = append(payload.Messages, generateMessage{
			Author: string(m.Author),
			Body:   m.Body,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Reply == "" {
		return "", fmt.Errorf("generator returned empty reply")
	}
	return out.Reply, nil
}
