// Package callback delivers validation outcomes to caller-supplied URLs.
// Delivery is a single POST with no retry and no signing; the orchestrator
// treats failures as log-and-continue.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Sender struct {
	client *http.Client
}

func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{client: &http.Client{Timeout: timeout}}
}

// Send POSTs the payload as JSON to the callback URL. Non-2xx responses are
// errors so the caller can log them.
func (s *Sender) Send(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("callback marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("callback build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback post %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback post %s: unexpected status %s", url, resp.Status)
	}
	return nil
}
