package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
)

// PushConfig holds the push gateway settings.
type PushConfig struct {
	Endpoint  string
	ServerKey string
}

// PushClient sends device notifications through an HTTP push gateway. It is
// shared by the whole process: Init may be called any number of times and
// only the first successful call takes effect.
type PushClient struct {
	mu       sync.Mutex
	ready    bool
	endpoint string
	key      string
	client   *http.Client
}

// Init configures the client. Calls after a successful Init are no-ops.
func (c *PushClient) Init(cfg PushConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return nil
	}
	if cfg.Endpoint == "" || cfg.ServerKey == "" {
		return errors.New("push endpoint and server key are required")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return fmt.Errorf("parsing push endpoint: %w", err)
	}

	c.endpoint = cfg.Endpoint
	c.key = cfg.ServerKey
	c.client = &http.Client{}
	c.ready = true
	return nil
}

// Ready reports whether Init has succeeded.
func (c *PushClient) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

type pushRequest struct {
	To           string            `json:"to"`
	Notification pushNotification  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type pushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type pushResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// Send delivers msg to the device token in msg.To. Before Init it only logs.
func (c *PushClient) Send(ctx context.Context, msg Message) error {
	c.mu.Lock()
	ready, endpoint, key, client := c.ready, c.endpoint, c.key, c.client
	c.mu.Unlock()

	if !ready {
		slog.Info("push not configured, dropping message", "subject", msg.Subject)
		return nil
	}

	body, err := json.Marshal(pushRequest{
		To:           msg.To,
		Notification: pushNotification{Title: msg.Subject, Body: msg.Body},
		Data:         stringData(msg.Data),
	})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+key)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push gateway error: %s", resp.Status)
	}

	var pr pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return fmt.Errorf("decoding push response: %w", err)
	}
	if pr.Failure > 0 {
		return fmt.Errorf("push gateway rejected %d message(s)", pr.Failure)
	}
	return nil
}

// stringData flattens data values to strings, the only kind the gateway accepts.
func stringData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = fmt.Sprint(v)
	}
	return out
}
