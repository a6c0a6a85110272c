package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
)

// maxResponseBytes caps the body read from a completion response.
const maxResponseBytes = 8 << 20

// probe checks that a request/response endpoint is reachable and accepts the credential.
func (c *Client) probe(ctx context.Context, cfg domain.ServerConfig) error {
	resp, err := c.post(ctx, cfg.URL+pathProbe, probeRequest{APIKey: cfg.APIKey})
	if err != nil {
		return fmt.Errorf("%w: probe %s: %v", domain.ErrConnection, cfg.URL, err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: probe returned %s", domain.ErrAuthFailed, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: probe returned %s", domain.ErrConnection, resp.Status)
	}
	return nil
}

// completeHTTP posts one completion request, bounded by the prompt timeout.
func (c *Client) completeHTTP(ctx context.Context, cfg domain.ServerConfig, env completionEnvelope) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.promptTimeout)
	defer cancel()

	resp, err := c.post(reqCtx, cfg.URL+pathCompletions, httpCompletionRequest{
		completionEnvelope: env,
		APIKey:             cfg.APIKey,
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: completion after %s", domain.ErrTimeout, c.promptTimeout)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	defer drain(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read completion: %v", domain.ErrConnection, err)
	}

	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return "", &domain.RemoteError{Message: fmt.Sprintf("%s (HTTP %d)", payload.Error, resp.StatusCode)}
		}
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			return "", fmt.Errorf("%w: completion returned %s", domain.ErrConnection, resp.Status)
		}
		return "", fmt.Errorf("%w: completion returned %s: %s", domain.ErrConnection, resp.Status, detail)
	}

	return decodeCompletion(body)
}

func (c *Client) post(ctx context.Context, url string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
}
