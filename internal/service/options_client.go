package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// OptionsProvider fetches the external game-options snapshot stored on a room at creation
type OptionsProvider interface {
	FetchGameOptions(ctx context.Context) (json.RawMessage, error)
}

// OptionsClient reads game options from the settings API
type OptionsClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

func NewOptionsClient(baseURL, token string) *OptionsClient {
	return &OptionsClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

type optionsResponse struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// FetchGameOptions GETs <base>?queryId=game-settings and returns its data field
func (c *OptionsClient) FetchGameOptions(ctx context.Context) (json.RawMessage, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid options url: %w", err)
	}
	q := u.Query()
	q.Set("queryId", "game-settings")
	u.RawQuery = q.Encode()

	body, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var resp optionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode game options: %w", err)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		if resp.Message != "" {
			return nil, errors.New(resp.Message)
		}
		return nil, errors.New("game options response has no data")
	}
	return resp.Data, nil
}

func (c *OptionsClient) doRequest(ctx context.Context, target string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(math.Pow(2, float64(attempt-1)))
			log.Debug().Int("attempt", attempt).Dur("wait", wait).Msg("retrying game options fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("game options request failed")
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("options API returned %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("options API error %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}

	log.Error().Err(lastErr).Int("retries", c.maxRetries).Msg("game options fetch gave up")
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// StaticOptions serves a fixed blob; used when no settings API is configured
type StaticOptions json.RawMessage

func (s StaticOptions) FetchGameOptions(context.Context) (json.RawMessage, error) {
	if len(s) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(s), nil
}
