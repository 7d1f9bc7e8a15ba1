package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultBase = "https://api.resend.com"

type Client struct {
	apiKey  string
	http    *http.Client
	baseURL string
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBase,
	}
	for _, o := range opts {
		o(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// doJSON: serializa in, agrega Authorization y reintenta una vez ante 429 con Retry-After.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		res, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("mail api http: %w", err)
		}

		if res.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			wait := retryAfter(res.Header.Get("Retry-After"))
			res.Body.Close()
			if wait > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return ctx.Err()
				}
				continue
			}
			return &APIError{Status: http.StatusTooManyRequests}
		}

		err = decode(res, out)
		res.Body.Close()
		return err
	}
}

func decode(res *http.Response, out any) error {
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// retryAfter acepta segundos; valores absurdos se recortan a 30s.
func retryAfter(h string) time.Duration {
	sec, _ := strconv.Atoi(strings.TrimSpace(h))
	if sec <= 0 {
		return 0
	}
	if sec > 30 {
		sec = 30
	}
	return time.Duration(sec) * time.Second
}
