package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	maxAttempts = 3
	retryDelay  = time.Second
)

// Client talks to a WordPress site's REST API using an application password.
type Client struct {
	baseURL     string
	username    string
	appPassword string
	httpClient  *http.Client
	sleep       func(time.Duration)
}

func NewClient(siteURL, username, appPassword string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(siteURL, "/"),
		username:    username,
		appPassword: appPassword,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		sleep:       time.Sleep,
	}
}

// PostRequest is the WordPress post creation payload.
type PostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

type postResponse struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

// TestConnection verifies the credentials against the users/me endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	resp, err := c.doWithRetry(ctx, http.MethodGet, "/wp-json/wp/v2/users/me", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("wordpress rejected the credentials (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from wordpress", resp.StatusCode)
	}
	return nil
}

// PublishPost creates a post and returns its WordPress id.
func (c *Client) PublishPost(ctx context.Context, post PostRequest) (int, error) {
	if post.Status == "" {
		post.Status = "publish"
	}
	body, err := json.Marshal(post)
	if err != nil {
		return 0, err
	}

	resp, err := c.doWithRetry(ctx, http.MethodPost, "/wp-json/wp/v2/posts", body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return 0, fmt.Errorf("wordpress post failed with status %d: %s", resp.StatusCode, payload)
	}

	var created postResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, fmt.Errorf("error decoding wordpress response: %v", err)
	}
	return created.ID, nil
}

// doWithRetry issues the request up to maxAttempts times, pausing between
// attempts. Network errors and 5xx responses are retried; everything else
// is returned to the caller.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.sleep(retryDelay)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.username, c.appPassword)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("wordpress returned status %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("wordpress request failed after %d attempts: %v", maxAttempts, lastErr)
}
