// SPDX-License-Identifier: AGPL-3.0-only
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Generator is the text-generation collaborator consumed by the scheduling
// engine. Implementations must respect the request context's deadline.
type Generator interface {
	GeneratePost(ctx context.Context, authorName, lang string) (string, error)
}

// Client talks to the feed-post endpoint of the generation service. The
// service wraps the actual language model and is treated as a black box.
type Client struct {
	httpClient http.Client
	baseURL    string
	authToken  string
}

func NewClient(baseURL, authToken string, timeout time.Duration) *Client {
	return &Client{
		httpClient: http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
	}
}

type feedPostRequest struct {
	AuthorName string `json:"authorName"`
	Lang       string `json:"lang"`
}

type feedPostResponse struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// GeneratePost returns a short post body for the given persona display name
// and language code. Any transport error, non-2xx status or empty body is an
// error; the caller substitutes fallback content.
func (c *Client) GeneratePost(ctx context.Context, authorName, lang string) (string, error) {
	payload, err := json.Marshal(feedPostRequest{AuthorName: authorName, Lang: lang})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ai/feed-post", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("feed-post request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("feed-post request returned status %d", resp.StatusCode)
	}

	var body feedPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode feed-post response: %v", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("feed-post service error: %s", body.Error)
	}

	content := strings.TrimSpace(body.Content)
	if content == "" {
		return "", fmt.Errorf("feed-post response was empty")
	}
	return content, nil
}
