// Package graph is a Microsoft Graph client for sending mail as an
// application via the OAuth2 client credentials flow. Only the small part of
// the Graph API surface needed for outbound notification mail is covered.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"hlxportal/config"
)

// GraphBaseURL is the production Microsoft Graph endpoint.
const GraphBaseURL = "https://graph.microsoft.com/v1.0"

// Client is a wrapper for making authenticated calls to the Graph API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *slog.Logger
}

// NewClient returns a Graph client whose underlying http client fetches and
// caches application tokens as needed.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.Graph.Credentials == nil {
		return nil, fmt.Errorf("graph credentials are not configured")
	}
	return &Client{
		httpClient: cfg.Graph.Credentials.Client(ctx),
		baseURL:    GraphBaseURL,
		log:        logger,
	}, nil
}

// SendMail sends a message as the from user via the Graph sendMail action.
// Graph responds 202 Accepted on success with no body.
func (c *Client) SendMail(ctx context.Context, from string, message Message) error {

	payload := sendMailRequest{
		Message:         message,
		SaveToSentItems: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Error(fmt.Sprintf("SendMail: failed to marshal message: %v", err))
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	requestURL := fmt.Sprintf("%s/users/%s/sendMail", c.baseURL, from)
	c.log.Debug(fmt.Sprintf("SendMail: requestURL %s", requestURL))

	req, err := c.newRequest(ctx, "POST", requestURL, body)
	if err != nil {
		c.log.Error(fmt.Sprintf("SendMail: new post request error: %v", err))
		return fmt.Errorf("new post request error: %w", err)
	}

	if _, err := c.do(req, nil); err != nil {
		c.log.Error(fmt.Sprintf("SendMail: response error: %v", err))
		return err
	}
	return nil
}

// newRequest is a helper to create a new HTTP request with common headers.
func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do is a helper to execute an HTTP request and decode the JSON response.
func (c *Client) do(req *http.Request, v any) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if v != nil {
		return resp, json.Unmarshal(body, v)
	}
	return resp, nil
}
