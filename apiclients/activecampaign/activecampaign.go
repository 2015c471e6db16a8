// Package activecampaign is a client for the parts of the ActiveCampaign v3
// API used to keep the firm's marketing contacts in step with inbound
// enquiries.
package activecampaign

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"hlxportal/config"

	"github.com/google/go-querystring/query"
)

// contactsPageSize is the maximum page size allowed by the API.
const contactsPageSize = 100

// Client is a wrapper for making authenticated calls to the ActiveCampaign
// API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	log        *slog.Logger
}

// NewClient returns an ActiveCampaign client for the account base url in the
// configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if !cfg.ActiveCampaign.Configured() {
		return nil, fmt.Errorf("activecampaign credentials are not configured")
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    cfg.ActiveCampaign.BaseURL,
		apiToken:   cfg.ActiveCampaign.APIToken,
		log:        logger,
	}, nil
}

// ContactByEmail looks up a contact by email address, returning
// sql.ErrNoRows if no contact matches.
func (c *Client) ContactByEmail(ctx context.Context, email string) (*Contact, error) {

	requestURL := fmt.Sprintf("%s/api/3/contacts?email=%s", c.baseURL, url.QueryEscape(email))
	c.log.Debug(fmt.Sprintf("ContactByEmail: requestURL %s", requestURL))

	req, err := c.newRequest(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new get request error: %w", err)
	}

	var response contactsResponse
	if _, err := c.do(req, &response); err != nil {
		c.log.Error(fmt.Sprintf("ContactByEmail: response error: %v", err))
		return nil, err
	}
	if len(response.Contacts) == 0 {
		return nil, sql.ErrNoRows
	}
	return &response.Contacts[0], nil
}

// SyncContact creates or updates a contact keyed by email address via the
// contact/sync endpoint, returning the contact with its id.
func (c *Client) SyncContact(ctx context.Context, contact Contact) (*Contact, error) {

	body, err := json.Marshal(contactRequest{Contact: contact})
	if err != nil {
		c.log.Error(fmt.Sprintf("SyncContact: failed to marshal contact: %v", err))
		return nil, fmt.Errorf("failed to marshal contact: %w", err)
	}

	requestURL := fmt.Sprintf("%s/api/3/contact/sync", c.baseURL)
	c.log.Debug(fmt.Sprintf("SyncContact: requestURL %s", requestURL))

	req, err := c.newRequest(ctx, "POST", requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("new post request error: %w", err)
	}

	var response contactResponse
	if _, err := c.do(req, &response); err != nil {
		c.log.Error(fmt.Sprintf("SyncContact: response error: %v", err))
		return nil, err
	}
	return &response.Contact, nil
}

// ListOptions are the querystring options for paginated contact listing.
type ListOptions struct {
	Limit   int    `url:"limit"`
	Offset  int    `url:"offset"`
	Search  string `url:"search,omitempty"`
	ListID  string `url:"listid,omitempty"`
	OrderBy string `url:"orders[cdate],omitempty"`
}

// Contacts fetches all contacts matching the list options, following the
// API's offset pagination until the reported total is reached.
func (c *Client) Contacts(ctx context.Context, opts ListOptions) ([]Contact, error) {

	if opts.Limit == 0 {
		opts.Limit = contactsPageSize
	}

	var contacts []Contact
	var pageNo int
	for {
		pageNo++
		values, err := query.Values(opts)
		if err != nil {
			return nil, fmt.Errorf("could not encode list options: %w", err)
		}
		requestURL := fmt.Sprintf("%s/api/3/contacts?%s", c.baseURL, values.Encode())
		c.log.Debug(fmt.Sprintf("Contacts: page %d: url %s", pageNo, requestURL))

		req, err := c.newRequest(ctx, "GET", requestURL, nil)
		if err != nil {
			c.log.Error(fmt.Sprintf("Contacts: newRequest error pageNo %d: %v", pageNo, err))
			return nil, fmt.Errorf("newRequest error pageNo %d: %w", pageNo, err)
		}

		var response contactsResponse
		if _, err := c.do(req, &response); err != nil {
			c.log.Error(fmt.Sprintf("Contacts: do error pageNo %d: %v", pageNo, err))
			return nil, fmt.Errorf("do error pageNo %d: %w", pageNo, err)
		}
		contacts = append(contacts, response.Contacts...)
		if len(response.Contacts) < opts.Limit || len(contacts) >= response.Meta.Total {
			break
		}
		opts.Offset += opts.Limit
	}
	return contacts, nil
}

// newRequest is a helper to create a new HTTP request with common headers.
func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Token", c.apiToken)
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
