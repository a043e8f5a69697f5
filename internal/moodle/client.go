// Package moodle implements the authenticated HTTP client for a Moodle
// instance: page fetches, resource downloads, and the AJAX service call
// that returns the course state snapshot.
package moodle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// stateMethod is the AJAX service method returning the course state.
const stateMethod = "core_courseformat_get_state"

// sessionCookie is the Moodle session cookie name.
const sessionCookie = "MoodleSession"

// Client performs authenticated requests against a single Moodle
// instance. Credentials live inside the client; nothing is ambient.
type Client struct {
	http      *http.Client
	base      *url.URL
	cookie    string
	userAgent string
}

// NewClient builds a client for the instance hosting courseURL. Scheme
// and host are taken from the course URL; cookie is a browser
// MoodleSession value. A zero timeout leaves requests unbounded.
func NewClient(courseURL, cookie string, timeout time.Duration, userAgent string) (*Client, error) {
	u, err := url.Parse(courseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid course url %q", courseURL)
	}

	return &Client{
		http:      &http.Client{Timeout: timeout},
		base:      &url.URL{Scheme: u.Scheme, Host: u.Host},
		cookie:    cookie,
		userAgent: userAgent,
	}, nil
}

// Get issues an authenticated GET, following redirects. The caller owns
// the response body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}

	return resp, nil
}

// Page fetches a URL and returns the whole body as a string.
func (c *Client) Page(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("get %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}

	return string(body), nil
}

// serviceCall is the request envelope for one AJAX service call.
type serviceCall struct {
	Index      int            `json:"index"`
	MethodName string         `json:"methodname"`
	Args       map[string]any `json:"args"`
}

// serviceReply is one entry of the service response envelope. Data is
// itself a JSON document encoded as a string.
type serviceReply struct {
	Error     bool `json:"error"`
	Exception *struct {
		Message string `json:"message"`
	} `json:"exception"`
	Data string `json:"data"`
}

// State fetches the course state snapshot through the AJAX service
// endpoint, returning the inner state document as raw bytes.
func (c *Client) State(ctx context.Context, courseID int, sessionKey string) ([]byte, error) {
	endpoint := c.base.JoinPath("lib", "ajax", "service.php")
	q := url.Values{}
	q.Set("sesskey", sessionKey)
	q.Set("info", stateMethod)
	endpoint.RawQuery = q.Encode()

	payload, err := json.Marshal([]serviceCall{{
		Index:      0,
		MethodName: stateMethod,
		Args:       map[string]any{"courseid": courseID},
	}})
	if err != nil {
		return nil, fmt.Errorf("marshal service call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("course state: status %d", resp.StatusCode)
	}

	var replies []serviceReply
	if err := json.NewDecoder(resp.Body).Decode(&replies); err != nil {
		return nil, fmt.Errorf("decode course state reply: %w", err)
	}

	if len(replies) == 0 {
		return nil, fmt.Errorf("course state: empty reply")
	}

	if r := replies[0]; r.Error || r.Exception != nil {
		if r.Exception != nil && r.Exception.Message != "" {
			return nil, fmt.Errorf("course state: %s", r.Exception.Message)
		}
		return nil, fmt.Errorf("course state: service error")
	}

	return []byte(replies[0].Data), nil
}

// authorize attaches the session cookie and user agent.
func (c *Client) authorize(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.cookie})
}
