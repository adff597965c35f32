// Package contactclient submits contact forms to a relay endpoint and
// turns every outcome into a message fit to show the person submitting.
package contactclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"contact-relay/internal/models"
)

const (
	DefaultPath = "/api/send-email"

	fallbackSuccess = "Your message has been sent successfully!"
	fallbackFailure = "Failed to send message. Please try again later."
	fallbackError   = "An error occurred. Please try again later."

	maxResponseBytes = 64 << 10
)

// ErrIncompleteForm is returned by CheckForm before anything is sent.
var ErrIncompleteForm = errors.New("please fill in your name, a valid email address and a message")

// Result is what the form shows after a submission.
type Result struct {
	Success bool
	Message string
}

type Client struct {
	endpoint   string
	origin     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithOrigin sets the Origin header, as a browser on that site would.
func WithOrigin(origin string) Option {
	return func(c *Client) { c.origin = origin }
}

// New targets baseURL + DefaultPath unless baseURL already has a path.
func New(baseURL string, opts ...Option) *Client {
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.Contains(strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://"), "/") {
		endpoint += DefaultPath
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// CheckForm is the form's own shape check: every field present and an
// address with an @ in it. The relay validates again.
func CheckForm(req models.SubmissionRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Message) == "" {
		return ErrIncompleteForm
	}
	email := strings.TrimSpace(req.Email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrIncompleteForm
	}
	return nil
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SendContactEmail posts the form and never returns an error: failures
// become a Result carrying the relay's message or a fallback.
func (c *Client) SendContactEmail(ctx context.Context, req models.SubmissionRequest) Result {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{Message: fallbackError}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Message: fallbackError}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.origin != "" {
		httpReq.Header.Set("Origin", c.origin)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{Message: fallbackError}
	}
	defer resp.Body.Close()

	var data relayResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&data); err != nil {
		return Result{Message: fallbackError}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && data.Success {
		if data.Message == "" {
			data.Message = fallbackSuccess
		}
		return Result{Success: true, Message: data.Message}
	}

	if data.Error == "" {
		data.Error = fallbackFailure
	}
	return Result{Message: data.Error}
}
