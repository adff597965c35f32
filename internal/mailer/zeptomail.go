package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"contact-relay/internal/config"
	"contact-relay/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrNotConfigured means no API token is set; no call is attempted.
	ErrNotConfigured = errors.New("email provider not configured")
	// ErrUnavailable wraps transport-level failures.
	ErrUnavailable = errors.New("email provider unavailable")
)

const maxErrorBody = 16 << 10

// ProviderError is a non-2xx answer from the provider. Body is for server
// logs only.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email provider rejected send (status %d)", e.StatusCode)
}

// Sender delivers one outbound message.
type Sender interface {
	Send(ctx context.Context, payload *models.OutboundEmailPayload) (*SendResult, error)
}

// SendResult is the provider's acknowledgment.
type SendResult struct {
	ProviderRequestID string
	StatusCode        int
}

type zeptoAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type zeptoRecipient struct {
	EmailAddress zeptoAddress `json:"email_address"`
}

type zeptoRequest struct {
	From     zeptoAddress     `json:"from"`
	To       []zeptoRecipient `json:"to"`
	ReplyTo  []zeptoAddress   `json:"reply_to,omitempty"`
	Subject  string           `json:"subject"`
	HTMLBody string           `json:"htmlbody"`
}

type zeptoResponse struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// ZeptoMailClient posts messages to the ZeptoMail send API.
type ZeptoMailClient struct {
	url        string
	token      string
	authScheme string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewZeptoMailClient(cfg config.ProviderConfig, logger *zap.Logger) *ZeptoMailClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZeptoMailClient{
		url:        cfg.URL,
		token:      cfg.APIToken,
		authScheme: cfg.AuthScheme,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *ZeptoMailClient) Configured() bool {
	return c.token != ""
}

// Send performs exactly one attempt. Failures are never retried here.
func (c *ZeptoMailClient) Send(ctx context.Context, payload *models.OutboundEmailPayload) (*SendResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if payload == nil {
		return nil, fmt.Errorf("email payload is nil")
	}

	reqBody, err := json.Marshal(toZeptoRequest(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authorization())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed zeptoResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			c.logger.Debug("Provider acknowledgment was not JSON", zap.Error(err))
		}
	}

	c.logger.Info("Email accepted by provider",
		zap.Int("status", resp.StatusCode),
		zap.String("provider_request_id", parsed.RequestID),
		zap.Duration("duration", time.Since(start)),
	)

	return &SendResult{ProviderRequestID: parsed.RequestID, StatusCode: resp.StatusCode}, nil
}

func (c *ZeptoMailClient) authorization() string {
	if c.authScheme == "" {
		return c.token
	}
	return c.authScheme + " " + c.token
}

func toZeptoRequest(p *models.OutboundEmailPayload) zeptoRequest {
	req := zeptoRequest{
		From: zeptoAddress{Address: p.Sender.Address, Name: p.Sender.Name},
		To: []zeptoRecipient{
			{EmailAddress: zeptoAddress{Address: p.Recipient.Address, Name: p.Recipient.Name}},
		},
		Subject:  p.Subject,
		HTMLBody: p.HTMLBody,
	}
	if p.ReplyTo.Address != "" {
		req.ReplyTo = []zeptoAddress{{Address: p.ReplyTo.Address, Name: p.ReplyTo.Name}}
	}
	return req
}
