package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"contact-relay/internal/events"
	"contact-relay/internal/models"
	"contact-relay/internal/ratelimit"
	"contact-relay/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	msgSent          = "Your message has been sent successfully!"
	msgRateLimited   = "Too many requests. Please wait a minute before trying again."
	msgNotConfigured = "Email service not configured. Please contact support."
	msgSendFailed    = "Failed to send message. Please try again later."
	msgGeneric       = "An error occurred. Please try again later."
	msgTooLarge      = "Request body is too large"
)

const defaultMaxRequestBytes = 64 << 10

// ContactHandler serves the contact form relay endpoint.
type ContactHandler struct {
	relay           *service.RelayService
	recorder        *events.Recorder
	maxRequestBytes int64
	logger          *zap.Logger
}

func NewContactHandler(relay *service.RelayService, recorder *events.Recorder, maxRequestBytes int64, logger *zap.Logger) *ContactHandler {
	if maxRequestBytes <= 0 {
		maxRequestBytes = defaultMaxRequestBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactHandler{
		relay:           relay,
		recorder:        recorder,
		maxRequestBytes: maxRequestBytes,
		logger:          logger,
	}
}

// RegisterRoutes mounts the relay at path. Any method other than POST or
// OPTIONS falls through to the router's 405 handler.
func (h *ContactHandler) RegisterRoutes(router chi.Router, path string) {
	router.Post(path, h.SendEmail)
	router.Options(path, h.Preflight)
}

// Preflight always answers 200 with an empty body. CORS headers, when
// the origin qualifies, are set by the cors middleware.
func (h *ContactHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// SendEmail handles POST submissions. The rate-limit check runs before
// the body is read.
func (h *ContactHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientKey := ratelimit.ClientIdentifier(r)
	requestID := middleware.GetReqID(ctx)

	decision, err := h.relay.Admit(ctx, clientKey)
	if err != nil {
		h.setRetryAfter(w, decision)
		h.fail(w, r, clientKey, requestID, err)
		return
	}

	req, err := h.decodeSubmission(w, r)
	if err != nil {
		h.fail(w, r, clientKey, requestID, err)
		return
	}

	ack, err := h.relay.Relay(ctx, req)
	if err != nil {
		h.fail(w, r, clientKey, requestID, err)
		return
	}

	h.logger.Info("Contact form submitted",
		zap.String("request_id", requestID),
		zap.String("submission_id", ack.RequestID),
		zap.String("client", clientKey))
	h.record(r, clientKey, requestID, nil, http.StatusOK)

	respondWithJSON(w, http.StatusOK, successResponse(msgSent))
}

var errBodyTooLarge = errors.New("request body too large")

// decodeSubmission reads at most maxRequestBytes. A body that is not a JSON
// object decodes as an empty submission and fails the presence check.
func (h *ContactHandler) decodeSubmission(w http.ResponseWriter, r *http.Request) (models.SubmissionRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)

	var req models.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.SubmissionRequest{}, errBodyTooLarge
		}
		h.logger.Debug("Unreadable submission body, treating as empty", zap.Error(err))
		return models.SubmissionRequest{}, nil
	}
	return req, nil
}

func (h *ContactHandler) fail(w http.ResponseWriter, r *http.Request, clientKey, requestID string, err error) {
	status := getStatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Contact form submission failed",
			zap.String("request_id", requestID),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		h.logger.Info("Contact form submission refused",
			zap.String("request_id", requestID),
			zap.String("client", clientKey),
			zap.Int("status", status),
			zap.String("reason", err.Error()))
	}
	h.record(r, clientKey, requestID, err, status)
	respondWithError(w, status, userMessage(err))
}

func (h *ContactHandler) record(r *http.Request, clientKey, requestID string, err error, status int) {
	if h.recorder == nil {
		return
	}
	outcome, reason := service.Outcome(err)
	if errors.Is(err, errBodyTooLarge) {
		outcome, reason = models.OutcomeInvalid, err.Error()
	}
	h.recorder.Record(r.Context(), clientKey, requestID, outcome, reason, status)
}

func (h *ContactHandler) setRetryAfter(w http.ResponseWriter, decision models.RateLimitDecision) {
	wait := decision.RetryAfter(h.relay.Now())
	if wait <= 0 {
		return
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
}

// getStatusCode maps service errors to HTTP status codes
func getStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the only text about a failure that reaches the client.
func userMessage(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, errBodyTooLarge):
		return msgTooLarge
	case errors.Is(err, service.ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, service.ErrNotConfigured):
		return msgNotConfigured
	case errors.Is(err, service.ErrProviderRejected):
		return msgSendFailed
	default:
		return msgGeneric
	}
}
