package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"contact-relay/internal/util"
)

// Checker reports per-dependency health; an empty map means healthy.
type Checker interface {
	HealthCheck(ctx context.Context) map[string]error
}

type HealthHandler struct {
	checker Checker
	service string
}

func NewHealthHandler(checker Checker, service string) *HealthHandler {
	return &HealthHandler{checker: checker, service: service}
}

// Health is liveness only and never touches dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": h.service,
	})
}

// Ready checks the rate-limit store and the event publisher.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var failing []string
	if h.checker != nil {
		for name, err := range h.checker.HealthCheck(ctx) {
			util.Warn("Readiness check failed", util.String("dependency", name), util.ErrorField(err))
			failing = append(failing, name)
		}
	}

	if len(failing) > 0 {
		sort.Strings(failing)
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unavailable",
			"service":   h.service,
			"unhealthy": failing,
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"service": h.service,
	})
}
