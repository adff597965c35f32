package service

import (
	"errors"

	"contact-relay/internal/models"
)

// Outcome classifies the result of a submission for the audit trail. The
// reason never includes submitted values.
func Outcome(err error) (outcome, reason string) {
	var verr *ValidationError
	switch {
	case err == nil:
		return models.OutcomeSent, ""
	case errors.Is(err, ErrRateLimited):
		return models.OutcomeRateLimited, err.Error()
	case errors.As(err, &verr):
		if verr.Field != "" {
			return models.OutcomeInvalid, verr.Kind.Error() + ": " + verr.Field
		}
		return models.OutcomeInvalid, verr.Kind.Error()
	case errors.Is(err, ErrNotConfigured):
		return models.OutcomeNotConfigured, err.Error()
	default:
		return models.OutcomeProviderFailed, err.Error()
	}
}
