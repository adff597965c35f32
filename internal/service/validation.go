package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"contact-relay/internal/models"
	"contact-relay/internal/util"
)

const (
	MaxNameLength    = 100
	MaxEmailLength   = 254
	MaxMessageLength = 5000

	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
)

var (
	ErrValidation        = errors.New("invalid submission")
	ErrMissingFields     = errors.New("missing required fields")
	ErrFieldTooLong      = errors.New("field too long")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidCharacters = errors.New("invalid characters in input")
)

// local@domain.tld with no whitespace and a single @.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}@]+@[^\s\v\p{Z}@]+\.[^\s\v\p{Z}@]+$`)

// ValidationError is a rejected submission. Its message is safe to show to
// the submitter.
type ValidationError struct {
	Kind  error
	Field string
	Max   int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrMissingFields:
		return "Missing required fields: name, email, and message are required"
	case ErrFieldTooLong:
		switch e.Field {
		case FieldName:
			return fmt.Sprintf("Name is too long (max %d characters)", e.Max)
		case FieldEmail:
			return "Email is too long"
		default:
			return fmt.Sprintf("Message is too long (max %d characters)", e.Max)
		}
	case ErrInvalidEmail:
		return "Please enter a valid email address"
	case ErrInvalidCharacters:
		return "Invalid characters in input"
	}
	return "Invalid submission"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == e.Kind
}

// ValidateSubmission applies the rules in order and stops at the first
// failure: presence, length, email shape, then CR/LF in name or email.
func ValidateSubmission(req *models.SubmissionRequest) error {
	if req == nil || req.Name == "" || req.Email == "" || req.Message == "" {
		return &ValidationError{Kind: ErrMissingFields}
	}

	limits := []struct {
		field string
		value string
		max   int
	}{
		{FieldName, req.Name, MaxNameLength},
		{FieldEmail, req.Email, MaxEmailLength},
		{FieldMessage, req.Message, MaxMessageLength},
	}
	for _, l := range limits {
		if util.CharCount(l.value) > l.max {
			return &ValidationError{Kind: ErrFieldTooLong, Field: l.field, Max: l.max}
		}
	}

	if !emailPattern.MatchString(req.Email) {
		return &ValidationError{Kind: ErrInvalidEmail, Field: FieldEmail}
	}

	// CR/LF in the email already fails emailPattern as an invalid address.
	if util.ContainsLineBreak(req.Name) {
		return &ValidationError{Kind: ErrInvalidCharacters, Field: FieldName}
	}
	if util.ContainsLineBreak(req.Email) {
		return &ValidationError{Kind: ErrInvalidCharacters, Field: FieldEmail}
	}
	return nil
}

// SanitizeSubmission trims every field, lower-cases the email and
// re-applies the length bounds. It is idempotent.
func SanitizeSubmission(req models.SubmissionRequest) models.SubmissionRequest {
	return models.SubmissionRequest{
		Name:    util.Truncate(strings.TrimSpace(req.Name), MaxNameLength),
		Email:   util.Truncate(strings.ToLower(strings.TrimSpace(req.Email)), MaxEmailLength),
		Message: util.Truncate(strings.TrimSpace(req.Message), MaxMessageLength),
	}
}
