package models

// SubmissionRequest is the body of a contact-form POST. It lives only for
// the duration of one request.
type SubmissionRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SubmissionAck is returned once the provider accepted the message.
type SubmissionAck struct {
	RequestID string `json:"request_id"`
	Subject   string `json:"subject"`
}
