package models

// EmailAddress is an address with an optional display name.
type EmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// OutboundEmailPayload is built fresh for every accepted submission and
// dropped once the provider call returns.
type OutboundEmailPayload struct {
	Sender    EmailAddress
	Recipient EmailAddress
	ReplyTo   EmailAddress
	Subject   string
	HTMLBody  string
}
