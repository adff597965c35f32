package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"contact-relay/internal/models"
	"contact-relay/internal/util"
)

// Identity is the fixed sender and destination of relayed mail.
type Identity struct {
	From models.EmailAddress
	To   models.EmailAddress
	// Site names the form in the footer.
	Site string
}

var bodyTemplate = template.Must(template.New("contact").Funcs(template.FuncMap{
	"multiline": func(s string) template.HTML {
		return template.HTML(util.NewlinesToBreaks(util.EscapeHTML(s)))
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #1c1917; color: white; padding: 20px; border-radius: 8px 8px 0 0; }
    .content { background: #f5f5f4; padding: 20px; border-radius: 0 0 8px 8px; }
    .field { margin-bottom: 16px; }
    .label { font-weight: bold; color: #57534e; font-size: 12px; text-transform: uppercase; }
    .value { margin-top: 4px; }
    .message-box { background: white; padding: 16px; border-radius: 8px; border: 1px solid #e7e5e4; }
    .footer { margin-top: 20px; font-size: 12px; color: #a8a29e; text-align: center; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h2 style="margin: 0;">New Contact Form Submission</h2>
    </div>
    <div class="content">
      <div class="field">
        <div class="label">From</div>
        <div class="value">{{.Name}}</div>
      </div>
      <div class="field">
        <div class="label">Email</div>
        <div class="value"><a href="mailto:{{.Email}}">{{.Email}}</a></div>
      </div>
      <div class="field">
        <div class="label">Message</div>
        <div class="message-box">{{multiline .Message}}</div>
      </div>
    </div>
    <div class="footer">
      This email was sent from the {{.Site}} contact form.
    </div>
  </div>
</body>
</html>
`))

type bodyData struct {
	Name    string
	Email   string
	Message string
	Site    string
}

// RenderBody renders the notification HTML. Every user-supplied field is
// escaped before it reaches the markup.
func RenderBody(sub models.SubmissionRequest, site string) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, bodyData{
		Name:    sub.Name,
		Email:   sub.Email,
		Message: sub.Message,
		Site:    site,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render email body: %w", err)
	}
	return buf.String(), nil
}

// BuildPayload assembles the outbound message for a sanitized submission.
// Replies go straight to the submitter.
func BuildPayload(id Identity, sub models.SubmissionRequest, subject string) (*models.OutboundEmailPayload, error) {
	body, err := RenderBody(sub, siteName(id))
	if err != nil {
		return nil, err
	}
	return &models.OutboundEmailPayload{
		Sender:    id.From,
		Recipient: id.To,
		ReplyTo:   models.EmailAddress{Address: sub.Email, Name: sub.Name},
		Subject:   subject,
		HTMLBody:  body,
	}, nil
}

func siteName(id Identity) string {
	if id.Site != "" {
		return id.Site
	}
	if id.To.Name != "" {
		return id.To.Name
	}
	return id.To.Address
}
