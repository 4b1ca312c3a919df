package forward

import (
	"strings"
	"text/template"
	"time"

	"github.com/joshsymonds/labelfwd/internal/gmail"
)

// SubjectPrefix marks forwarded copies.
const SubjectPrefix = "Fwd: "

// DefaultPurpose is the routing annotation used when none is configured.
const DefaultPurpose = "Invoice Processing"

var envelope = template.Must(template.New("envelope").Parse(
	`---------- Forwarded Invoice ----------
From: {{.From}}
Date: {{.Date}}
Subject: {{.Subject}}
Forwarded for: {{.Purpose}}

{{.Body}}
`))

type envelopeData struct {
	From    string
	Date    string
	Subject string
	Purpose string
	Body    string
}

// Compose builds the forwarded copy of msg for the target. Attachment
// metadata is carried over; their data is filled in by the caller. When the
// original has attachments the envelope is also offered as the HTML body.
func Compose(msg gmail.Message, target Target) gmail.Outgoing {
	purpose := target.Purpose
	if purpose == "" {
		purpose = DefaultPurpose
	}
	var b strings.Builder
	// Execute only fails on writer errors or bad field references; neither
	// can happen with a strings.Builder and this fixed template.
	_ = envelope.Execute(&b, envelopeData{
		From:    msg.From,
		Date:    formatDate(msg),
		Subject: msg.Subject,
		Purpose: purpose,
		Body:    msg.Body,
	})
	out := gmail.Outgoing{
		To:      target.Destination,
		Subject: SubjectPrefix + msg.Subject,
		Body:    b.String(),
	}
	if len(msg.Attachments) > 0 {
		out.HTMLBody = out.Body
		out.Attachments = append([]gmail.Attachment(nil), msg.Attachments...)
	}
	return out
}

func formatDate(msg gmail.Message) string {
	if msg.Date.IsZero() {
		return msg.RawDate
	}
	return msg.Date.Format(time.RFC1123Z)
}
