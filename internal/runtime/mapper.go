package runtime

import (
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/labelfwd/internal/gmail"
)

func mapThread(t *gmail.Thread) gc.Thread {
	out := gc.Thread{ID: gc.ThreadID(t.Id)}
	for _, m := range t.Messages {
		out.Messages = append(out.Messages, mapMessage(m))
	}
	return out
}

func mapMessage(msg *gmail.Message) gc.Message {
	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}
	rawDate := findHeader(headers, "Date")

	text, html := extractBody(msg.Payload)
	body := html
	if body == "" {
		body = text
	}

	return gc.Message{
		ID:          gc.MessageID(msg.Id),
		ThreadID:    gc.ThreadID(msg.ThreadId),
		Subject:     findHeader(headers, "Subject"),
		From:        findHeader(headers, "From"),
		Date:        messageDate(rawDate, msg.InternalDate),
		RawDate:     rawDate,
		Body:        body,
		Unread:      containsLabel(msg.LabelIds, string(gc.LabelUnread)),
		Attachments: extractAttachments(msg.Payload),
	}
}

// findHeader performs a case-insensitive lookup for a header value.
func findHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// messageDate prefers the Date header and falls back to Gmail's internal
// receive time (milliseconds since the epoch).
func messageDate(header string, internalMillis int64) time.Time {
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t
		}
	}
	if internalMillis > 0 {
		return time.UnixMilli(internalMillis).UTC()
	}
	return time.Time{}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// extractBody recursively extracts text/plain and text/html content,
// skipping attachment parts.
func extractBody(payload *gmail.MessagePart) (text, html string) {
	if payload == nil {
		return "", ""
	}
	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			t, h := extractBody(part)
			if text == "" && t != "" {
				text = t
			}
			if html == "" && h != "" {
				html = h
			}
		}
		return text, html
	}
	if payload.Filename != "" || payload.Body == nil {
		return "", ""
	}
	data, err := decodeBase64URL(payload.Body.Data)
	if err != nil {
		return "", ""
	}
	switch payload.MimeType {
	case "text/plain":
		return string(data), ""
	case "text/html":
		return "", string(data)
	}
	return "", ""
}

func extractAttachments(payload *gmail.MessagePart) []gc.Attachment {
	if payload == nil {
		return nil
	}
	var attachments []gc.Attachment
	collectAttachments(payload, &attachments)
	return attachments
}

func collectAttachments(part *gmail.MessagePart, attachments *[]gc.Attachment) {
	if part.Filename != "" && part.Body != nil {
		att := gc.Attachment{
			ID:       part.Body.AttachmentId,
			Filename: part.Filename,
			MIMEType: part.MimeType,
			Size:     part.Body.Size,
		}
		// Small parts arrive inline instead of behind an attachment ID.
		if att.ID == "" && part.Body.Data != "" {
			if data, err := decodeBase64URL(part.Body.Data); err == nil {
				att.Data = data
			}
		}
		*attachments = append(*attachments, att)
	}
	for _, p := range part.Parts {
		collectAttachments(p, attachments)
	}
}

// decodeBase64URL decodes Gmail's URL-safe base64, padded or not.
func decodeBase64URL(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return data, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
