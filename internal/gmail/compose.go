package gmail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

const defaultAttachmentType = "application/octet-stream"

var errNoRecipient = errors.New("outgoing message has no recipient")

// Compose renders msg as an RFC 5322 message suitable for the Gmail send API.
// Messages without attachments or an HTML body are written as a single
// text/plain entity; everything else becomes multipart/mixed with the text
// (and HTML alternative) first and the attachments after it, byte for byte.
func Compose(msg Outgoing, now time.Time) ([]byte, error) {
	if msg.To == "" {
		return nil, errNoRecipient
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("parse recipient %q: %w", msg.To, err)
	}

	var h mail.Header
	h.Set("MIME-Version", "1.0")
	h.SetDate(now)
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(msg.Subject)

	var buf bytes.Buffer
	if len(msg.Attachments) == 0 && msg.HTMLBody == "" {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, fmt.Errorf("create message writer: %w", err)
		}
		if _, err := io.WriteString(w, msg.Body); err != nil {
			return nil, fmt.Errorf("write body: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("close body: %w", err)
		}
		return buf.Bytes(), nil
	}

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}
	if err := writeInline(mw, msg); err != nil {
		return nil, err
	}
	for _, att := range msg.Attachments {
		if err := writeAttachment(mw, att); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInline(mw *mail.Writer, msg Outgoing) error {
	tw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("create inline part: %w", err)
	}
	if err := writeTextPart(tw, "text/plain", msg.Body); err != nil {
		return err
	}
	if msg.HTMLBody != "" {
		if err := writeTextPart(tw, "text/html", msg.HTMLBody); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close inline part: %w", err)
	}
	return nil
}

func writeTextPart(tw *mail.InlineWriter, contentType, body string) error {
	var th mail.InlineHeader
	th.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(th)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s part: %w", contentType, err)
	}
	return nil
}

func writeAttachment(mw *mail.Writer, att Attachment) error {
	mimeType := att.MIMEType
	if mimeType == "" {
		mimeType = defaultAttachmentType
	}
	var ah mail.AttachmentHeader
	ah.SetContentType(mimeType, nil)
	ah.SetFilename(att.Filename)
	w, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("create attachment %q: %w", att.Filename, err)
	}
	if _, err := w.Write(att.Data); err != nil {
		return fmt.Errorf("write attachment %q: %w", att.Filename, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close attachment %q: %w", att.Filename, err)
	}
	return nil
}
