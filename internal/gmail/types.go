package gmail

import "time"

type MessageID string
type ThreadID string
type LabelID string

// LabelUnread is the system label Gmail uses to carry the unread flag.
const LabelUnread LabelID = "UNREAD"

type Label struct {
	ID   LabelID
	Name string
}

// Attachment describes a file part of a message. Data is empty until loaded
// through Client.AttachmentData.
type Attachment struct {
	ID       string
	Filename string
	MIMEType string
	Size     int64
	Data     []byte
}

type Message struct {
	ID          MessageID
	ThreadID    ThreadID
	Subject     string
	From        string
	Date        time.Time
	RawDate     string // Date header as received, used when Date could not be parsed
	Body        string // HTML body when present, plain text otherwise
	Unread      bool
	Attachments []Attachment
}

// ThreadQuery selects threads under a label. UnreadOnly narrows the listing
// to threads holding at least one unread message.
type ThreadQuery struct {
	Label      LabelID
	UnreadOnly bool
}

type Thread struct {
	ID       ThreadID
	Messages []Message
}

// IsUnread reports whether at least one message in the thread is unread.
func (t Thread) IsUnread() bool {
	for i := range t.Messages {
		if t.Messages[i].Unread {
			return true
		}
	}
	return false
}

// Subject returns the subject of the first message, mirroring how mail
// clients title a conversation.
func (t Thread) Subject() string {
	if len(t.Messages) == 0 {
		return ""
	}
	return t.Messages[0].Subject
}

// Outgoing is a new message addressed to exactly one recipient.
type Outgoing struct {
	To          string
	Subject     string
	Body        string
	HTMLBody    string
	Attachments []Attachment
}
