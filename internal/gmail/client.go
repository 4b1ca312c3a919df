package gmail

import "context"

// Client is the narrow Gmail surface required by labelfwd.
type Client interface {
	// FindLabel resolves a user label by display name. ok is false when no
	// label carries that name.
	FindLabel(ctx context.Context, name string) (label Label, ok bool, err error)
	// ListThreads returns the IDs of threads matching q in the order Gmail
	// returns them. Messages are not loaded.
	ListThreads(ctx context.Context, q ThreadQuery) ([]ThreadID, error)
	// GetThread loads one thread with headers, bodies and attachment metadata.
	GetThread(ctx context.Context, id ThreadID) (Thread, error)
	AttachmentData(ctx context.Context, id MessageID, att Attachment) ([]byte, error)
	MarkRead(ctx context.Context, id MessageID) error
	Send(ctx context.Context, msg Outgoing) error
}
