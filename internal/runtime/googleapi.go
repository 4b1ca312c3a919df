// internal/runtime/googleapi.go adapts *gmail.Service to our small interface
package runtime

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/labelfwd/internal/gmail"
)

const (
	userID        = "me"
	pageSize      = 100
	userLabelType = "user"
)

type googleClient struct {
	svc   *gmail.Service
	clock func() time.Time
}

// NewGoogleAPIClient wraps an authorized Gmail service.
func NewGoogleAPIClient(svc *gmail.Service) *googleClient {
	return &googleClient{svc: svc, clock: time.Now}
}

func (g *googleClient) FindLabel(ctx context.Context, name string) (gc.Label, bool, error) {
	lr, err := g.svc.Users.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return gc.Label{}, false, fmt.Errorf("list labels: %w", err)
	}
	for _, l := range lr.Labels {
		if l.Type == userLabelType && l.Name == name {
			return gc.Label{ID: gc.LabelID(l.Id), Name: l.Name}, true, nil
		}
	}
	return gc.Label{}, false, nil
}

func (g *googleClient) ListThreads(ctx context.Context, q gc.ThreadQuery) ([]gc.ThreadID, error) {
	labels := []string{string(q.Label)}
	if q.UnreadOnly {
		labels = append(labels, string(gc.LabelUnread))
	}
	var ids []gc.ThreadID
	err := g.svc.Users.Threads.List(userID).
		LabelIds(labels...).
		MaxResults(pageSize).
		Pages(ctx, func(res *gmail.ListThreadsResponse) error {
			for _, t := range res.Threads {
				ids = append(ids, gc.ThreadID(t.Id))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return ids, nil
}

func (g *googleClient) GetThread(ctx context.Context, id gc.ThreadID) (gc.Thread, error) {
	t, err := g.svc.Users.Threads.Get(userID, string(id)).Format("full").Context(ctx).Do()
	if err != nil {
		return gc.Thread{}, fmt.Errorf("get thread %s: %w", id, err)
	}
	return mapThread(t), nil
}

func (g *googleClient) AttachmentData(ctx context.Context, id gc.MessageID, att gc.Attachment) ([]byte, error) {
	if att.ID == "" {
		return att.Data, nil
	}
	body, err := g.svc.Users.Messages.Attachments.Get(userID, string(id), att.ID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get attachment %s: %w", att.ID, err)
	}
	data, err := decodeBase64URL(body.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment %s: %w", att.ID, err)
	}
	return data, nil
}

func (g *googleClient) MarkRead(ctx context.Context, id gc.MessageID) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{string(gc.LabelUnread)}}
	if _, err := g.svc.Users.Messages.Modify(userID, string(id), req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("modify message %s: %w", id, err)
	}
	return nil
}

func (g *googleClient) Send(ctx context.Context, msg gc.Outgoing) error {
	raw, err := gc.Compose(msg, g.clock())
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	out := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := g.svc.Users.Messages.Send(userID, out).Context(ctx).Do(); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

var _ gc.Client = (*googleClient)(nil)
