// Package forward relays unread messages under a label to a fixed address.
package forward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joshsymonds/labelfwd/internal/gmail"
	"github.com/joshsymonds/labelfwd/internal/metrics"
)

// Target names where messages come from and where they go.
type Target struct {
	Destination string
	Label       string
	Purpose     string
}

// Service forwards labeled mail through a gmail.Client.
type Service struct {
	Client  gmail.Client
	Logger  *slog.Logger
	Metrics *metrics.Forwarding
	Clock   func() time.Time
	Filters FilterSource
}

// NewService constructs a Service with sane defaults.
func NewService(client gmail.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{
		Client: client,
		Logger: logger,
		Clock:  time.Now,
	}
}

// ThreadResult records the outcome of processing one thread.
type ThreadResult struct {
	ThreadID  gmail.ThreadID
	Subject   string
	Forwarded int
	Err       error
}

// Report summarizes a forwarding run.
type Report struct {
	Label      string
	LabelFound bool
	StartedAt  time.Time
	Threads    []ThreadResult
	Forwarded  int
}

// Attempted returns the number of unread threads the run processed.
func (r Report) Attempted() int { return len(r.Threads) }

// Failed returns the number of threads that ended with an error.
func (r Report) Failed() int {
	n := 0
	for _, t := range r.Threads {
		if t.Err != nil {
			n++
		}
	}
	return n
}

// Run forwards every unread message in every unread thread under the target
// label. A missing label is not an error. A thread that fails is recorded in
// the report and the run moves on; only failures outside a thread are
// returned.
func (s *Service) Run(ctx context.Context, target Target) (Report, error) {
	rep := Report{Label: target.Label, StartedAt: s.Clock()}
	rep, err := s.run(ctx, target, rep)
	s.Metrics.ObserveRun(rep.LabelFound, err)
	return rep, err
}

func (s *Service) run(ctx context.Context, target Target, rep Report) (Report, error) {
	logger := s.Logger
	label, ok, err := s.Client.FindLabel(ctx, target.Label)
	if err != nil {
		return rep, fmt.Errorf("find label %q: %w", target.Label, err)
	}
	if !ok {
		logger.InfoContext(ctx, "label not found; nothing to forward", "label", target.Label)
		return rep, nil
	}
	rep.LabelFound = true

	ids, err := s.Client.ListThreads(ctx, gmail.ThreadQuery{Label: label.ID, UnreadOnly: true})
	if err != nil {
		return rep, fmt.Errorf("list threads for %q: %w", target.Label, err)
	}
	logger.InfoContext(ctx, "found unread threads", "label", target.Label, "count", len(ids))

	for i, id := range ids {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return rep, fmt.Errorf("run interrupted after %d/%d threads: %w", i, len(ids), ctxErr)
		}
		res := s.forwardThread(ctx, id, target)
		rep.Threads = append(rep.Threads, res)
		rep.Forwarded += res.Forwarded
		s.Metrics.ObserveThread(res.Err)
		if res.Err != nil {
			logger.ErrorContext(ctx, "thread failed",
				"thread", id, "subject", res.Subject, "forwarded", res.Forwarded, "error", res.Err)
			continue
		}
		logger.InfoContext(ctx, "processed thread",
			"position", fmt.Sprintf("%d/%d", i+1, len(ids)), "subject", res.Subject, "forwarded", res.Forwarded)
	}

	logger.InfoContext(ctx, "forwarding complete",
		"label", target.Label,
		"attempted", rep.Attempted(),
		"failed", rep.Failed(),
		"forwarded", rep.Forwarded,
	)
	return rep, nil
}

// forwardThread loads one thread and processes it. Every failure, including
// the fetch, stays in the returned result.
func (s *Service) forwardThread(ctx context.Context, id gmail.ThreadID, target Target) ThreadResult {
	res := ThreadResult{ThreadID: id}
	th, err := s.Client.GetThread(ctx, id)
	if err != nil {
		res.Err = fmt.Errorf("load thread: %w", err)
		return res
	}
	res.Subject = th.Subject()
	res.Forwarded, res.Err = s.ProcessThread(ctx, th, target)
	return res
}

// ProcessThread forwards each unread message of th in provider order and
// marks it read once its forward has been sent. The first error ends the
// thread; messages after it stay unread for the next run.
func (s *Service) ProcessThread(ctx context.Context, th gmail.Thread, target Target) (int, error) {
	forwarded := 0
	for _, msg := range th.Messages {
		if !msg.Unread {
			continue
		}
		if err := s.ForwardMessage(ctx, msg, target); err != nil {
			return forwarded, err
		}
		if err := s.Client.MarkRead(ctx, msg.ID); err != nil {
			return forwarded, fmt.Errorf("mark %s read: %w", msg.ID, err)
		}
		forwarded++
	}
	return forwarded, nil
}

var errNoDestination = errors.New("no destination configured")

// ForwardMessage sends one forwarded copy of msg to the target destination.
func (s *Service) ForwardMessage(ctx context.Context, msg gmail.Message, target Target) error {
	if target.Destination == "" {
		return errNoDestination
	}
	out := Compose(msg, target)
	for i := range out.Attachments {
		att := &out.Attachments[i]
		if len(att.Data) > 0 {
			continue
		}
		data, err := s.Client.AttachmentData(ctx, msg.ID, *att)
		if err != nil {
			return fmt.Errorf("load attachment %q of %s: %w", att.Filename, msg.ID, err)
		}
		att.Data = data
	}
	s.Metrics.ObserveSendAttempt()
	if err := s.Client.Send(ctx, out); err != nil {
		return fmt.Errorf("forward %s: %w", msg.ID, err)
	}
	s.Metrics.ObserveForwarded(len(out.Attachments))
	s.Logger.InfoContext(ctx, "forwarded message",
		"subject", msg.Subject, "destination", target.Destination, "attachments", len(out.Attachments))
	return nil
}
