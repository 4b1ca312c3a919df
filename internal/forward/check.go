package forward

import (
	"context"
	"fmt"

	"github.com/joshsymonds/labelfwd/internal/gmail"
)

// FilterSource lists the mail filters that apply a label, by name.
type FilterSource interface {
	FiltersForLabel(ctx context.Context, label string) ([]string, error)
}

// SetupReport is the result of a read-only configuration check.
type SetupReport struct {
	Label         string
	Destination   string
	LabelFound    bool
	TotalThreads  int
	UnreadThreads int
	Filters       []string
	FiltersErr    error
}

// OK reports whether the setup can forward mail.
func (r SetupReport) OK() bool { return r.LabelFound }

// Check verifies the target label exists and counts the threads a run would
// see. It never sends or modifies mail.
func (s *Service) Check(ctx context.Context, target Target) (SetupReport, error) {
	rep := SetupReport{Label: target.Label, Destination: target.Destination}
	logger := s.Logger

	label, ok, err := s.Client.FindLabel(ctx, target.Label)
	if err != nil {
		return rep, fmt.Errorf("find label %q: %w", target.Label, err)
	}
	if !ok {
		logger.WarnContext(ctx, "label not found; create it in Gmail", "label", target.Label)
		return rep, nil
	}
	rep.LabelFound = true
	logger.InfoContext(ctx, "label found", "label", target.Label)

	all, err := s.Client.ListThreads(ctx, gmail.ThreadQuery{Label: label.ID})
	if err != nil {
		return rep, fmt.Errorf("list threads for %q: %w", target.Label, err)
	}
	unread, err := s.Client.ListThreads(ctx, gmail.ThreadQuery{Label: label.ID, UnreadOnly: true})
	if err != nil {
		return rep, fmt.Errorf("list unread threads for %q: %w", target.Label, err)
	}
	rep.TotalThreads = len(all)
	rep.UnreadThreads = len(unread)
	logger.InfoContext(ctx, "threads under label", "total", rep.TotalThreads, "unread", rep.UnreadThreads)

	if s.Filters != nil {
		rep.Filters, rep.FiltersErr = s.Filters.FiltersForLabel(ctx, target.Label)
		if rep.FiltersErr != nil {
			logger.WarnContext(ctx, "could not read gmailctl filters", "error", rep.FiltersErr)
		} else {
			logger.InfoContext(ctx, "filters applying label", "count", len(rep.Filters))
		}
	}

	logger.InfoContext(ctx, "destination configured", "destination", target.Destination)
	return rep, nil
}
