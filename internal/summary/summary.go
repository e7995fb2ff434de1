// Package summary builds per-project dashboard summaries: the most recent note
// and the total tracked time.
// file: internal/summary/summary.go
package summary

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/dkoosis/taskdash/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many projects are fetched at once.
const DefaultConcurrency = 4

// Source is the subset of *clickup.Client a summary needs.
type Source interface {
	GetProjectNotes(ctx context.Context, taskID string) ([]clickup.Comment, error)
	GetTimeEntries(ctx context.Context, taskID string) ([]clickup.TimeEntry, error)
}

// ProjectSummary is the dashboard card data for one project.
type ProjectSummary struct {
	ProjectID     string           `json:"projectId"`
	LatestComment *clickup.Comment `json:"latestComment"`
	TotalHours    float64          `json:"totalTime"`
	// Problems lists fetch failures that were degraded to empty values.
	Problems []string `json:"problems,omitempty"`
}

// Option configures Summarize.
type Option func(*settings)

type settings struct {
	concurrency int
	logger      logging.Logger
}

// WithConcurrency sets the fan-out limit. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger for degraded fetches.
func WithLogger(logger logging.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Summarize fetches notes and time entries for every project and returns one
// summary per id, in input order. A project whose fetches fail gets a nil
// comment and zero hours; only cancellation of ctx fails the whole call.
func Summarize(ctx context.Context, src Source, projectIDs []string, opts ...Option) ([]ProjectSummary, error) {
	s := settings{concurrency: DefaultConcurrency, logger: logging.GetLogger("summary")}
	for _, opt := range opts {
		opt(&s)
	}

	out := make([]ProjectSummary, len(projectIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range projectIDs {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each goroutine owns out[i].
			out[i] = summarizeOne(gctx, src, id, s.logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "project summary canceled")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "project summary canceled")
	}
	return out, nil
}

func summarizeOne(ctx context.Context, src Source, id string, logger logging.Logger) ProjectSummary {
	sum := ProjectSummary{ProjectID: id}

	notes, err := src.GetProjectNotes(ctx, id)
	if err != nil {
		logger.Warn("Failed to fetch notes for project summary.", "projectID", id, "error", err)
		sum.Problems = append(sum.Problems, "notes: "+err.Error())
	} else if latest := clickup.LatestComment(notes); latest != nil {
		c := *latest
		sum.LatestComment = &c
	}

	entries, err := src.GetTimeEntries(ctx, id)
	if err != nil {
		logger.Warn("Failed to fetch time entries for project summary.", "projectID", id, "error", err)
		sum.Problems = append(sum.Problems, "time entries: "+err.Error())
	} else {
		sum.TotalHours = TotalHours(entries)
	}
	return sum
}

// TotalHours sums entry durations in hours. Running timers report a negative
// duration and are skipped.
func TotalHours(entries []clickup.TimeEntry) float64 {
	var ms int64
	for _, e := range entries {
		if e.Duration > 0 {
			ms += int64(e.Duration)
		}
	}
	return clickup.Duration(ms).Hours()
}
