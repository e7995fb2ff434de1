// file: internal/summary/summary_test.go
package summary

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/dkoosis/taskdash/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	notes   map[string][]clickup.Comment
	entries map[string][]clickup.TimeEntry
	failing map[string]bool

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	mu          sync.Mutex
	calls       []string
}

func (f *fakeSource) enter(call string) func() {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	n := f.inFlight.Add(1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeSource) GetProjectNotes(_ context.Context, id string) ([]clickup.Comment, error) {
	defer f.enter("notes:" + id)()
	if f.failing[id] {
		return nil, errors.New("notes unavailable")
	}
	return f.notes[id], nil
}

func (f *fakeSource) GetTimeEntries(_ context.Context, id string) ([]clickup.TimeEntry, error) {
	defer f.enter("time:" + id)()
	if f.failing[id] {
		return nil, errors.New("time unavailable")
	}
	return f.entries[id], nil
}

func TestSummarize_LatestCommentAndHours(t *testing.T) {
	src := &fakeSource{
		notes: map[string][]clickup.Comment{
			"a": {
				{ID: "1", CommentText: "older", Date: 1000},
				{ID: "2", CommentText: "newest", Date: 3000},
				{ID: "3", CommentText: "middle", Date: 2000},
			},
		},
		entries: map[string][]clickup.TimeEntry{
			"a": {{Duration: 5400000}, {Duration: 1800000}},
			"b": {{Duration: 3600000}},
		},
	}

	got, err := Summarize(context.Background(), src, []string{"a", "b"}, WithLogger(logging.GetNoopLogger()))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].ProjectID)
	require.NotNil(t, got[0].LatestComment)
	assert.Equal(t, "newest", got[0].LatestComment.CommentText)
	assert.InDelta(t, 2.0, got[0].TotalHours, 1e-9)

	assert.Equal(t, "b", got[1].ProjectID)
	assert.Nil(t, got[1].LatestComment)
	assert.InDelta(t, 1.0, got[1].TotalHours, 1e-9)
	assert.Empty(t, got[1].Problems)
}

func TestSummarize_FailuresDegradePerProject(t *testing.T) {
	src := &fakeSource{
		notes:   map[string][]clickup.Comment{"ok": {{ID: "1", CommentText: "fine", Date: 1}}},
		entries: map[string][]clickup.TimeEntry{"ok": {{Duration: 3600000}}},
		failing: map[string]bool{"bad": true},
	}

	got, err := Summarize(context.Background(), src, []string{"bad", "ok"}, WithLogger(logging.GetNoopLogger()))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Nil(t, got[0].LatestComment)
	assert.Zero(t, got[0].TotalHours)
	assert.Len(t, got[0].Problems, 2)

	require.NotNil(t, got[1].LatestComment)
	assert.InDelta(t, 1.0, got[1].TotalHours, 1e-9)
}

func TestSummarize_RespectsConcurrencyLimit(t *testing.T) {
	src := &fakeSource{}
	ids := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}

	got, err := Summarize(context.Background(), src, ids, WithConcurrency(2), WithLogger(logging.GetNoopLogger()))
	require.NoError(t, err)
	assert.Len(t, got, len(ids))
	assert.LessOrEqual(t, src.maxInFlight.Load(), int32(2))
	assert.Len(t, src.calls, 2*len(ids))
}

func TestSummarize_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Summarize(ctx, &fakeSource{}, []string{"a"}, WithLogger(logging.GetNoopLogger()))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize_Empty(t *testing.T) {
	got, err := Summarize(context.Background(), &fakeSource{}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTotalHours_SkipsRunningTimers(t *testing.T) {
	hours := TotalHours([]clickup.TimeEntry{{Duration: 7200000}, {Duration: -1700000000000}})
	assert.InDelta(t, 2.0, hours, 1e-9)
}
