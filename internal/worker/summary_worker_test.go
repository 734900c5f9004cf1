package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSummarizer struct {
	mu      sync.Mutex
	backlog int
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(context.Context, uuid.UUID) error {
	return nil
}

func (f *fakeSummarizer) SummarizeNext(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.backlog > 0 {
		f.backlog--
		return true, nil
	}
	return false, nil
}

func (f *fakeSummarizer) snapshot() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.backlog, f.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSummaryWorker_DrainsBacklog(t *testing.T) {
	s := &fakeSummarizer{backlog: 5}
	w := NewSummaryWorker(s, 10*time.Millisecond, discardLogger())

	w.Start()
	defer w.Stop()

	require.Eventually(t, func() bool {
		left, _ := s.snapshot()
		return left == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSummaryWorker_StopIsClean(t *testing.T) {
	s := &fakeSummarizer{}
	w := NewSummaryWorker(s, 10*time.Millisecond, discardLogger())

	w.Start()
	time.Sleep(30 * time.Millisecond)
	w.Stop()

	_, callsAtStop := s.snapshot()
	time.Sleep(50 * time.Millisecond)
	_, callsAfter := s.snapshot()
	assert.Equal(t, callsAtStop, callsAfter, "no polls after Stop returns")
}

func TestSummaryWorker_FailuresBackOffAndAreSwallowed(t *testing.T) {
	s := &fakeSummarizer{err: fmt.Errorf("summary model down")}
	w := NewSummaryWorker(s, 5*time.Millisecond, discardLogger())

	w.Start()
	require.Eventually(t, func() bool {
		_, calls := s.snapshot()
		return calls >= 1
	}, time.Second, time.Millisecond)
	w.Stop()

	assert.GreaterOrEqual(t, w.backoff, initialBackoff)
}

func TestNextBackoff(t *testing.T) {
	w := NewSummaryWorker(&fakeSummarizer{}, 0, discardLogger())

	b := w.nextBackoff(0)
	assert.Equal(t, initialBackoff, b)

	b = w.nextBackoff(b)
	assert.Equal(t, 2*initialBackoff, b)

	assert.Equal(t, maxBackoff, w.nextBackoff(maxBackoff))
}
