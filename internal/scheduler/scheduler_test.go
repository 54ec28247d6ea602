package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordbook/pkg/models"
)

type fixedStats models.Statistics

func (f fixedStats) Statistics(context.Context) models.Statistics {
	return models.Statistics(f)
}

type recorder struct {
	mu    sync.Mutex
	calls []models.Statistics
	err   error
}

func (r *recorder) NotifyDue(_ context.Context, stats models.Statistics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, stats)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunManualCheck(t *testing.T) {
	rec := &recorder{}
	s := New(fixedStats{Total: 5, Due: 2}, Config{Interval: time.Hour}, quiet(), rec, LogNotifier{Logger: quiet()})

	sent, err := s.RunManualCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, 2, rec.calls[0].Due)
}

func TestNothingDue(t *testing.T) {
	rec := &recorder{}
	s := New(fixedStats{Total: 5}, Config{Interval: time.Hour}, quiet(), rec)

	sent, err := s.RunManualCheck(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, rec.calls)
}

func TestNotificationWindow(t *testing.T) {
	rec := &recorder{}
	s := New(fixedStats{Due: 1}, Config{Interval: time.Hour, StartHour: 8, EndHour: 22}, quiet(), rec)

	s.now = func() time.Time { return time.Date(2024, 1, 1, 3, 0, 0, 0, time.Local) }
	sent, err := s.check(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, sent)

	s.now = func() time.Time { return time.Date(2024, 1, 1, 22, 30, 0, 0, time.Local) }
	sent, err = s.check(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Len(t, rec.calls, 1)
}

func TestNotifierErrors(t *testing.T) {
	failing := &recorder{err: errors.New("offline")}
	ok := &recorder{}
	s := New(fixedStats{Due: 4}, Config{Interval: time.Hour}, quiet(), failing, ok)

	sent, err := s.RunManualCheck(context.Background())
	assert.ErrorContains(t, err, "offline")
	assert.True(t, sent, "one notifier still delivered")

	s = New(fixedStats{Due: 4}, Config{Interval: time.Hour}, quiet(), failing)
	sent, err = s.RunManualCheck(context.Background())
	assert.Error(t, err)
	assert.False(t, sent)
}

func TestStartRunsJob(t *testing.T) {
	rec := &recorder{}
	s := New(fixedStats{Due: 1}, Config{Interval: time.Hour, StartHour: 0, EndHour: 23}, quiet(), rec)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	// gocron runs a new job immediately on start
	assert.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartRejectsZeroInterval(t *testing.T) {
	s := New(fixedStats{}, Config{}, quiet())
	assert.Error(t, s.Start(context.Background()))
}
