package stats_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"cityevents/internal/logger"
	"cityevents/internal/models"
	"cityevents/internal/stats"
)

type fakeEventCounter struct {
	approved int
	pending  int
	err      error
}

func (f fakeEventCounter) CountByStatus(_ context.Context, status models.EventStatus) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if status == models.StatusApproved {
		return f.approved, nil
	}
	return f.pending, nil
}

type fakeSourceCounter struct {
	count int
	err   error
}

func (f fakeSourceCounter) CountSources(context.Context) (int, error) {
	return f.count, f.err
}

type fakeUserCounter struct {
	count int
	err   error
}

func (f fakeUserCounter) CountUsers(context.Context) (int, error) {
	return f.count, f.err
}

func TestCounters(t *testing.T) {
	svc := stats.NewService(
		fakeEventCounter{approved: 12, pending: 3},
		fakeSourceCounter{count: 2},
		fakeUserCounter{count: 5},
		logger.NewLogger(),
	)

	counters := svc.Counters(context.Background())
	assert.True(t, counters.OK)
	assert.Equal(t, 12, counters.ApprovedEvents)
	assert.Equal(t, 3, counters.PendingEvents)
	assert.Equal(t, 2, counters.Sources)
	assert.Equal(t, 5, counters.Users)
	assert.Empty(t, counters.Notice)
}

func TestCountersDegradeOnStorageFailure(t *testing.T) {
	svc := stats.NewService(
		fakeEventCounter{err: errors.New("database is locked")},
		fakeSourceCounter{count: 2},
		fakeUserCounter{count: 5},
		logger.NewLogger(),
	)

	counters := svc.Counters(context.Background())
	assert.False(t, counters.OK)
	assert.Zero(t, counters.ApprovedEvents)
	assert.Zero(t, counters.PendingEvents)
	assert.Equal(t, 2, counters.Sources)
	assert.NotEmpty(t, counters.Notice)
}
