package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/commercegrid/pricing-engine/internal/domain"
	"github.com/commercegrid/pricing-engine/internal/lock"
)

type fakeLock struct {
	held       bool
	acquired   int
	released   int
	acquireErr error
}

func (f *fakeLock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	if f.held {
		return nil, lock.ErrAlreadyRunning
	}
	f.held = true
	f.acquired++
	return func(context.Context) error {
		f.held = false
		f.released++
		return nil
	}, nil
}

func TestLockedRunner_RunsAndReleases(t *testing.T) {
	rules := new(mockRuleRepository)
	catalog := new(mockCatalogRepository)
	ctx := context.Background()

	catalog.On("ClearExpiredCampaigns", ctx, evalTime).Return(int64(0), nil)
	rules.On("ListActive", ctx, evalTime).Return([]domain.Rule{}, nil)

	fl := &fakeLock{}
	runner := NewLockedRunner(newTestEngine(rules, catalog), fl, newTestLogger())

	summary, err := runner.Run(ctx, evalTime)

	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 1, fl.acquired)
	assert.Equal(t, 1, fl.released)
	assert.False(t, fl.held)
}

func TestLockedRunner_ConcurrentRunRejected(t *testing.T) {
	rules := new(mockRuleRepository)
	catalog := new(mockCatalogRepository)
	ctx := context.Background()

	fl := &fakeLock{held: true}
	runner := NewLockedRunner(newTestEngine(rules, catalog), fl, newTestLogger())

	summary, err := runner.Run(ctx, evalTime)

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, lock.ErrAlreadyRunning)
	catalog.AssertNotCalled(t, "ClearExpiredCampaigns", mock.Anything, mock.Anything)
}

func TestLockedRunner_AcquireFailurePropagates(t *testing.T) {
	rules := new(mockRuleRepository)
	catalog := new(mockCatalogRepository)
	ctx := context.Background()

	fl := &fakeLock{acquireErr: errors.New("redis unavailable")}
	runner := NewLockedRunner(newTestEngine(rules, catalog), fl, newTestLogger())

	summary, err := runner.Run(ctx, evalTime)

	assert.Nil(t, summary)
	assert.ErrorContains(t, err, "redis unavailable")
}
