package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

func TestStorage_AdmitReportsOldestOnReject(t *testing.T) {
	s := New()
	ctx := context.Background()
	policy := domain.ActionPolicy{Limit: 2, Window: time.Minute}
	t0 := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	ok, _, err := s.Admit(ctx, "k", policy, t0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = s.Admit(ctx, "k", policy, t0.Add(10*time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, oldest, err := s.Admit(ctx, "k", policy, t0.Add(20*time.Second))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, t0, oldest)
}

func TestStorage_RejectedRequestsAreNotRecorded(t *testing.T) {
	s := New()
	ctx := context.Background()
	policy := domain.ActionPolicy{Limit: 1, Window: time.Minute}
	t0 := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	_, _, _ = s.Admit(ctx, "k", policy, t0)
	for i := 1; i <= 5; i++ {
		ok, _, _ := s.Admit(ctx, "k", policy, t0.Add(time.Duration(i)*time.Second))
		require.False(t, ok)
	}

	ok, _, err := s.Admit(ctx, "k", policy, t0.Add(time.Minute+time.Millisecond))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStorage_SweepRemovesEmptyKeys(t *testing.T) {
	s := New()
	ctx := context.Background()
	policy := domain.ActionPolicy{Limit: 3, Window: time.Minute}
	t0 := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	_, _, _ = s.Admit(ctx, "old", policy, t0)
	_, _, _ = s.Admit(ctx, "fresh", policy, t0.Add(50*time.Second))

	removed, err := s.Sweep(ctx, time.Minute, t0.Add(90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
}
