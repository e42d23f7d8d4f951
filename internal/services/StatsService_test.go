package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timekeeper/internal/models"
)

func TestStats_SeparatesPaidFromOverride(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	seedEvents(t, s.events)

	_, err := s.users.SetPremiumUser(ctx, alice, models.GrantedPremium("order-1"), false)
	require.NoError(t, err)
	_, err = s.users.SetPremiumUser(ctx, bob, models.AdminOverride(), false)
	require.NoError(t, err)
	require.NoError(t, s.users.SetUserTimezone(ctx, "100000000000000003", "UTC"))
	_, err = s.users.SetPremiumUser(ctx, "100000000000000004", models.GrantedPremium("order-2"), false)
	require.NoError(t, err)

	st, err := NewStatsService(s.users, s.events).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Users:         4,
		PaidPremium:   2,
		AdminOverride: 1,
		Events:        5,
		ExpiredEvents: 2,
	}, st)
}

func TestStats_Empty(t *testing.T) {
	s := newServices(t)

	st, err := NewStatsService(s.users, s.events).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}
