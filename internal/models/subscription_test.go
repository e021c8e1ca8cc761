package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscriptionTransitions(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{SubStatusTrial, SubStatusActive, true},
		{SubStatusTrial, SubStatusExpired, true},
		{SubStatusTrial, SubStatusCancelled, true},
		{SubStatusActive, SubStatusPastDue, true},
		{SubStatusPastDue, SubStatusActive, true},
		{SubStatusExpired, SubStatusActive, true},
		{SubStatusPendingApproval, SubStatusTrial, true},
		// cancelled 是唯一终态
		{SubStatusCancelled, SubStatusActive, false},
		{SubStatusCancelled, SubStatusTrial, false},
		{SubStatusActive, SubStatusTrial, false},
		{SubStatusExpired, SubStatusPastDue, false},
	}

	for _, tt := range tests {
		sub := &Subscription{Status: tt.from}
		require.Equal(t, tt.allowed, sub.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestSubscriptionCancellableFromAnyNonTerminal(t *testing.T) {
	for _, status := range []string{
		SubStatusTrial, SubStatusActive, SubStatusExpired, SubStatusPastDue, SubStatusPendingApproval,
	} {
		sub := &Subscription{Status: status}
		require.True(t, sub.CanTransitionTo(SubStatusCancelled), "status=%s", status)
	}
}

func TestTrialElapsed(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.True(t, (&Subscription{Status: SubStatusTrial, TrialEndsAt: &past}).TrialElapsed(now))
	require.False(t, (&Subscription{Status: SubStatusTrial, TrialEndsAt: &future}).TrialElapsed(now))
	require.False(t, (&Subscription{Status: SubStatusActive, TrialEndsAt: &past}).TrialElapsed(now))
	require.False(t, (&Subscription{Status: SubStatusTrial}).TrialElapsed(now))
}

func TestIsValidPlan(t *testing.T) {
	for _, plan := range []string{PlanFree, PlanProfessional, PlanFarm, PlanEnterprise} {
		require.True(t, IsValidPlan(plan))
	}
	require.False(t, IsValidPlan(""))
	require.False(t, IsValidPlan("platinum"))
}
