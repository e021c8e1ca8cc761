package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplicationTransitions_PaidPlan(t *testing.T) {
	app := &FarmApplication{RequestedPlan: PlanProfessional, Status: AppStatusPending}

	// 付费套餐必须先上传付款凭证
	require.True(t, app.CanTransitionTo(AppStatusPaymentUploaded))
	require.False(t, app.CanTransitionTo(AppStatusUnderReview))
	require.False(t, app.CanTransitionTo(AppStatusApproved))
	require.True(t, app.CanTransitionTo(AppStatusRejected))

	app.Status = AppStatusPaymentUploaded
	require.True(t, app.CanTransitionTo(AppStatusUnderReview))
	require.False(t, app.CanTransitionTo(AppStatusApproved))
	require.False(t, app.CanTransitionTo(AppStatusPending))

	app.Status = AppStatusUnderReview
	require.True(t, app.CanTransitionTo(AppStatusApproved))
	require.True(t, app.CanTransitionTo(AppStatusRejected))
	require.False(t, app.CanTransitionTo(AppStatusPaymentUploaded))
}

func TestApplicationTransitions_FreePlanSkipsPayment(t *testing.T) {
	app := &FarmApplication{RequestedPlan: PlanFree, Status: AppStatusPending}

	require.False(t, app.RequiresPayment())
	// 免费套餐直达审核，不经过付款上传
	require.True(t, app.CanTransitionTo(AppStatusUnderReview))
	require.False(t, app.CanTransitionTo(AppStatusPaymentUploaded))
}

func TestApplicationTransitions_TerminalStatesAreFrozen(t *testing.T) {
	for _, status := range []string{AppStatusApproved, AppStatusRejected} {
		app := &FarmApplication{RequestedPlan: PlanFarm, Status: status}
		require.True(t, app.IsTerminal())
		for _, target := range []string{
			AppStatusPending, AppStatusPaymentUploaded, AppStatusUnderReview,
			AppStatusApproved, AppStatusRejected,
		} {
			require.False(t, app.CanTransitionTo(target), "status=%s target=%s", status, target)
		}
	}
}

func TestApplicationTransitions_RejectedReachableFromAnyNonTerminal(t *testing.T) {
	for _, status := range []string{AppStatusPending, AppStatusPaymentUploaded, AppStatusUnderReview} {
		app := &FarmApplication{RequestedPlan: PlanEnterprise, Status: status}
		require.True(t, app.CanTransitionTo(AppStatusRejected), "status=%s", status)
	}
}

func TestApplicationTransitions_NoSkipping(t *testing.T) {
	// pending 不能跳过必经状态直达 approved
	app := &FarmApplication{RequestedPlan: PlanProfessional, Status: AppStatusPending}
	require.False(t, app.CanTransitionTo(AppStatusApproved))

	app.Status = AppStatusPaymentUploaded
	require.False(t, app.CanTransitionTo(AppStatusApproved))
}
