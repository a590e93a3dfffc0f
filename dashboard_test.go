package auth_test

import (
	"testing"

	auth "github.com/bpower/go-marketplace-auth"
	"github.com/stretchr/testify/assert"
)

func TestViewForStatus(t *testing.T) {
	testCases := []struct {
		status   auth.ApplicationStatus
		expected auth.DashboardView
	}{
		{auth.StatusAbsent, auth.ViewApply},
		{auth.StatusPending, auth.ViewUnderReview},
		{auth.StatusApproved, auth.ViewFull},
		{auth.StatusRejected, auth.ViewRejected},
		{"", auth.ViewApply},
		{"garbage", auth.ViewApply},
		{"APPROVED", auth.ViewApply},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, auth.ViewForStatus(tc.status), "status %q", tc.status)
	}
}

func TestDashboardStateOnlyApprovedQueriesData(t *testing.T) {
	for _, status := range []auth.ApplicationStatus{
		auth.StatusAbsent, auth.StatusPending, auth.StatusRejected, "garbage",
	} {
		state := auth.DashboardStateFor(auth.UserData{
			EffectiveRole: auth.RoleSeller,
			SellerStatus:  status,
		})
		assert.False(t, state.CanQuerySellerData, "status %q", status)
	}

	state := auth.DashboardStateFor(auth.UserData{
		EffectiveRole: auth.RoleSeller,
		SellerStatus:  auth.StatusApproved,
	})
	assert.Equal(t, auth.ViewFull, state.View)
	assert.True(t, state.CanQuerySellerData)
}

func TestDashboardStateLoadingNeverQueries(t *testing.T) {
	state := auth.DashboardStateFor(auth.UserData{
		EffectiveRole: auth.RoleSeller,
		SellerStatus:  auth.StatusApproved,
		Loading:       true,
	})
	assert.False(t, state.CanQuerySellerData)
}
