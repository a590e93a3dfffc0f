package auth

// DashboardView selects which seller dashboard surface to render. Exactly
// one view matches any resolved state.
type DashboardView string

const (
	// ViewApply prompts the seller to submit an application. It is also the
	// fail-safe view for anything unrecognized.
	ViewApply DashboardView = "apply"
	// ViewUnderReview shows the read-only pending notice.
	ViewUnderReview DashboardView = "under_review"
	// ViewRejected shows the rejection outcome and any reviewer notes.
	ViewRejected DashboardView = "rejected"
	// ViewFull is the operational seller dashboard. Reachable only from an
	// explicit approved status.
	ViewFull DashboardView = "full"
)

// ViewForStatus maps an application status to its dashboard view. Unknown
// statuses degrade to ViewApply so bad data can never unlock the full
// dashboard.
func ViewForStatus(status ApplicationStatus) DashboardView {
	switch NormalizeStatus(status) {
	case StatusPending:
		return ViewUnderReview
	case StatusApproved:
		return ViewFull
	case StatusRejected:
		return ViewRejected
	default:
		return ViewApply
	}
}

// SellerDashboardState is the projection the seller dashboard renders from.
type SellerDashboardState struct {
	View DashboardView
	// CanQuerySellerData gates the dashboard's data fetches (products,
	// orders). Only an approved, fully resolved state turns it on.
	CanQuerySellerData bool
}

// DashboardStateFor projects resolved user data into dashboard state. While
// data is still loading the apply view is computed but nothing may fetch.
func DashboardStateFor(data UserData) SellerDashboardState {
	if data.Loading {
		return SellerDashboardState{View: ViewApply, CanQuerySellerData: false}
	}

	view := ViewForStatus(data.SellerStatus)

	return SellerDashboardState{
		View:               view,
		CanQuerySellerData: view == ViewFull,
	}
}
