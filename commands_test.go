package auth_test

import (
	"context"
	"testing"

	auth "github.com/bpower/go-marketplace-auth"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmitMessage() auth.SubmitApplicationMessage {
	return auth.SubmitApplicationMessage{
		UserID:            uuid.NewString(),
		BusinessName:      "Acme Exports",
		BusinessType:      "sole_proprietorship",
		BusinessAddress:   "42 Market Road, Pune",
		GSTNumber:         "27AAPFU0939F1ZV",
		ContactPhone:      "+91 98765 43210",
		BankName:          "State Bank",
		BankAccountNumber: "123456789012",
		IFSCCode:          "SBIN0001234",
		AccountHolderName: "Acme Exports Pvt Ltd",
	}
}

func TestSubmitApplicationMessageValid(t *testing.T) {
	msg := validSubmitMessage()
	require.NoError(t, msg.Validate())
	assert.Equal(t, "seller.application.submit", msg.Type())
}

func TestSubmitApplicationMessageMissingFields(t *testing.T) {
	msg := validSubmitMessage()
	msg.BusinessName = ""
	msg.BankName = ""

	err := msg.Validate()
	require.Error(t, err)
}

func TestSubmitApplicationMessageBadPhone(t *testing.T) {
	msg := validSubmitMessage()
	msg.ContactPhone = "12"

	err := msg.Validate()
	require.Error(t, err)
}

func TestSubmitApplicationMessageBadIFSC(t *testing.T) {
	msg := validSubmitMessage()
	msg.IFSCCode = "SHORT"

	err := msg.Validate()
	require.Error(t, err)
}

func TestSubmitApplicationMessagePhoneRegionOverride(t *testing.T) {
	msg := validSubmitMessage()
	msg.ContactPhone = "(650) 253-0000"
	msg.PhoneRegion = "US"

	require.NoError(t, msg.Validate())
}

func TestReviewApplicationMessageValid(t *testing.T) {
	msg := auth.ReviewApplicationMessage{
		AdminID:       uuid.NewString(),
		ApplicationID: uuid.NewString(),
		TargetStatus:  auth.StatusApproved,
		Notes:         "all documents verified",
	}
	require.NoError(t, msg.Validate())
	assert.Equal(t, "seller.application.review", msg.Type())
}

func TestReviewApplicationMessageRejectsUnknownTarget(t *testing.T) {
	msg := auth.ReviewApplicationMessage{
		AdminID:       uuid.NewString(),
		ApplicationID: uuid.NewString(),
		TargetStatus:  "archived",
	}
	require.Error(t, msg.Validate())
}

func TestReviewApplicationMessageAcceptsNameBasedID(t *testing.T) {
	// Submission mints name-based application ids; review validation must
	// not insist on v4.
	appID, err := hashid.NewUUID("seller-application:" + uuid.NewString())
	require.NoError(t, err)

	msg := auth.ReviewApplicationMessage{
		AdminID:       uuid.NewString(),
		ApplicationID: appID.String(),
		TargetStatus:  auth.StatusApproved,
	}
	require.NoError(t, msg.Validate())
}

func TestReviewApplicationMessageRequiresIDs(t *testing.T) {
	msg := auth.ReviewApplicationMessage{TargetStatus: auth.StatusApproved}
	require.Error(t, msg.Validate())

	msg = auth.ReviewApplicationMessage{
		AdminID:       "not-a-uuid",
		ApplicationID: uuid.NewString(),
		TargetStatus:  auth.StatusApproved,
	}
	require.Error(t, msg.Validate())
}

func TestCommandFlowSubmitThenReview(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repos := auth.NewRepositoryManager(db)

	sink := &collectSink{}
	submitter := auth.NewSubmitApplicationHandler(repos, sink, nil)
	reviewer := auth.NewReviewApplicationHandler(
		repos,
		auth.NewApplicationStateMachine(
			repos.SellerApplications(),
			auth.WithStateMachineActivitySink(sink),
		),
		nil,
	)

	ownerID := uuid.New()
	msg := validSubmitMessage()
	msg.UserID = ownerID.String()

	require.NoError(t, submitter.Execute(ctx, msg))

	err := submitter.Execute(ctx, msg)
	require.Error(t, err)
	assert.True(t, auth.IsDuplicateApplication(err))

	app, err := repos.SellerApplications().GetByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusPending, app.Status)

	// The stored id is the one minted at submission; it must round trip
	// through review validation.
	require.NoError(t, reviewer.Execute(ctx, auth.ReviewApplicationMessage{
		AdminID:       uuid.NewString(),
		ApplicationID: app.ID.String(),
		TargetStatus:  auth.StatusApproved,
		Notes:         "all documents verified",
	}))

	stored, err := repos.SellerApplications().GetByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusApproved, stored.Status)
	assert.Equal(t, "all documents verified", stored.AdminNotes)

	err = reviewer.Execute(ctx, auth.ReviewApplicationMessage{
		AdminID:       uuid.NewString(),
		ApplicationID: app.ID.String(),
		TargetStatus:  auth.StatusRejected,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrTerminalStatus)

	events := sink.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, auth.ActivityEventAppSubmitted, events[0].EventType)
	assert.Equal(t, auth.ActivityEventAppStatusChanged, events[len(events)-1].EventType)
}
