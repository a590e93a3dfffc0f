package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// SubmitApplicationMessage carries a seller's onboarding request.
type SubmitApplicationMessage struct {
	UserID                     string `json:"user_id"`
	BusinessName               string `json:"business_name"`
	BusinessType               string `json:"business_type"`
	BusinessAddress            string `json:"business_address"`
	BusinessRegistrationNumber string `json:"business_registration_number"`
	GSTNumber                  string `json:"gst_number"`
	ContactPhone               string `json:"contact_phone"`
	PhoneRegion                string `json:"phone_region"`
	BankName                   string `json:"bank_name"`
	BankAccountNumber          string `json:"bank_account_number"`
	IFSCCode                   string `json:"ifsc_code"`
	AccountHolderName          string `json:"account_holder_name"`
}

func (e SubmitApplicationMessage) Type() string { return "seller.application.submit" }

// Validate checks the payload before any persistence work happens.
func (e SubmitApplicationMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.UserID, validation.Required, is.UUID),
		validation.Field(&e.BusinessName, validation.Required, validation.Length(1, 255)),
		validation.Field(&e.BusinessType, validation.Required, validation.Length(1, 100)),
		validation.Field(&e.BusinessAddress, validation.Required),
		validation.Field(&e.ContactPhone, validation.Required),
		validation.Field(&e.BankName, validation.Required),
		validation.Field(&e.BankAccountNumber, validation.Required),
		validation.Field(&e.IFSCCode, validation.Required, validation.Length(11, 11)),
		validation.Field(&e.AccountHolderName, validation.Required),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid application payload")
	}

	region := e.PhoneRegion
	if region == "" {
		region = "IN"
	}

	parsed, err := phonenumbers.Parse(e.ContactPhone, region)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid contact phone").
			WithTextCode("INVALID_CONTACT_PHONE")
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return goerrors.New("contact phone is not a valid number", goerrors.CategoryValidation).
			WithTextCode("INVALID_CONTACT_PHONE")
	}

	return nil
}

// SubmitApplicationHandler persists the application inside a transaction and
// publishes the submission event.
type SubmitApplicationHandler struct {
	repo         RepositoryManager
	activitySink ActivitySink
	logger       Logger
}

// NewSubmitApplicationHandler creates the handler.
func NewSubmitApplicationHandler(repo RepositoryManager, sink ActivitySink, logger Logger) *SubmitApplicationHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &SubmitApplicationHandler{
		repo:         repo,
		activitySink: normalizeActivitySink(sink),
		logger:       logger,
	}
}

func (h *SubmitApplicationHandler) Execute(ctx context.Context, event SubmitApplicationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during application submission",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SubmitApplicationHandler) execute(ctx context.Context, event SubmitApplicationMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	ownerID, err := uuid.Parse(event.UserID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid owner id")
	}

	app := &SellerApplication{
		UserID:                     ownerID,
		BusinessName:               event.BusinessName,
		BusinessType:               event.BusinessType,
		BusinessAddress:            event.BusinessAddress,
		BusinessRegistrationNumber: event.BusinessRegistrationNumber,
		GSTNumber:                  event.GSTNumber,
		ContactPhone:               event.ContactPhone,
		BankName:                   event.BankName,
		BankAccountNumber:          event.BankAccountNumber,
		IFSCCode:                   event.IFSCCode,
		AccountHolderName:          event.AccountHolderName,
		Status:                     StatusPending,
	}

	// Deterministic ID so a retried submission cannot mint a second record.
	if id, err := hashid.NewUUID("seller-application:" + ownerID.String()); err == nil {
		app.ID = id
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.SellerApplications().SubmitTx(ctx, tx, app)
		if err != nil {
			return err
		}
		app = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "application submission transaction failed")
	}

	if sinkErr := h.activitySink.Record(ctx, ActivityEvent{
		EventType: ActivityEventAppSubmitted,
		Actor:     ActorRef{ID: ownerID.String(), Type: "user"},
		UserID:    ownerID.String(),
		ToStatus:  StatusPending,
		Metadata:  map[string]any{"business_name": event.BusinessName},
	}); sinkErr != nil {
		h.logger.Warn("submit application activity sink error: %v", sinkErr)
	}

	return nil
}
