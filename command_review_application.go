package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReviewApplicationMessage records an administrator decision on a pending
// seller application.
type ReviewApplicationMessage struct {
	AdminID       string            `json:"admin_id"`
	ApplicationID string            `json:"application_id"`
	TargetStatus  ApplicationStatus `json:"target_status"`
	Notes         string            `json:"notes"`
}

func (e ReviewApplicationMessage) Type() string { return "seller.application.review" }

// Validate checks the payload before any persistence work happens.
func (e ReviewApplicationMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.AdminID, validation.Required, is.UUID),
		// Application ids are name-based UUIDs minted at submission, so the
		// rule must accept any UUID version.
		validation.Field(&e.ApplicationID, validation.Required, is.UUID),
		validation.Field(&e.TargetStatus, validation.Required, validation.In(StatusApproved, StatusRejected, StatusPending)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid review payload")
	}
	return nil
}

// ReviewApplicationHandler runs the lifecycle transition inside a
// transaction. Illegal transitions surface as ErrInvalidTransition or
// ErrTerminalStatus from the state machine.
type ReviewApplicationHandler struct {
	repo         RepositoryManager
	stateMachine ApplicationStateMachine
	logger       Logger
}

// NewReviewApplicationHandler creates the handler. The state machine should
// share the activity sink used by the rest of the system.
func NewReviewApplicationHandler(repo RepositoryManager, sm ApplicationStateMachine, logger Logger) *ReviewApplicationHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &ReviewApplicationHandler{
		repo:         repo,
		stateMachine: sm,
		logger:       logger,
	}
}

func (h *ReviewApplicationHandler) Execute(ctx context.Context, event ReviewApplicationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during application review",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ReviewApplicationHandler) execute(ctx context.Context, event ReviewApplicationMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	appID, err := uuid.Parse(event.ApplicationID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid application id")
	}

	actor := ActorRef{ID: event.AdminID, Type: "admin"}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		app, err := h.repo.SellerApplications().GetByIDTx(ctx, tx, appID.String())
		if err != nil {
			return err
		}

		opts := []TransitionOption{}
		if event.Notes != "" {
			opts = append(opts, WithTransitionNotes(event.Notes))
		}

		_, err = h.stateMachine.TransitionTx(ctx, tx, actor, app, event.TargetStatus, opts...)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "application review transaction failed")
	}

	return nil
}
