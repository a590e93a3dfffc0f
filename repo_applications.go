package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SellerApplications is the persistence surface for seller onboarding
// applications. Submission enforces the one-per-owner rule; review moves
// through the lifecycle state machine.
type SellerApplications interface {
	repository.Repository[*SellerApplication]

	Submit(ctx context.Context, app *SellerApplication) (*SellerApplication, error)
	SubmitTx(ctx context.Context, tx bun.IDB, app *SellerApplication) (*SellerApplication, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*SellerApplication, error)
	GetByOwnerTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) (*SellerApplication, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ApplicationStatus, opts ...StatusUpdateOption) (*SellerApplication, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status ApplicationStatus, opts ...StatusUpdateOption) (*SellerApplication, error)
	Approve(ctx context.Context, actor ActorRef, app *SellerApplication, opts ...TransitionOption) (*SellerApplication, error)
	Reject(ctx context.Context, actor ActorRef, app *SellerApplication, opts ...TransitionOption) (*SellerApplication, error)
}

type sellerApplications struct {
	repository.Repository[*SellerApplication]
	db                  *bun.DB
	stateMachine        ApplicationStateMachine
	stateMachineOptions []StateMachineOption
}

var (
	_ SellerApplications      = (*sellerApplications)(nil)
	_ SellerApplicationLookup = (*sellerApplications)(nil)
	_ applicationStatusStore  = (*sellerApplications)(nil)
)

// SellerApplicationsOption customizes repository construction.
type SellerApplicationsOption func(*sellerApplications)

// WithApplicationsStateMachine injects a preconfigured lifecycle machine.
func WithApplicationsStateMachine(sm ApplicationStateMachine) SellerApplicationsOption {
	return func(s *sellerApplications) {
		s.stateMachine = sm
	}
}

// WithApplicationsStateMachineOptions configures the lazily built lifecycle
// machine, e.g. auth.WithResubmission().
func WithApplicationsStateMachineOptions(options ...StateMachineOption) SellerApplicationsOption {
	return func(s *sellerApplications) {
		if len(options) == 0 {
			return
		}
		s.stateMachineOptions = append(s.stateMachineOptions, options...)
		s.stateMachine = nil
	}
}

// NewSellerApplicationsRepository creates the bun-backed applications
// repository.
func NewSellerApplicationsRepository(db *bun.DB, opts ...SellerApplicationsOption) SellerApplications {
	repo := repository.NewRepository[*SellerApplication](db, repository.ModelHandlers[*SellerApplication]{
		NewRecord: func() *SellerApplication { return &SellerApplication{} },
		GetID: func(a *SellerApplication) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *SellerApplication, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	apps := &sellerApplications{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(apps)
		}
	}

	return apps
}

func (a *sellerApplications) Submit(ctx context.Context, app *SellerApplication) (*SellerApplication, error) {
	return a.SubmitTx(ctx, a.db, app)
}

// SubmitTx inserts the application for its owner. A prior application, in
// any status, makes the submission fail with ErrApplicationExists; the
// unique index on user_id backstops concurrent submitters.
func (a *sellerApplications) SubmitTx(ctx context.Context, tx bun.IDB, app *SellerApplication) (*SellerApplication, error) {
	if app == nil {
		return nil, errors.New("application is required", errors.CategoryBadInput)
	}

	if _, err := a.GetByOwnerTx(ctx, tx, app.UserID); err == nil {
		return nil, ErrApplicationExists
	} else if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	prepareApplicationDefaults(app)

	created, err := a.Repository.CreateTx(ctx, tx, app)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrApplicationExists
		}
		return nil, err
	}

	return created, nil
}

func (a *sellerApplications) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*SellerApplication, error) {
	return a.GetByOwnerTx(ctx, a.db, ownerID)
}

func (a *sellerApplications) GetByOwnerTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) (*SellerApplication, error) {
	record := &SellerApplication{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", ownerID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": ownerID.String(),
				})
		}
		return nil, err
	}

	record.EnsureStatus()
	return record, nil
}

func (a *sellerApplications) UpdateStatus(ctx context.Context, id uuid.UUID, status ApplicationStatus, opts ...StatusUpdateOption) (*SellerApplication, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status, opts...)
}

func (a *sellerApplications) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status ApplicationStatus, opts ...StatusUpdateOption) (*SellerApplication, error) {
	record := &SellerApplication{
		ID:     id,
		Status: status,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(record)
		}
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func (a *sellerApplications) Approve(ctx context.Context, actor ActorRef, app *SellerApplication, opts ...TransitionOption) (*SellerApplication, error) {
	return a.lifecycleMachine().Transition(ctx, actor, app, StatusApproved, opts...)
}

func (a *sellerApplications) Reject(ctx context.Context, actor ActorRef, app *SellerApplication, opts ...TransitionOption) (*SellerApplication, error) {
	return a.lifecycleMachine().Transition(ctx, actor, app, StatusRejected, opts...)
}

func (a *sellerApplications) lifecycleMachine() ApplicationStateMachine {
	if a.stateMachine == nil {
		a.stateMachine = NewApplicationStateMachine(a, a.stateMachineOptions...)
	}
	return a.stateMachine
}

// StatusUpdateOption mutates the application record before persisting a
// status change.
type StatusUpdateOption func(*SellerApplication)

// WithAdminNotes records reviewer notes alongside the status change.
func WithAdminNotes(notes string) StatusUpdateOption {
	return func(a *SellerApplication) {
		a.AdminNotes = notes
	}
}

func prepareApplicationDefaults(record *SellerApplication) {
	if record == nil {
		return
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// isUniqueViolation detects unique index violations across the dialects we
// validate against.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// isNotFound reports whether err is a repository record-not-found failure.
func isNotFound(err error) bool {
	return repository.IsRecordNotFound(err)
}
