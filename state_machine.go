package auth

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	textCodeInvalidTransition = "INVALID_APPLICATION_TRANSITION"
	textCodeTerminalStatus    = "TERMINAL_APPLICATION_STATUS"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid application status transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrTerminalStatus is returned when attempting to move away from a decided
// application. Approved is always terminal; rejected is terminal unless
// resubmission is enabled.
var ErrTerminalStatus = goerrors.New("application status is terminal", goerrors.CategoryConflict).
	WithTextCode(textCodeTerminalStatus).
	WithCode(goerrors.CodeConflict)

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Notes    string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor       ActorRef
	Application *SellerApplication
	From        ApplicationStatus
	To          ApplicationStatus
	Meta        TransitionMetadata
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionHookPhase identifies whether a hook ran before or after persistence.
type TransitionHookPhase string

const (
	HookPhaseBefore TransitionHookPhase = "before_transition"
	HookPhaseAfter  TransitionHookPhase = "after_transition"
)

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

// ApplicationStateMachine defines lifecycle operations for seller
// applications. There is deliberately no bypass option: an application
// never returns to pending or absent once decided, except through the
// explicit resubmission rule.
type ApplicationStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, app *SellerApplication, target ApplicationStatus, opts ...TransitionOption) (*SellerApplication, error)
	TransitionTx(ctx context.Context, tx bun.IDB, actor ActorRef, app *SellerApplication, target ApplicationStatus, opts ...TransitionOption) (*SellerApplication, error)
	CurrentStatus(app *SellerApplication) ApplicationStatus
}

// HookErrorHandler handles errors surfaced by transition hooks.
type HookErrorHandler func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*applicationStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *applicationStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *applicationStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineHookErrorHandler overrides how hook failures are propagated.
// Provide a handler to convert hook errors into domain-specific responses,
// otherwise the default handler panics with guidance for developers.
func WithStateMachineHookErrorHandler(handler HookErrorHandler) StateMachineOption {
	return func(sm *applicationStateMachine) {
		if handler != nil {
			sm.hookErrorHandler = handler
		}
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *applicationStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithResubmission allows rejected applications to move back to pending so
// sellers can amend and retry. Off by default.
func WithResubmission() StateMachineOption {
	return func(sm *applicationStateMachine) {
		sm.transitions[StatusRejected] = map[ApplicationStatus]struct{}{
			StatusPending: {},
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionNotes records reviewer notes on the application as part of
// the transition.
func WithTransitionNotes(notes string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Notes = notes
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// applicationStatusStore is the persistence slice the state machine needs.
type applicationStatusStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status ApplicationStatus, opts ...StatusUpdateOption) (*SellerApplication, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status ApplicationStatus, opts ...StatusUpdateOption) (*SellerApplication, error)
}

// NewApplicationStateMachine returns the default implementation backed by
// the provided repository.
func NewApplicationStateMachine(apps applicationStatusStore, opts ...StateMachineOption) ApplicationStateMachine {
	sm := &applicationStateMachine{
		apps: apps,
		transitions: map[ApplicationStatus]map[ApplicationStatus]struct{}{
			StatusPending: {
				StatusApproved: {},
				StatusRejected: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		hookErrorHandler: func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
			return defaultHookErrorHandler(ctx, phase, err, tc)
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type applicationStateMachine struct {
	apps             applicationStatusStore
	transitions      map[ApplicationStatus]map[ApplicationStatus]struct{}
	now              func() time.Time
	activitySink     ActivitySink
	logger           Logger
	hookErrorHandler HookErrorHandler
}

type transitionOptions struct {
	metadata    TransitionMetadata
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Notes:    o.metadata.Notes,
		Metadata: cloned,
	}
}

func (sm *applicationStateMachine) Transition(ctx context.Context, actor ActorRef, app *SellerApplication, target ApplicationStatus, opts ...TransitionOption) (*SellerApplication, error) {
	return sm.transition(ctx, nil, actor, app, target, opts...)
}

func (sm *applicationStateMachine) TransitionTx(ctx context.Context, tx bun.IDB, actor ActorRef, app *SellerApplication, target ApplicationStatus, opts ...TransitionOption) (*SellerApplication, error) {
	return sm.transition(ctx, tx, actor, app, target, opts...)
}

func (sm *applicationStateMachine) transition(ctx context.Context, tx bun.IDB, actor ActorRef, app *SellerApplication, target ApplicationStatus, opts ...TransitionOption) (*SellerApplication, error) {
	if app == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "application is nil",
		})
	}

	app.EnsureStatus()
	from := app.Status
	if target == "" || target == StatusAbsent {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from":   from,
			"reason": "target status is not persistable",
		})
	}

	if from == target {
		return app, nil
	}

	options := sm.buildTransitionOptions(opts...)

	if sm.isTerminal(from) {
		return nil, ErrTerminalStatus.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if !sm.canTransition(from, target) {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	ctxData := TransitionContext{
		Actor:       actor,
		Application: app,
		From:        from,
		To:          target,
		Meta:        options.cloneMetadata(),
	}

	if err := sm.runHooks(ctx, options.beforeHooks, ctxData, HookPhaseBefore); err != nil {
		return nil, err
	}

	statusOpts := []StatusUpdateOption{}
	if options.metadata.Notes != "" {
		statusOpts = append(statusOpts, WithAdminNotes(options.metadata.Notes))
	}

	var updated *SellerApplication
	var err error
	if tx != nil {
		updated, err = sm.apps.UpdateStatusTx(ctx, tx, app.ID, target, statusOpts...)
	} else {
		updated, err = sm.apps.UpdateStatus(ctx, app.ID, target, statusOpts...)
	}
	if err != nil {
		return nil, err
	}

	sm.applyUpdates(app, updated, target, options.metadata.Notes)

	if err := sm.runHooks(ctx, options.afterHooks, ctxData, HookPhaseAfter); err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventAppStatusChanged,
		Actor:      actor,
		UserID:     app.UserID.String(),
		FromStatus: from,
		ToStatus:   target,
		Metadata:   sm.transitionMetadata(ctxData.Meta),
	})

	return app, nil
}

func (sm *applicationStateMachine) CurrentStatus(app *SellerApplication) ApplicationStatus {
	if app == nil {
		return StatusAbsent
	}
	app.EnsureStatus()
	return app.Status
}

// isTerminal reports whether no transition leaves the given status.
// Approved has no outgoing edges; rejected gains one under resubmission.
func (sm *applicationStateMachine) isTerminal(from ApplicationStatus) bool {
	allowed, ok := sm.transitions[from]
	return !ok || len(allowed) == 0
}

func (sm *applicationStateMachine) canTransition(from, to ApplicationStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *applicationStateMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext, phase TransitionHookPhase) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			if sm.hookErrorHandler == nil {
				return err
			}
			return sm.hookErrorHandler(ctx, phase, err, data)
		}
	}
	return nil
}

func (sm *applicationStateMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func (sm *applicationStateMachine) applyUpdates(app, updated *SellerApplication, target ApplicationStatus, notes string) {
	if updated != nil {
		if updated.Status != "" {
			app.Status = updated.Status
		} else {
			app.Status = target
		}
		if updated.AdminNotes != "" {
			app.AdminNotes = updated.AdminNotes
		} else if notes != "" {
			app.AdminNotes = notes
		}
		return
	}

	app.Status = target
	if notes != "" {
		app.AdminNotes = notes
	}
}

func defaultHookErrorHandler(_ context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
	panic(fmt.Sprintf(
		"marketplace-auth: %s transition hook failed: %v\nApplicationID: %s from=%s to=%s reason=%s\nProvide auth.WithStateMachineHookErrorHandler to customize error handling in production.",
		phase,
		err,
		tc.Application.ID,
		tc.From,
		tc.To,
		tc.Meta.Reason,
	))
}

func (sm *applicationStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}

func (sm *applicationStateMachine) transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && meta.Notes == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	if meta.Notes != "" {
		result["notes"] = meta.Notes
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}
