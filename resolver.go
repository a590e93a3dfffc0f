package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserData is the merged per-user view: who they are and where their seller
// onboarding stands. Consumers render from this single value.
type UserData struct {
	EffectiveRole Role
	SellerStatus  ApplicationStatus
	Loading       bool
}

// SellerApplicationLookup is the read side of the applications repository
// needed by the resolver.
type SellerApplicationLookup interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*SellerApplication, error)
}

// UserDataResolver merges the session identity with the owner's seller
// application. It is read-only; it never mutates session or application
// state.
type UserDataResolver struct {
	sessions     *SessionStore
	applications SellerApplicationLookup
	logger       Logger
}

// UserDataResolverOption customizes resolver construction.
type UserDataResolverOption func(*UserDataResolver)

// WithResolverLogger overrides the default logger.
func WithResolverLogger(logger Logger) UserDataResolverOption {
	return func(r *UserDataResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewUserDataResolver creates a resolver over the given session store and
// application lookup.
func NewUserDataResolver(sessions *SessionStore, applications SellerApplicationLookup, opts ...UserDataResolverOption) *UserDataResolver {
	r := &UserDataResolver{
		sessions:     sessions,
		applications: applications,
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Resolve computes the current UserData. Lookup failures degrade to
// StatusAbsent rather than propagating, so a flaky read never unlocks
// seller capabilities and never blocks rendering.
func (r *UserDataResolver) Resolve(ctx context.Context) UserData {
	identity, state := r.snapshot()

	if state == SessionLoading {
		return UserData{EffectiveRole: RoleBuyer, SellerStatus: StatusAbsent, Loading: true}
	}

	if identity == nil {
		return UserData{EffectiveRole: RoleBuyer, SellerStatus: StatusAbsent}
	}

	role := EffectiveRole(identity)

	data := UserData{EffectiveRole: role, SellerStatus: StatusAbsent}

	// Only sellers have an onboarding record worth fetching.
	if role != RoleSeller {
		return data
	}

	ownerID, err := uuid.Parse(identity.ID())
	if err != nil {
		r.logger.Warn("resolver could not parse owner id %q: %v", identity.ID(), err)
		return data
	}

	app, err := r.applications.GetByOwner(ctx, ownerID)
	if err != nil {
		if !isNotFound(err) {
			r.logger.Warn("resolver application lookup failed for %s: %v", ownerID, err)
		}
		return data
	}

	data.SellerStatus = NormalizeStatus(app.Status)
	return data
}

// Watch re-resolves on every session change and delivers the result to fn.
// It returns an unsubscribe function. fn also receives the initial value.
func (r *UserDataResolver) Watch(ctx context.Context, fn func(UserData)) func() {
	fn(r.Resolve(ctx))

	return r.sessions.Subscribe(func(SessionSnapshot) {
		fn(r.Resolve(ctx))
	})
}

func (r *UserDataResolver) snapshot() (Identity, SessionState) {
	session, state := r.sessions.Current()
	if state == SessionPresent && session != nil {
		return session.Identity, state
	}
	return nil, state
}
