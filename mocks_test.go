package auth_test

import (
	"context"
	"sync"

	auth "github.com/bpower/go-marketplace-auth"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockApplicationStore mocks the status persistence used by the lifecycle
// state machine.
type MockApplicationStore struct {
	mock.Mock
}

func (m *MockApplicationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status auth.ApplicationStatus, opts ...auth.StatusUpdateOption) (*auth.SellerApplication, error) {
	callArgs := []any{ctx, id, status}
	for _, opt := range opts {
		callArgs = append(callArgs, opt)
	}
	args := m.Called(callArgs...)
	if app, ok := args.Get(0).(*auth.SellerApplication); ok {
		return app, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationStore) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status auth.ApplicationStatus, opts ...auth.StatusUpdateOption) (*auth.SellerApplication, error) {
	callArgs := []any{ctx, tx, id, status}
	for _, opt := range opts {
		callArgs = append(callArgs, opt)
	}
	args := m.Called(callArgs...)
	if app, ok := args.Get(0).(*auth.SellerApplication); ok {
		return app, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockApplicationLookup mocks the read side the resolver depends on.
type MockApplicationLookup struct {
	mock.Mock
}

func (m *MockApplicationLookup) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*auth.SellerApplication, error) {
	args := m.Called(ctx, ownerID)
	if app, ok := args.Get(0).(*auth.SellerApplication); ok {
		return app, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAdminDirectory mocks the admin credential lookup.
type MockAdminDirectory struct {
	mock.Mock
}

func (m *MockAdminDirectory) FetchByEmail(ctx context.Context, email string) (*auth.AdminUser, error) {
	args := m.Called(ctx, email)
	if admin, ok := args.Get(0).(*auth.AdminUser); ok {
		return admin, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserDirectory mocks the user lookup slice the local identity provider
// depends on.
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	if user, ok := args.Get(0).(*auth.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserDirectory) Register(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	if created, ok := args.Get(0).(*auth.User); ok {
		return created, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserDirectory) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockIdentityProvider mocks the identity provider behind the session store.
type MockIdentityProvider struct {
	mock.Mock

	mu        sync.Mutex
	listeners []func(auth.SessionChangeEvent)
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*auth.ProviderSession, error) {
	args := m.Called(ctx, email, password, metadata)
	if session, ok := args.Get(0).(*auth.ProviderSession); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*auth.ProviderSession, error) {
	args := m.Called(ctx, email, password)
	if session, ok := args.Get(0).(*auth.ProviderSession); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockIdentityProvider) SessionFromToken(ctx context.Context, accessToken string) (*auth.ProviderSession, error) {
	args := m.Called(ctx, accessToken)
	if session, ok := args.Get(0).(*auth.ProviderSession); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) OnSessionChange(fn func(auth.SessionChangeEvent)) func() {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
	return func() {}
}

// Emit delivers an event to all registered listeners.
func (m *MockIdentityProvider) Emit(ev auth.SessionChangeEvent) {
	m.mu.Lock()
	fns := append([]func(auth.SessionChangeEvent){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// staticIdentity is a simple Identity stub.
type staticIdentity struct {
	id       string
	email    string
	name     string
	metadata map[string]any
}

func (s staticIdentity) ID() string               { return s.id }
func (s staticIdentity) Email() string            { return s.email }
func (s staticIdentity) DisplayName() string      { return s.name }
func (s staticIdentity) Metadata() map[string]any { return s.metadata }

func sellerIdentity(id string) staticIdentity {
	return staticIdentity{
		id:       id,
		email:    "seller@example.com",
		name:     "Seller",
		metadata: map[string]any{"role": auth.RoleSeller},
	}
}

// collectSink gathers recorded activity events for assertions.
type collectSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *collectSink) Record(_ context.Context, event auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *collectSink) Events() []auth.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]auth.ActivityEvent{}, c.events...)
}

// failingStore is a CredentialStore whose operations all error.
type failingStore struct {
	err error
}

func (f failingStore) Load() ([]byte, bool, error) { return nil, false, f.err }
func (f failingStore) Save([]byte) error           { return f.err }
func (f failingStore) Clear() error                { return f.err }
