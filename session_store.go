package auth

import (
	"context"
	"sync"
)

// SessionState is the three valued lifecycle of the end user session.
type SessionState string

const (
	// SessionLoading covers initial session restoration at process start.
	// Gates must treat it as "decision deferred", never as absent.
	SessionLoading SessionState = "loading"
	SessionAbsent  SessionState = "absent"
	SessionPresent SessionState = "present"
)

// SessionSnapshot is the value delivered to session store subscribers.
type SessionSnapshot struct {
	State    SessionState
	Identity Identity
}

// SessionStore is the single source of truth for "who is the current end
// user". State is written only by the store's own operations and the
// provider event callback; gates and resolvers only read it.
type SessionStore struct {
	provider     IdentityProvider
	tokens       CredentialStore
	logger       Logger
	activitySink ActivitySink

	mu          sync.RWMutex
	state       SessionState
	current     *ProviderSession
	subscribers map[int]func(SessionSnapshot)
	nextSubID   int

	stopProviderEvents func()
}

// SessionStoreOption customizes session store construction.
type SessionStoreOption func(*SessionStore)

// WithSessionLogger overrides the default logger.
func WithSessionLogger(logger Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionTokenStore sets durable storage for the access token so the
// session survives a process restart.
func WithSessionTokenStore(store CredentialStore) SessionStoreOption {
	return func(s *SessionStore) {
		s.tokens = store
	}
}

// WithSessionActivitySink sets the ActivitySink used to publish auth events.
func WithSessionActivitySink(sink ActivitySink) SessionStoreOption {
	return func(s *SessionStore) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// NewSessionStore creates a session store bound to the given identity
// provider. The store starts in SessionLoading; call Restore once at
// process start to resolve the initial state.
func NewSessionStore(provider IdentityProvider, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		provider:     provider,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		state:        SessionLoading,
		subscribers:  map[int]func(SessionSnapshot){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	// Out-of-band sign out (token expiry, provider-side revocation) must be
	// observed without user action.
	s.stopProviderEvents = provider.OnSessionChange(s.handleProviderEvent)

	return s
}

// Close tears down the provider event subscription.
func (s *SessionStore) Close() {
	if s.stopProviderEvents != nil {
		s.stopProviderEvents()
		s.stopProviderEvents = nil
	}
}

// State returns the current session state.
func (s *SessionStore) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading reports whether initial restoration is still in flight.
func (s *SessionStore) Loading() bool {
	return s.State() == SessionLoading
}

// Identity returns the current identity, if present.
func (s *SessionStore) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != SessionPresent || s.current == nil {
		return nil, false
	}
	return s.current.Identity, true
}

// Current returns the raw provider session and state.
func (s *SessionStore) Current() (*ProviderSession, SessionState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.state
}

// Subscribe registers fn for state change notifications and returns an
// unsubscribe function. fn is invoked with a snapshot after every write.
func (s *SessionStore) Subscribe(fn func(SessionSnapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Restore resolves the persisted session, if any. It is the only operation
// that transitions out of SessionLoading and should run once at startup.
func (s *SessionStore) Restore(ctx context.Context) {
	if s.tokens == nil {
		s.setAbsent()
		return
	}

	raw, ok, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("session restore could not read token storage: %v", err)
		s.setAbsent()
		return
	}

	if !ok || len(raw) == 0 {
		s.setAbsent()
		return
	}

	session, err := s.provider.SessionFromToken(ctx, string(raw))
	if err != nil {
		// A stale or expired token is not an error condition for the
		// caller; the user is simply signed out.
		s.logger.Info("session restore discarded stored token: %v", err)
		if clearErr := s.tokens.Clear(); clearErr != nil {
			s.logger.Warn("session restore could not clear token storage: %v", clearErr)
		}
		s.setAbsent()
		return
	}

	s.setPresent(session)
}

// SignUp creates the identity with the given role recorded in metadata. On
// failure the store state is untouched and the typed failure is returned.
func (s *SessionStore) SignUp(ctx context.Context, email, password, displayName string, role Role) error {
	if _, valid := ParseRole(role); !valid {
		role = RoleBuyer
	}

	metadata := map[string]any{
		"display_name": displayName,
		"role":         role,
	}

	session, err := s.provider.SignUp(ctx, email, password, metadata)
	if err != nil {
		return err
	}

	s.persistToken(session)
	s.setPresent(session)

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventSignUp,
		Actor:     ActorRef{ID: session.Identity.ID(), Type: "user"},
		UserID:    session.Identity.ID(),
		Metadata:  map[string]any{"role": role},
	})

	return nil
}

// SignIn resolves the identity for the given credentials. Failure leaves the
// state absent and surfaces a typed failure.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) error {
	session, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Actor:     ActorRef{Type: "unknown"},
			Metadata:  map[string]any{"email": email, "error": err.Error()},
		})
		return err
	}

	s.persistToken(session)
	s.setPresent(session)

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     ActorRef{ID: session.Identity.ID(), Type: "user"},
		UserID:    session.Identity.ID(),
	})

	return nil
}

// SignOut clears the identity. Local state clears synchronously; remote
// revocation is best-effort and failures are only logged.
func (s *SessionStore) SignOut(ctx context.Context) {
	s.mu.Lock()
	previous := s.current
	s.current = nil
	s.state = SessionAbsent
	s.mu.Unlock()

	if s.tokens != nil {
		if err := s.tokens.Clear(); err != nil {
			s.logger.Warn("sign out could not clear token storage: %v", err)
		}
	}

	s.notify()

	if previous != nil {
		if err := s.provider.SignOut(ctx, previous.AccessToken); err != nil {
			s.logger.Warn("remote sign out failed: %v", err)
		}
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventSignOut,
			Actor:     ActorRef{ID: previous.Identity.ID(), Type: "user"},
			UserID:    previous.Identity.ID(),
		})
	}
}

func (s *SessionStore) handleProviderEvent(ev SessionChangeEvent) {
	switch ev.Type {
	case SessionChangeSignedOut, SessionChangeExpired:
		s.mu.Lock()
		if s.state != SessionPresent {
			s.mu.Unlock()
			return
		}
		s.current = nil
		s.state = SessionAbsent
		s.mu.Unlock()

		if s.tokens != nil {
			if err := s.tokens.Clear(); err != nil {
				s.logger.Warn("provider event could not clear token storage: %v", err)
			}
		}
		s.notify()
	case SessionChangeSignedIn:
		if ev.Session != nil {
			s.persistToken(ev.Session)
			s.setPresent(ev.Session)
		}
	}
}

func (s *SessionStore) persistToken(session *ProviderSession) {
	if s.tokens == nil || session == nil {
		return
	}
	if err := s.tokens.Save([]byte(session.AccessToken)); err != nil {
		s.logger.Warn("could not persist session token: %v", err)
	}
}

func (s *SessionStore) setPresent(session *ProviderSession) {
	s.mu.Lock()
	s.current = session
	s.state = SessionPresent
	s.mu.Unlock()
	s.notify()
}

func (s *SessionStore) setAbsent() {
	s.mu.Lock()
	s.current = nil
	s.state = SessionAbsent
	s.mu.Unlock()
	s.notify()
}

func (s *SessionStore) notify() {
	s.mu.RLock()
	snapshot := SessionSnapshot{State: s.state}
	if s.current != nil {
		snapshot.Identity = s.current.Identity
	}
	fns := make([]func(SessionSnapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (s *SessionStore) record(ctx context.Context, event ActivityEvent) {
	sink := normalizeActivitySink(s.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("session store activity sink error: %v", err)
	}
}
