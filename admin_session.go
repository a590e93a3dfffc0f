package auth

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/goliatone/go-errors"
)

// AdminIdentity is the serialized administrator session payload. It carries
// profile fields only; credentials never leave the directory.
type AdminIdentity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
}

// AdminDirectory resolves administrator credential records by email.
type AdminDirectory interface {
	FetchByEmail(ctx context.Context, email string) (*AdminUser, error)
}

// AdminSnapshot is the value delivered to admin session subscribers.
type AdminSnapshot struct {
	Loading bool
	Admin   *AdminIdentity
}

// AdminSessionStore tracks the administrator session. It is entirely
// separate from SessionStore; the two never read or write each other's
// state. Restoration trusts the stored payload without re-checking the
// directory, matching the cheap local restore semantics.
type AdminSessionStore struct {
	directory    AdminDirectory
	storage      CredentialStore
	logger       Logger
	activitySink ActivitySink

	mu          sync.RWMutex
	loading     bool
	current     *AdminIdentity
	subscribers map[int]func(AdminSnapshot)
	nextSubID   int
}

// AdminSessionStoreOption customizes admin session store construction.
type AdminSessionStoreOption func(*AdminSessionStore)

// WithAdminSessionLogger overrides the default logger.
func WithAdminSessionLogger(logger Logger) AdminSessionStoreOption {
	return func(s *AdminSessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAdminSessionStorage sets durable storage for the serialized admin
// identity.
func WithAdminSessionStorage(storage CredentialStore) AdminSessionStoreOption {
	return func(s *AdminSessionStore) {
		s.storage = storage
	}
}

// WithAdminSessionActivitySink sets the sink used to publish admin auth
// events.
func WithAdminSessionActivitySink(sink ActivitySink) AdminSessionStoreOption {
	return func(s *AdminSessionStore) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// NewAdminSessionStore creates the admin session store and synchronously
// restores any stored session. Because storage reads are local and cheap the
// store never surfaces a loading phase to callers after construction.
func NewAdminSessionStore(directory AdminDirectory, opts ...AdminSessionStoreOption) *AdminSessionStore {
	s := &AdminSessionStore{
		directory:    directory,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		loading:      true,
		subscribers:  map[int]func(AdminSnapshot){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.restore()

	return s
}

func (s *AdminSessionStore) restore() {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if s.storage == nil {
		return
	}

	raw, ok, err := s.storage.Load()
	if err != nil {
		s.logger.Warn("admin session restore could not read storage: %v", err)
		return
	}
	if !ok || len(raw) == 0 {
		return
	}

	var admin AdminIdentity
	if err := json.Unmarshal(raw, &admin); err != nil {
		// Corrupt payloads get cleared so the next start is clean.
		s.logger.Warn("admin session restore discarded corrupt payload: %v", err)
		if clearErr := s.storage.Clear(); clearErr != nil {
			s.logger.Warn("admin session restore could not clear storage: %v", clearErr)
		}
		return
	}

	s.mu.Lock()
	s.current = &admin
	s.mu.Unlock()
}

// Loading reports whether restoration is still in flight. It only reads
// true for observers racing the constructor.
func (s *AdminSessionStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Current returns the signed in administrator, if any.
func (s *AdminSessionStore) Current() (*AdminIdentity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	admin := *s.current
	return &admin, true
}

// Subscribe registers fn for admin session change notifications and returns
// an unsubscribe function.
func (s *AdminSessionStore) Subscribe(fn func(AdminSnapshot)) func() {
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

// Login verifies admin credentials against the directory. Unknown emails and
// wrong passwords both read as ErrMismatchedHashAndPassword; a deactivated
// record fails with ErrAdminInactive and nothing is stored.
func (s *AdminSessionStore) Login(ctx context.Context, email, password string) (*AdminIdentity, error) {
	record, err := s.directory.FetchByEmail(ctx, email)
	if err != nil {
		s.recordLoginFailure(ctx, email, ErrMismatchedHashAndPassword)
		if IsCredentialFailure(err) {
			return nil, err
		}
		// Lookup misses fold into the credential failure so callers cannot
		// probe which admin emails exist.
		if isNotFound(err) {
			_ = ComparePasswordAndHash(password, RandomPasswordHash())
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "admin login lookup failed")
	}

	if err := ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		s.recordLoginFailure(ctx, email, ErrMismatchedHashAndPassword)
		return nil, ErrMismatchedHashAndPassword
	}

	if !record.IsActive {
		s.recordLoginFailure(ctx, email, ErrAdminInactive)
		return nil, ErrAdminInactive
	}

	admin := &AdminIdentity{
		ID:       record.ID.String(),
		Email:    record.Email,
		FullName: record.FullName,
		IsActive: record.IsActive,
	}

	s.mu.Lock()
	s.current = admin
	s.mu.Unlock()

	s.persist(admin)
	s.notify()

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventAdminLoginSuccess,
		Actor:     ActorRef{ID: admin.ID, Type: "admin"},
		Metadata:  map[string]any{"email": admin.Email},
	})

	return admin, nil
}

// Logout clears the admin session. Always succeeds.
func (s *AdminSessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	previous := s.current
	s.current = nil
	s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.Clear(); err != nil {
			s.logger.Warn("admin logout could not clear storage: %v", err)
		}
	}

	s.notify()

	if previous != nil {
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventAdminLogout,
			Actor:     ActorRef{ID: previous.ID, Type: "admin"},
		})
	}
}

func (s *AdminSessionStore) persist(admin *AdminIdentity) {
	if s.storage == nil {
		return
	}
	raw, err := json.Marshal(admin)
	if err != nil {
		s.logger.Warn("could not serialize admin session: %v", err)
		return
	}
	// A failed write degrades to an in-memory session, login still succeeds.
	if err := s.storage.Save(raw); err != nil {
		s.logger.Warn("could not persist admin session: %v", err)
	}
}

func (s *AdminSessionStore) notify() {
	s.mu.RLock()
	snapshot := AdminSnapshot{Loading: s.loading}
	if s.current != nil {
		admin := *s.current
		snapshot.Admin = &admin
	}
	fns := make([]func(AdminSnapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (s *AdminSessionStore) recordLoginFailure(ctx context.Context, email string, cause error) {
	s.record(ctx, ActivityEvent{
		EventType: ActivityEventAdminLoginFailure,
		Actor:     ActorRef{Type: "unknown"},
		Metadata:  map[string]any{"email": email, "error": cause.Error()},
	})
}

func (s *AdminSessionStore) record(ctx context.Context, event ActivityEvent) {
	sink := normalizeActivitySink(s.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("admin session activity sink error: %v", err)
	}
}
