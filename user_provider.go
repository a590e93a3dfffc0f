package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UserDirectory is the slice of the users repository the provider needs.
// Users satisfies it.
type UserDirectory interface {
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// LocalIdentityProvider implements IdentityProvider against the local users
// table, issuing HS256 session tokens.
type LocalIdentityProvider struct {
	users  UserDirectory
	tokens TokenService
	logger Logger

	mu         sync.Mutex
	listeners  map[int]func(SessionChangeEvent)
	nextListID int

	// requireConfirmedEmail rejects sign ins until the account confirms
	// its address. Off by default so local deployments work out of the box.
	requireConfirmedEmail bool
}

// LocalIdentityProviderOption customizes provider construction.
type LocalIdentityProviderOption func(*LocalIdentityProvider)

// WithProviderLogger overrides the default logger.
func WithProviderLogger(logger Logger) LocalIdentityProviderOption {
	return func(p *LocalIdentityProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRequireConfirmedEmail makes sign in fail with ErrAccountUnconfirmed
// for accounts that have not confirmed their email.
func WithRequireConfirmedEmail() LocalIdentityProviderOption {
	return func(p *LocalIdentityProvider) {
		p.requireConfirmedEmail = true
	}
}

// NewLocalIdentityProvider creates a provider backed by the users repository.
func NewLocalIdentityProvider(users UserDirectory, tokens TokenService, opts ...LocalIdentityProviderOption) *LocalIdentityProvider {
	p := &LocalIdentityProvider{
		users:     users,
		tokens:    tokens,
		logger:    defLogger{},
		listeners: map[int]func(SessionChangeEvent){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

var _ IdentityProvider = &LocalIdentityProvider{}

// SignUp creates the identity record and returns a signed in session. The
// metadata map is stored verbatim; the role tag lives under "role".
func (p *LocalIdentityProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*ProviderSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email is required", errors.CategoryBadInput)
	}

	if _, err := p.users.GetByIdentifier(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "sign up lookup failed")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid password")
	}

	displayName, _ := metadata["display_name"].(string)

	record := &User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		Metadata:     metadata,
	}

	user, err := p.users.Register(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "sign up failed")
	}

	session, err := p.sessionFor(user)
	if err != nil {
		return nil, err
	}

	p.emit(SessionChangeEvent{Type: SessionChangeSignedIn, Session: session})

	return session, nil
}

// SignIn verifies credentials and returns a fresh session. Unknown emails
// and wrong passwords both map to ErrMismatchedHashAndPassword.
func (p *LocalIdentityProvider) SignIn(ctx context.Context, email, password string) (*ProviderSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := p.users.GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// Burn a comparison so unknown emails cost the same as bad
			// passwords.
			_ = ComparePasswordAndHash(password, RandomPasswordHash())
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "sign in lookup failed")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	if p.requireConfirmedEmail && !user.EmailConfirmed {
		return nil, ErrAccountUnconfirmed
	}

	if err := p.users.TrackSuccessfulLogin(ctx, user); err != nil {
		p.logger.Warn("could not track successful login: %v", err)
	}

	session, err := p.sessionFor(user)
	if err != nil {
		return nil, err
	}

	p.emit(SessionChangeEvent{Type: SessionChangeSignedIn, Session: session})

	return session, nil
}

// SignOut is a no-op server side since tokens are stateless; it still emits
// the signed out event so stores observing this provider converge.
func (p *LocalIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	p.emit(SessionChangeEvent{Type: SessionChangeSignedOut})
	return nil
}

// SessionFromToken resolves the session carried by accessToken. Expired
// tokens emit a SessionChangeExpired event before returning the error.
func (p *LocalIdentityProvider) SessionFromToken(ctx context.Context, accessToken string) (*ProviderSession, error) {
	claims, err := p.tokens.Validate(accessToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			p.emit(SessionChangeEvent{Type: SessionChangeExpired})
		}
		return nil, err
	}

	expiresAt := claims.Expires()

	return &ProviderSession{
		AccessToken: accessToken,
		Identity:    claimsIdentity{claims: claims},
		ExpiresAt:   &expiresAt,
	}, nil
}

// OnSessionChange registers fn for provider-side session events and returns
// an unsubscribe function.
func (p *LocalIdentityProvider) OnSessionChange(fn func(SessionChangeEvent)) func() {
	p.mu.Lock()
	id := p.nextListID
	p.nextListID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *LocalIdentityProvider) sessionFor(user *User) (*ProviderSession, error) {
	identity := NewIdentityFromUser(user)

	token, err := p.tokens.Generate(identity)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not issue session token")
	}

	expiresAt := time.Now().Add(time.Hour)
	if claims, err := p.tokens.Validate(token); err == nil {
		expiresAt = claims.Expires()
	}

	return &ProviderSession{
		AccessToken: token,
		Identity:    identity,
		ExpiresAt:   &expiresAt,
	}, nil
}

func (p *LocalIdentityProvider) emit(ev SessionChangeEvent) {
	p.mu.Lock()
	fns := make([]func(SessionChangeEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// userIdentity adapts a User row to the Identity interface.
type userIdentity struct {
	user *User
}

// NewIdentityFromUser projects a user record into an Identity.
func NewIdentityFromUser(user *User) Identity {
	return userIdentity{user: user}
}

func (u userIdentity) ID() string {
	return u.user.ID.String()
}

func (u userIdentity) Email() string {
	return u.user.Email
}

func (u userIdentity) DisplayName() string {
	return u.user.DisplayName
}

func (u userIdentity) Metadata() map[string]any {
	return u.user.Metadata
}

var _ Identity = userIdentity{}
