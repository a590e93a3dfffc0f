package auth

// Default routes used by gates when not overridden.
const (
	DefaultAuthRoute       = "/auth"
	DefaultHomeRoute       = "/"
	DefaultAdminLoginRoute = "/admin-login"
)

// DecisionOutcome enumerates what a gate wants the caller to do.
type DecisionOutcome string

const (
	// DecisionAllow renders the protected surface.
	DecisionAllow DecisionOutcome = "allow"
	// DecisionRedirect sends the caller to Decision.RedirectTo. There is no
	// intermediate denied rendering; the redirect is the whole answer.
	DecisionRedirect DecisionOutcome = "redirect"
	// DecisionDefer means session state is still resolving; render nothing
	// yet and ask again.
	DecisionDefer DecisionOutcome = "defer"
)

// Decision is a gate verdict. Gates are pure: they never mutate session
// state, so evaluating one twice for the same state yields the same result.
type Decision struct {
	Outcome    DecisionOutcome
	RedirectTo string
}

// Allow builds the allow decision.
func Allow() Decision {
	return Decision{Outcome: DecisionAllow}
}

// Redirect builds a redirect decision to path.
func Redirect(path string) Decision {
	return Decision{Outcome: DecisionRedirect, RedirectTo: path}
}

// Defer builds the defer decision.
func Defer() Decision {
	return Decision{Outcome: DecisionDefer}
}

// RoleGate guards end user surfaces by role. Unauthenticated callers go to
// the auth route; authenticated callers whose role is not allowed go home.
type RoleGate struct {
	sessions  *SessionStore
	allowed   map[Role]struct{}
	authRoute string
	homeRoute string
}

// RoleGateOption customizes role gate construction.
type RoleGateOption func(*RoleGate)

// WithGateAuthRoute overrides the redirect target for unauthenticated
// callers.
func WithGateAuthRoute(route string) RoleGateOption {
	return func(g *RoleGate) {
		if route != "" {
			g.authRoute = route
		}
	}
}

// WithGateHomeRoute overrides the redirect target for role mismatches.
func WithGateHomeRoute(route string) RoleGateOption {
	return func(g *RoleGate) {
		if route != "" {
			g.homeRoute = route
		}
	}
}

// NewRoleGate creates a gate allowing only the given roles. An empty allowed
// list means any authenticated user passes.
func NewRoleGate(sessions *SessionStore, allowed []Role, opts ...RoleGateOption) *RoleGate {
	g := &RoleGate{
		sessions:  sessions,
		allowed:   map[Role]struct{}{},
		authRoute: DefaultAuthRoute,
		homeRoute: DefaultHomeRoute,
	}

	for _, role := range allowed {
		g.allowed[role] = struct{}{}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Guard evaluates the gate against current session state.
func (g *RoleGate) Guard() Decision {
	if g.sessions.Loading() {
		return Defer()
	}

	identity, ok := g.sessions.Identity()
	if !ok {
		return Redirect(g.authRoute)
	}

	if len(g.allowed) == 0 {
		return Allow()
	}

	if _, ok := g.allowed[EffectiveRole(identity)]; !ok {
		return Redirect(g.homeRoute)
	}

	return Allow()
}

// AdminGate guards administrator surfaces. It reads only the admin session
// store; end user sessions are irrelevant here.
type AdminGate struct {
	admins     *AdminSessionStore
	loginRoute string
}

// AdminGateOption customizes admin gate construction.
type AdminGateOption func(*AdminGate)

// WithAdminGateLoginRoute overrides the redirect target for callers without
// an admin session.
func WithAdminGateLoginRoute(route string) AdminGateOption {
	return func(g *AdminGate) {
		if route != "" {
			g.loginRoute = route
		}
	}
}

// NewAdminGate creates a gate over the admin session store.
func NewAdminGate(admins *AdminSessionStore, opts ...AdminGateOption) *AdminGate {
	g := &AdminGate{
		admins:     admins,
		loginRoute: DefaultAdminLoginRoute,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Guard evaluates the gate against current admin session state.
func (g *AdminGate) Guard() Decision {
	if g.admins.Loading() {
		return Defer()
	}

	if _, ok := g.admins.Current(); !ok {
		return Redirect(g.loginRoute)
	}

	return Allow()
}
