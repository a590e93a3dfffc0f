package auth

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// rejectedRouteCookie remembers where a redirected caller was headed so a
// later sign in can send them back.
const rejectedRouteCookie = "rejected_route"

// GateMiddleware translates gate decisions for HTTP routes. A deferred
// decision answers 503 with Retry-After rather than guessing; redirects use
// 303 for mutations and 302 for reads.
type GateMiddleware struct {
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

// NewGateMiddleware creates the middleware helper.
func NewGateMiddleware(opts ...func(*GateMiddleware)) *GateMiddleware {
	m := &GateMiddleware{
		Logger: defLogger{},
	}
	m.ErrorHandler = m.defaultErrHandler

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// RequireRole guards a route with a role gate.
func (m *GateMiddleware) RequireRole(gate *RoleGate) router.MiddlewareFunc {
	return m.guarded(func() Decision { return gate.Guard() })
}

// RequireAdmin guards a route with the admin gate.
func (m *GateMiddleware) RequireAdmin(gate *AdminGate) router.MiddlewareFunc {
	return m.guarded(func() Decision { return gate.Guard() })
}

func (m *GateMiddleware) guarded(guard func() Decision) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			decision := guard()

			switch decision.Outcome {
			case DecisionAllow:
				return hf(c)
			case DecisionDefer:
				c.SetHeader("Retry-After", "1")
				return c.Status(http.StatusServiceUnavailable).SendString("session state resolving")
			case DecisionRedirect:
				m.rememberRejectedRoute(c)
				return c.Redirect(decision.RedirectTo, redirectStatus(c))
			default:
				return m.ErrorHandler(c, errors.New("unknown gate decision", errors.CategoryInternal))
			}
		}
	}
}

// RedirectAfterLogin pops the remembered route, falling back to def.
func (m *GateMiddleware) RedirectAfterLogin(c router.Context, def string) string {
	r := c.Cookies(rejectedRouteCookie)
	if r == "" {
		return def
	}
	m.clearCookie(c, rejectedRouteCookie)
	return r
}

func (m *GateMiddleware) rememberRejectedRoute(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     rejectedRouteCookie,
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (m *GateMiddleware) clearCookie(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (m *GateMiddleware) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	m.Logger.Warn(
		"gate middleware error category=%s details=%s",
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
		"error": richErr,
	})
}

func redirectStatus(c router.Context) int {
	if c.Method() == string(router.GET) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
