package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
)

// ServerDeps carries everything the HTTP surface needs.
type ServerDeps struct {
	Config    Config
	Repo      RepositoryManager
	Sessions  *SessionStore
	Admins    *AdminSessionStore
	Tokens    TokenService
	Submitter *SubmitApplicationHandler
	Reviewer  *ReviewApplicationHandler
	Logger    Logger
	Debug     bool
}

// NewServer builds a fiber-backed router with the marketplace routes
// mounted and gate middleware protecting the seller and admin surfaces.
func NewServer(deps ServerDeps) router.Server[*fiber.App] {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	cfg := deps.Config
	if cfg == nil {
		cfg = SimpleConfig{}
	}

	gates := NewGateMiddleware()
	if deps.Logger != nil {
		gates.Logger = deps.Logger
	}

	RegisterMarketplaceRoutes(srv.Router(),
		WithControllerConfig(cfg),
		WithControllerRepo(deps.Repo),
		WithControllerSessions(deps.Sessions),
		WithControllerAdmins(deps.Admins),
		WithControllerHandlers(deps.Submitter, deps.Reviewer),
		WithControllerLogger(deps.Logger),
		WithControllerDebug(deps.Debug),
	)

	sellerGate := NewRoleGate(deps.Sessions, []Role{RoleSeller},
		WithGateAuthRoute(cfg.GetAuthRoute()),
		WithGateHomeRoute(cfg.GetHomeRoute()),
	)
	adminGate := NewAdminGate(deps.Admins,
		WithAdminGateLoginRoute(cfg.GetAdminLoginRoute()),
	)

	if deps.Tokens != nil {
		srv.Router().Get("/auth/session",
			func(ctx router.Context) error {
				current, state := deps.Sessions.Current()
				if state != SessionPresent || current == nil {
					return ctx.Redirect(cfg.GetAuthRoute(), router.StatusSeeOther)
				}
				session, err := deps.Tokens.SessionFromToken(current.AccessToken)
				if err != nil {
					return ctx.Redirect(cfg.GetAuthRoute(), router.StatusSeeOther)
				}
				return ctx.JSON(router.StatusOK, session)
			},
		).SetName("auth-session.get")
	}

	srv.Router().Get("/seller/dashboard",
		func(ctx router.Context) error {
			resolver := NewUserDataResolver(deps.Sessions, deps.Repo.SellerApplications())
			state := DashboardStateFor(resolver.Resolve(ctx.Context()))
			return ctx.JSON(router.StatusOK, state)
		},
		gates.RequireRole(sellerGate),
	)

	srv.Router().Get("/admin",
		func(ctx router.Context) error {
			admin, _ := deps.Admins.Current()
			return ctx.JSON(router.StatusOK, admin)
		},
		gates.RequireAdmin(adminGate),
	)

	return srv
}
