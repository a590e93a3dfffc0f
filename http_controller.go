package auth

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterMarketplaceRoutes mounts the auth, onboarding, and admin routes.
func RegisterMarketplaceRoutes[T any](app router.Router[T], opts ...MarketplaceControllerOption) {
	controller := NewMarketplaceController(opts...)

	app.Get(controller.Routes.Auth, controller.AuthShow).SetName("auth.get")
	app.Post(controller.Routes.Login, controller.LoginPost).SetName("login.post")
	app.Post(controller.Routes.SignUp, controller.SignUpPost).SetName("signup.post")
	app.Get(controller.Routes.Logout, controller.LogOut).SetName("logout.get")

	app.Get(controller.Routes.AdminLogin, controller.AdminLoginShow).SetName("admin-login.get")
	app.Post(controller.Routes.AdminLogin, controller.AdminLoginPost).SetName("admin-login.post")
	app.Get(controller.Routes.AdminLogout, controller.AdminLogOut).SetName("admin-logout.get")

	app.Post(controller.Routes.Application, controller.ApplicationSubmit).SetName("application.post")
	app.Post(
		fmt.Sprintf("%s/:id/review", controller.Routes.AdminApplications),
		controller.ApplicationReview,
	).SetName("application-review.post")
}

type MarketplaceControllerRoutes struct {
	Auth              string
	Login             string
	SignUp            string
	Logout            string
	Home              string
	AdminLogin        string
	AdminLogout       string
	Application       string
	AdminApplications string
}

type MarketplaceControllerViews struct {
	Auth       string
	AdminLogin string
	Dashboard  string
}

type MarketplaceController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Sessions     *SessionStore
	Admins       *AdminSessionStore
	Submitter    *SubmitApplicationHandler
	Reviewer     *ReviewApplicationHandler
	Routes       *MarketplaceControllerRoutes
	Views        *MarketplaceControllerViews
	Gates        *GateMiddleware
	ErrorHandler router.ErrorHandler
}

type MarketplaceControllerOption func(*MarketplaceController) *MarketplaceController

// WithControllerConfig pulls the auth, admin login, and home routes from the
// given Config. Apply it before route overrides.
func WithControllerConfig(cfg Config) MarketplaceControllerOption {
	return func(c *MarketplaceController) *MarketplaceController {
		if cfg == nil {
			return c
		}
		c.Routes.Auth = cfg.GetAuthRoute()
		c.Routes.AdminLogin = cfg.GetAdminLoginRoute()
		c.Routes.Home = cfg.GetHomeRoute()
		return c
	}
}

// WithControllerRepo sets the repository manager.
func WithControllerRepo(repo RepositoryManager) MarketplaceControllerOption {
	return func(c *MarketplaceController) *MarketplaceController {
		c.Repo = repo
		return c
	}
}

// WithControllerSessions sets the end user session store.
func WithControllerSessions(sessions *SessionStore) MarketplaceControllerOption {
	return func(c *MarketplaceController) *MarketplaceController {
		c.Sessions = sessions
		return c
	}
}

// WithControllerAdmins sets the admin session store.
func WithControllerAdmins(admins *AdminSessionStore) MarketplaceControllerOption {
	return func(c *MarketplaceController) *MarketplaceController {
		c.Admins = admins
		return c
	}
}

// WithControllerHandlers sets the command handlers.
func WithControllerHandlers(submitter *SubmitApplicationHandler, reviewer *ReviewApplicationHandler) MarketplaceControllerOption {
	return func(c *MarketplaceController) *MarketplaceController {
		c.Submitter = submitter
		c.Reviewer = reviewer
		return c
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(logger Logger) MarketplaceControllerOption {
	return func(c *MarketplaceController) *MarketplaceController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerDebug enables payload debug printing.
func WithControllerDebug(debug bool) MarketplaceControllerOption {
	return func(c *MarketplaceController) *MarketplaceController {
		c.Debug = debug
		return c
	}
}

func NewMarketplaceController(opts ...MarketplaceControllerOption) *MarketplaceController {
	c := &MarketplaceController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Gates:        NewGateMiddleware(),
		Routes: &MarketplaceControllerRoutes{
			Auth:              DefaultAuthRoute,
			Login:             "/auth/login",
			SignUp:            "/auth/signup",
			Logout:            "/logout",
			Home:              DefaultHomeRoute,
			AdminLogin:        DefaultAdminLoginRoute,
			AdminLogout:       "/admin-logout",
			Application:       "/seller/application",
			AdminApplications: "/admin/applications",
		},
		Views: &MarketplaceControllerViews{
			Auth:       "auth",
			AdminLogin: "admin_login",
			Dashboard:  "seller_dashboard",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in marketplace controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionStore in marketplace controller...")
	}

	if c.Admins == nil {
		panic("Missing AdminSessionStore in marketplace controller...")
	}

	return c
}

func (a *MarketplaceController) AuthShow(ctx router.Context) error {
	return ctx.Render(a.Views.Auth, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *MarketplaceController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Auth, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	if err := a.Sessions.SignIn(ctx.Context(), payload.Email, payload.Password); err != nil {
		a.Logger.Error("login error: %v", err)
		return ctx.Render(a.Views.Auth, router.ViewContext{
			"errors":  map[string]string{"authentication": "Authentication Error"},
			"payload": payload,
		})
	}

	redirect := a.Gates.RedirectAfterLogin(ctx, a.Routes.Home)

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

// SignUpRequest is the registration payload. Role selects the buyer or
// seller track; anything else collapses to buyer.
type SignUpRequest struct {
	Email           string `form:"email" json:"email"`
	DisplayName     string `form:"display_name" json:"display_name"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	Role            string `form:"role" json:"role"`
}

// Validate will validate the payload
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.DisplayName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *MarketplaceController) SignUpPost(ctx router.Context) error {
	payload := new(SignUpRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign up parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Auth, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("sign up validate payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Auth, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	role, _ := ParseRole(payload.Role)

	if err := a.Sessions.SignUp(ctx.Context(), payload.Email, payload.Password, payload.DisplayName, role); err != nil {
		a.Logger.Error("sign up error: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating account",
		}).Render(a.Views.Auth, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Welcome aboard",
	}).Redirect(a.Routes.Home, fiber.StatusSeeOther)
}

func (a *MarketplaceController) LogOut(ctx router.Context) error {
	a.Sessions.SignOut(ctx.Context())
	return ctx.Redirect(a.Routes.Home, router.StatusTemporaryRedirect)
}

func (a *MarketplaceController) AdminLoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.AdminLogin, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (a *MarketplaceController) AdminLoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.AdminLogin, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if _, err := a.Admins.Login(ctx.Context(), payload.Email, payload.Password); err != nil {
		a.Logger.Error("admin login error: %v", err)
		return ctx.Render(a.Views.AdminLogin, router.ViewContext{
			"errors":  map[string]string{"authentication": "Authentication Error"},
			"payload": payload,
		})
	}

	return ctx.Redirect("/admin", router.StatusSeeOther)
}

func (a *MarketplaceController) AdminLogOut(ctx router.Context) error {
	a.Admins.Logout(ctx.Context())
	return ctx.Redirect(a.Routes.AdminLogin, router.StatusTemporaryRedirect)
}

func (a *MarketplaceController) ApplicationSubmit(ctx router.Context) error {
	identity, ok := a.Sessions.Identity()
	if !ok {
		return ctx.Redirect(a.Routes.Auth, router.StatusSeeOther)
	}

	payload := new(SubmitApplicationMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload.UserID = identity.ID()

	if a.Debug {
		fmt.Println("======= APPLICATION SUBMIT ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=================================")
	}

	if err := a.Submitter.Execute(ctx.Context(), *payload); err != nil {
		if IsDuplicateApplication(err) {
			return flash.WithError(ctx, router.ViewContext{
				"error_message":  "You have already submitted an application",
				"system_message": "Duplicate application",
			}).Status(fiber.StatusConflict).Render(a.Views.Dashboard, router.ViewContext{
				"record": payload,
			})
		}

		a.Logger.Error("application submit error: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error submitting application",
		}).Render(a.Views.Dashboard, router.ViewContext{
			"record": payload,
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Application submitted for review",
	}).Redirect("/seller/dashboard", fiber.StatusSeeOther)
}

func (a *MarketplaceController) ApplicationReview(ctx router.Context) error {
	admin, ok := a.Admins.Current()
	if !ok {
		return ctx.Redirect(a.Routes.AdminLogin, router.StatusSeeOther)
	}

	payload := new(ReviewApplicationMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload.AdminID = admin.ID
	payload.ApplicationID = ctx.Param("id")

	if err := a.Reviewer.Execute(ctx.Context(), *payload); err != nil {
		a.Logger.Error("application review error: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error reviewing application",
		}).Redirect("/admin", fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Application updated",
	}).Redirect("/admin", fiber.StatusSeeOther)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field-to-message map for view rendering.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
