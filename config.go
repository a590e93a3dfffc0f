package auth

// SimpleConfig is a plain struct implementation of Config.
type SimpleConfig struct {
	SigningKey      string
	TokenExpiration int
	Issuer          string
	Audience        []string
	AuthRoute       string
	AdminLoginRoute string
	HomeRoute       string
}

var _ Config = SimpleConfig{}

func (c SimpleConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return 24
	}
	return c.TokenExpiration
}

func (c SimpleConfig) GetIssuer() string {
	return c.Issuer
}

func (c SimpleConfig) GetAudience() []string {
	return c.Audience
}

func (c SimpleConfig) GetAuthRoute() string {
	if c.AuthRoute == "" {
		return DefaultAuthRoute
	}
	return c.AuthRoute
}

func (c SimpleConfig) GetAdminLoginRoute() string {
	if c.AdminLoginRoute == "" {
		return DefaultAdminLoginRoute
	}
	return c.AdminLoginRoute
}

func (c SimpleConfig) GetHomeRoute() string {
	if c.HomeRoute == "" {
		return DefaultHomeRoute
	}
	return c.HomeRoute
}
