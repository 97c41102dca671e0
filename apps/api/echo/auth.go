package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/saadqamar22/LMS-2.0-sub000/core"
	"github.com/saadqamar22/LMS-2.0-sub000/core/authz"
	"github.com/saadqamar22/LMS-2.0-sub000/core/user"
)

const (
	tokenContextKey     = "userToken"
	principalContextKey = "principal"
	tokenAudience       = "lms"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Role  authz.Role `json:"role"`
	Email string     `json:"email,omitempty"`
	Name  string     `json:"name,omitempty"`
}

// Principal returns the caller identified by the claims.
func (c Claims) Principal() *authz.Principal {
	return &authz.Principal{UserID: c.Subject, Role: c.Role, Email: c.Email, FullName: c.Name}
}

type authenticator struct {
	conf   *core.Config
	config middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

// middleware checks the bearer token and stores the caller's authz.Principal in the context.
func (a *authenticator) middleware() echo.MiddlewareFunc {
	jwtMiddleware := middleware.JWTWithConfig(a.config)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			ctx.Set(principalContextKey, claims.Principal())
			return next(ctx)
		})
	}
}

func (a *authenticator) claims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role:  usr.Role,
		Email: usr.Email,
		Name:  usr.FullName,
	}
}

// GenerateToken returns a signed JWT token string identifying usr.
func (a *authenticator) GenerateToken(usr user.User) (string, error) {
	method := jwt.GetSigningMethod(a.config.SigningMethod)
	token := jwt.NewWithClaims(method, a.claims(usr))

	ss, err := token.SignedString(a.config.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// principal returns the authenticated caller, nil on public endpoints.
func principal(ctx echo.Context) *authz.Principal {
	if p, ok := ctx.Get(principalContextKey).(*authz.Principal); ok {
		return p
	}
	return nil
}

func (a *authenticator) refreshToken(ctx echo.Context, svc *user.Service) (string, error) {
	p := principal(ctx)
	if p == nil {
		return "", errUnauthorized
	}
	usr, err := svc.GetByID(ctx.Request().Context(), p.UserID)
	if err != nil {
		if core.IsNotFound(err) {
			return "", errUnauthorized
		}
		return "", errors.Wrap(err, "getting context user")
	}
	if !usr.IsActive {
		return "", user.ErrAccountDisabled
	}
	return a.GenerateToken(usr)
}
