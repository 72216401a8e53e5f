package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/user"
	"github.com/trezcool/kazi/storage/session"
)

const (
	tokenContextKey = "userToken"
	jwtAudience     = "Kazi"
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject is the username; Id identifies the session for revocation.
// OrigIssuedAt is the login time, kept across refreshes.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Role         user.Role `json:"role"`
}

func (c Claims) Identity() user.Identity {
	return user.Identity{Username: c.Subject, Role: c.Role}
}

func NewClaims(id user.Identity, conf *core.Config, origIat ...int64) *Claims {
	now := time.Now()
	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    conf.AppName,
			Subject:   id.Username,
			Audience:  jwtAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: oriat,
		Role:         id.Role,
	}
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(secretKey))
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

func getContextIdentity(ctx echo.Context) (user.Identity, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Identity{}, err
	}
	return claims.Identity(), nil
}

// sessionMiddleware rejects tokens revoked by a logout. It must run after the JWT middleware.
func sessionMiddleware(revoker session.Revoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.Identity().Role.IsValid() {
				return errUnauthorized
			}
			revoked, err := revoker.IsRevoked(ctx.Request().Context(), claims.Id)
			if err != nil {
				return errors.Wrap(err, "checking session")
			}
			if revoked {
				return errSessionRevoked
			}
			return next(ctx)
		}
	}
}

func revokeSession(ctx echo.Context, revoker session.Revoker) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	return errors.Wrap(revoker.Revoke(ctx.Request().Context(), claims.Id, ttl), "revoking session")
}

// refreshToken issues a new session for the context user and revokes the current one.
func refreshToken(ctx echo.Context, deps ServerDeps) (*Claims, string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, "", err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(deps.Conf.Server.JWTRefreshExpirationDelta)
	if claims.OrigIssuedAt == 0 || time.Now().After(expTime) {
		return nil, "", errRefreshExpired
	}

	// check if the account still exists with the same role
	usr, err := deps.UserSvc.GetByUsername(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, "", errUnauthorized
		}
		return nil, "", errors.Wrap(err, "getting context user")
	}
	if usr.Role != claims.Role {
		return nil, "", errUnauthorized
	}

	newClaims := NewClaims(usr.Identity(), deps.Conf, claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims, deps.Conf.SecretKey)
	if err != nil {
		return nil, "", errors.Wrap(err, "generating token")
	}
	if err = revokeSession(ctx, deps.Revoker); err != nil {
		return nil, "", err
	}
	return newClaims, token, nil
}
