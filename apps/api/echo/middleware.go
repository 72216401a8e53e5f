package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/kazi/core/user"
)

// roleMiddleware only lets identities with one of roles through.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := getContextIdentity(ctx)
			if err != nil {
				return err
			}
			for _, role := range roles {
				if id.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
