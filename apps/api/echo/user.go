package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core/user"
)

type userApi struct {
	deps ServerDeps
}

func registerUserAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{deps: deps}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", auth...)
	ag.POST("/logout", api.logout)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
	ag.POST("", api.create, roleMiddleware(user.RoleAdmin))
	ag.GET("", api.query, roleMiddleware(user.RoleAdmin))
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return user.ErrInvalidCredentials
	}

	id, err := api.deps.UserSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password, data.Role)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(NewClaims(id, api.deps.Conf), api.deps.Conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Username: id.Username, Role: id.Role})
}

func (api *userApi) logout(ctx echo.Context) error {
	if err := revokeSession(ctx, api.deps.Revoker); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	claims, token, err := refreshToken(ctx, api.deps)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	id := claims.Identity()
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Username: id.Username, Role: id.Role})
}

func (api *userApi) me(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, id)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.deps.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.deps.UserSvc.Query(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

type (
	LoginRequest struct {
		Username string    `json:"username"`
		Password string    `json:"password"`
		Role     user.Role `json:"role"`
	}

	LoginResponse struct {
		Token    string    `json:"token"`
		Username string    `json:"username"`
		Role     user.Role `json:"role"`
	}
)
