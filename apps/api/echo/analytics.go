package echoapi

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core/analytics"
	"github.com/trezcool/kazi/core/user"
)

const exportFilename = "kazi-analytics.xlsx"

type analyticsApi struct {
	deps ServerDeps
}

func registerAnalyticsAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps ServerDeps) {
	api := analyticsApi{deps: deps}

	mw := append(auth[:len(auth):len(auth)], roleMiddleware(user.RoleAdmin))
	ag := g.Group("/analytics", mw...)
	ag.GET("", api.report)
	ag.GET("/export", api.export)
}

func (api *analyticsApi) report(ctx echo.Context) error {
	rep, err := api.deps.AnalyticsSvc.Report(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *analyticsApi) export(ctx echo.Context) error {
	projects, err := api.deps.ProjectSvc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing projects")
	}

	var buf bytes.Buffer
	if err = analytics.WriteWorkbook(&buf, projects, analytics.NewReport(projects)); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": exportFilename}),
	)
	return ctx.Blob(http.StatusOK, analytics.WorkbookContentType, buf.Bytes())
}
