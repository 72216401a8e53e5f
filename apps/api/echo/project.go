package echoapi

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/core/user"
)

const invalidDateText = "invalid date, expected YYYY-MM-DD"

type projectApi struct {
	deps ServerDeps
}

func registerProjectAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps ServerDeps) {
	api := projectApi{deps: deps}

	pg := g.Group("/projects", auth...)
	pg.POST("", api.submit, roleMiddleware(user.RoleStudent))
	pg.GET("", api.list)

	// detail endpoints
	pg.GET("/:id", api.retrieve, api.objectMiddleware)
	pg.GET("/:id/attachment", api.attachment, api.objectMiddleware)
	pg.PUT("/:id/evaluation", api.evaluate, roleMiddleware(user.RoleTeacher), api.objectMiddleware)
}

// Handlers

func (api *projectApi) submit(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	data := project.NewProject{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
	}
	if raw := ctx.FormValue("deadline"); raw != "" {
		deadline, pErr := core.ParseDate(raw)
		if pErr != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "deadline", Error: invalidDateText})
		}
		data.Deadline = deadline.Time
	}

	fh, err := ctx.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// no file part: the service reports the missing attachment
	case err != nil:
		return errors.Wrap(err, "reading multipart form")
	default:
		data.FileName = fh.Filename
		src, oErr := fh.Open()
		if oErr != nil {
			return errors.Wrap(oErr, "opening uploaded file")
		}
		data.File, err = io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return errors.Wrap(err, "reading uploaded file")
		}
	}

	p, err := api.deps.ProjectSvc.Submit(ctx.Request().Context(), id.Username, data)
	if err != nil {
		return errors.Wrap(err, "submitting project")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *projectApi) list(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	if id.IsStudent() {
		summaries, err := api.deps.ProjectSvc.ListForStudent(ctx.Request().Context(), id.Username)
		if err != nil {
			return errors.Wrap(err, "listing student projects")
		}
		return ctx.JSON(http.StatusOK, summaries)
	}

	projects, err := api.deps.ProjectSvc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing projects")
	}
	return ctx.JSON(http.StatusOK, projects)
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	p, err := getContextProject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) attachment(ctx echo.Context) error {
	p, err := getContextProject(ctx)
	if err != nil {
		return err
	}

	att, err := api.deps.ProjectSvc.GetAttachment(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "getting attachment")
	}
	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}),
	)
	return ctx.Blob(http.StatusOK, att.ContentType, att.Content)
}

func (api *projectApi) evaluate(ctx echo.Context) error {
	p, err := getContextProject(ctx)
	if err != nil {
		return err
	}

	var data project.Evaluation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Evaluation")
	}

	p, err = api.deps.ProjectSvc.Evaluate(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return errors.Wrap(err, "evaluating project")
	}

	api.notifyStudent(ctx, p)
	return ctx.JSON(http.StatusOK, p)
}

// notifyStudent emails the evaluation to the student, when they have an email address.
func (api *projectApi) notifyStudent(ctx echo.Context, p project.Project) {
	student, err := api.deps.UserSvc.GetByUsername(ctx.Request().Context(), p.Student)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			api.deps.Logger.Warn(fmt.Sprintf("finding student %q: %v", p.Student, err), err)
		}
		return
	}
	if student.Email == "" {
		return
	}
	api.deps.MailSvc.SendMessages(
		project.NewEvaluationNotice(p, mail.Address{Name: student.Username, Address: student.Email}),
	)
}

// objectMiddleware loads the project from the `:id` path param into the context.
// Students only see their own projects; others are reported as not found.
func (api *projectApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := getContextIdentity(ctx)
		if err != nil {
			return err
		}
		pk, err := pathID(ctx)
		if err != nil {
			return err
		}

		p, err := api.deps.ProjectSvc.Get(ctx.Request().Context(), pk)
		if err != nil {
			return errors.Wrap(err, "finding project by ID")
		}
		if id.IsStudent() && p.Student != id.Username {
			return project.ErrNotFound
		}
		ctx.Set("object", p)
		return next(ctx)
	}
}

func getContextProject(ctx echo.Context) (project.Project, error) {
	p, ok := ctx.Get("object").(project.Project)
	if !ok {
		return project.Project{}, errors.New("project not found in echo.Context")
	}
	return p, nil
}
