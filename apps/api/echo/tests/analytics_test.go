package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/kazi/core/analytics"
	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/core/user"
	"github.com/trezcool/kazi/tests"
)

func Test_analyticsApi(t *testing.T) {
	e := setup(t)
	admin := testutil.CreateUser(t, e.usrRepo, "admin", "", user.RoleAdmin)
	teacher := testutil.CreateUser(t, e.usrRepo, "grace", "", user.RoleTeacher)
	adminToken := getToken(t, admin)

	testutil.CreateProject(t, e.projRepo, "ada", "First", project.StatusSubmitted, null.Int{})
	testutil.CreateProject(t, e.projRepo, "ada", "Second", project.StatusCompleted, null.IntFrom(90))
	testutil.CreateProject(t, e.projRepo, "bob", "Third", project.StatusApproved, null.IntFrom(45))

	for _, path := range []string{"/v1/analytics", "/v1/analytics/export"} {
		tests := []httpTest{
			{name: path + ": Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			{name: path + ": Admin required", token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(http.MethodGet, path, tt.token)
				e.app.ServeHTTP(rec, req)
				checkCodeAndData(t, tt, rec)
			})
		}
	}

	t.Run("report", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/analytics", adminToken)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var rep analytics.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
		assert.Equal(t, 3, rep.Total)
		assert.Equal(t, map[project.Status]int{
			project.StatusSubmitted: 1,
			project.StatusApproved:  1,
			project.StatusCompleted: 1,
		}, rep.StatusDistribution)
		assert.ElementsMatch(t, []int{90, 45}, rep.Marks)
		assert.Equal(t, null.Float64From(67.5), rep.AverageMarks)
	})

	t.Run("export", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/analytics/export", adminToken)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, analytics.WorkbookContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		rows, err := f.GetRows("Projects")
		require.NoError(t, err)
		assert.Len(t, rows, 4) // header + 3 projects
	})
}
