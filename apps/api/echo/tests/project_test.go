package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/core/user"
	"github.com/trezcool/kazi/services/email"
	"github.com/trezcool/kazi/tests"
)

var pdf = []byte("%PDF-1.4 bridge")

func submitFields() map[string]string {
	return map[string]string{
		"title":       "Bridge design",
		"description": "A suspension bridge",
		"deadline":    "2024-06-30",
	}
}

func Test_projectApi_submit(t *testing.T) {
	e := setup(t)
	student := testutil.CreateUser(t, e.usrRepo, "ada", "", user.RoleStudent)
	teacher := testutil.CreateUser(t, e.usrRepo, "grace", "", user.RoleTeacher)
	token := getToken(t, student)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newUploadRequest(t, "", submitFields(), "bridge.pdf", pdf)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("Student required", func(t *testing.T) {
		req, rec := newUploadRequest(t, getToken(t, teacher), submitFields(), "bridge.pdf", pdf)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("missing file", func(t *testing.T) {
		req, rec := newUploadRequest(t, token, submitFields(), "", nil)
		e.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: project.ErrMissingAttachment.Error()}),
		}, rec)
	})

	t.Run("not multipart", func(t *testing.T) {
		tests := []struct {
			name        string
			contentType string
			body        string
		}{
			{name: "urlencoded", contentType: "application/x-www-form-urlencoded", body: "title=Bridge&deadline=2024-06-30"},
			{name: "json", contentType: "application/json", body: `{"title":"Bridge","deadline":"2024-06-30"}`},
			{name: "no body", contentType: "application/json"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodPost, "/v1/projects", strings.NewReader(tt.body))
				req.Header.Set("Content-Type", tt.contentType)
				req.Header.Set("Authorization", "Bearer "+token)
				rec := httptest.NewRecorder()
				e.app.ServeHTTP(rec, req)
				checkCodeAndData(t, httpTest{
					wantCode: http.StatusBadRequest,
					wantData: marchallObj(t, httpErr{Error: project.ErrMissingAttachment.Error()}),
				}, rec)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name       string
			modify     func(fields map[string]string)
			filename   string
			wantFields []string
		}{
			{name: "not a pdf", modify: func(map[string]string) {}, filename: "bridge.docx", wantFields: []string{"file"}},
			{name: "no title", modify: func(f map[string]string) { delete(f, "title") }, filename: "bridge.pdf", wantFields: []string{"title"}},
			{name: "no deadline", modify: func(f map[string]string) { delete(f, "deadline") }, filename: "bridge.pdf", wantFields: []string{"deadline"}},
			{name: "bad deadline", modify: func(f map[string]string) { f["deadline"] = "30/06/2024" }, filename: "bridge.pdf", wantFields: []string{"deadline"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fields := submitFields()
				tt.modify(fields)
				req, rec := newUploadRequest(t, token, fields, tt.filename, pdf)
				e.app.ServeHTTP(rec, req)
				require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
				assert.ElementsMatch(t, tt.wantFields, errorFields(t, rec))
			})
		}

		projects, err := e.projRepo.QueryProjects(context.Background())
		require.NoError(t, err)
		assert.Empty(t, projects)
	})

	t.Run("valid", func(t *testing.T) {
		req, rec := newUploadRequest(t, token, submitFields(), "bridge.pdf", pdf)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got project.Project
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "ada", got.Student)
		assert.Equal(t, "Bridge design", got.Title)
		assert.Equal(t, "2024-06-30", got.Deadline.String())
		assert.Equal(t, project.StatusSubmitted, got.Status)
		assert.False(t, got.Marks.Valid)
		assert.NotContains(t, rec.Body.String(), "projects/")

		stored, err := e.projRepo.GetProject(context.Background(), got.ID)
		require.NoError(t, err)
		content, err := e.store.Read(context.Background(), stored.PdfPath)
		require.NoError(t, err)
		assert.Equal(t, pdf, content)
	})
}

func Test_projectApi_list(t *testing.T) {
	e := setup(t)
	ada := testutil.CreateUser(t, e.usrRepo, "ada", "", user.RoleStudent)
	bob := testutil.CreateUser(t, e.usrRepo, "bob", "", user.RoleStudent)
	teacher := testutil.CreateUser(t, e.usrRepo, "grace", "", user.RoleTeacher)
	admin := testutil.CreateUser(t, e.usrRepo, "admin", "", user.RoleAdmin)

	p1 := testutil.CreateProject(t, e.projRepo, "ada", "First", project.StatusSubmitted, null.Int{})
	p2 := testutil.CreateProject(t, e.projRepo, "bob", "Other", project.StatusApproved, null.IntFrom(70))
	p3 := testutil.CreateProject(t, e.projRepo, "ada", "Second", project.StatusCompleted, null.IntFrom(90))

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Student: own projects", token: getToken(t, ada), wantCode: http.StatusOK, wantData: marchallList(t, p1.Summary(), p3.Summary())},
		{name: "Student: other student", token: getToken(t, bob), wantCode: http.StatusOK, wantData: marchallList(t, p2.Summary())},
		{name: "Teacher: all", token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallList(t, p1, p2, p3)},
		{name: "Admin: all", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallList(t, p1, p2, p3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/projects", tt.token)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Student: none", func(t *testing.T) {
		other := testutil.CreateUser(t, e.usrRepo, "cid", "", user.RoleStudent)
		req, rec := newAuthRequest(http.MethodGet, "/v1/projects", getToken(t, other))
		e.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func Test_projectApi_retrieve(t *testing.T) {
	e := setup(t)
	ada := testutil.CreateUser(t, e.usrRepo, "ada", "", user.RoleStudent)
	bob := testutil.CreateUser(t, e.usrRepo, "bob", "", user.RoleStudent)
	teacher := testutil.CreateUser(t, e.usrRepo, "grace", "", user.RoleTeacher)
	p := testutil.CreateProject(t, e.projRepo, "ada", "First", project.StatusSubmitted, null.Int{})

	path := "/v1/projects/" + itoa(p.ID)
	errNotFound := marchallObj(t, httpErr{Error: project.ErrNotFound.Error()})
	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "owner", path: path, token: getToken(t, ada), wantCode: http.StatusOK, wantData: marchallObj(t, p)},
		{name: "other student", path: path, token: getToken(t, bob), wantCode: http.StatusNotFound, wantData: errNotFound},
		{name: "teacher", path: path, token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallObj(t, p)},
		{name: "unknown", path: "/v1/projects/404", token: getToken(t, teacher), wantCode: http.StatusNotFound, wantData: errNotFound},
		{
			name: "malformed id", path: "/v1/projects/abc", token: getToken(t, teacher), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_projectApi_attachment(t *testing.T) {
	e := setup(t)
	ada := testutil.CreateUser(t, e.usrRepo, "ada", "", user.RoleStudent)
	bob := testutil.CreateUser(t, e.usrRepo, "bob", "", user.RoleStudent)
	admin := testutil.CreateUser(t, e.usrRepo, "admin", "", user.RoleAdmin)

	req, rec := newUploadRequest(t, getToken(t, ada), submitFields(), "bridge.pdf", pdf)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var submitted project.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	path := "/v1/projects/" + itoa(submitted.ID) + "/attachment"

	// no file in the store
	orphan := testutil.CreateProject(t, e.projRepo, "ada", "Orphan", project.StatusSubmitted, null.Int{})

	for _, usr := range []user.User{ada, admin} {
		t.Run(string(usr.Role), func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, path, getToken(t, usr))
			e.app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename=bridge.pdf`, rec.Header().Get("Content-Disposition"))
			assert.Equal(t, pdf, rec.Body.Bytes())
		})
	}

	tests := []httpTest{
		{
			name: "other student", path: path, token: getToken(t, bob), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: project.ErrNotFound.Error()}),
		},
		{
			name: "missing file", path: "/v1/projects/" + itoa(orphan.ID) + "/attachment", token: getToken(t, admin), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: project.ErrAttachmentNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_projectApi_evaluate(t *testing.T) {
	e := setup(t)
	ada := testutil.CreateUser(t, e.usrRepo, "ada", "", user.RoleStudent)
	teacher := testutil.CreateUser(t, e.usrRepo, "grace", "", user.RoleTeacher)
	admin := testutil.CreateUser(t, e.usrRepo, "admin", "", user.RoleAdmin)
	p := testutil.CreateProject(t, e.projRepo, "ada", "First", project.StatusSubmitted, null.Int{})
	ghost := testutil.CreateProject(t, e.projRepo, "gone", "Ghost", project.StatusSubmitted, null.Int{})
	teacherToken := getToken(t, teacher)

	path := "/v1/projects/" + itoa(p.ID) + "/evaluation"
	evaluation := []byte(`{"status":"Completed","marks":85,"feedback":" Well done "}`)

	tests := []httpTest{
		{name: "Auth required", path: path, body: evaluation, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Student forbidden", path: path, body: evaluation, token: getToken(t, ada), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Admin forbidden", path: path, body: evaluation, token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "unknown project", path: "/v1/projects/404/evaluation", body: evaluation, token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: project.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name       string
			body       string
			wantFields []string
		}{
			{name: "marks over 100", body: `{"status":"Completed","marks":150}`, wantFields: []string{"marks"}},
			{name: "no marks", body: `{"status":"Completed"}`, wantFields: []string{"marks"}},
			{name: "unknown status", body: `{"status":"Rejected","marks":50}`, wantFields: []string{"status"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newAuthRequest(http.MethodPut, path, teacherToken, []byte(tt.body))
				e.app.ServeHTTP(rec, req)
				require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
				assert.ElementsMatch(t, tt.wantFields, errorFields(t, rec))
			})
		}

		got, err := e.projRepo.GetProject(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.Empty(t, emailsvc.SentMessages)
	})

	t.Run("valid", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, teacherToken, evaluation)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		want := p
		want.Status = project.StatusCompleted
		want.Marks = null.IntFrom(85)
		want.Feedback = "Well done"
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, want)}, rec)

		// the student is notified
		require.Len(t, emailsvc.SentMessages, 1)
		msg := emailsvc.SentMessages[0]
		require.Len(t, msg.To, 1)
		assert.Equal(t, ada.Email, msg.To[0].Address)
		assert.Contains(t, msg.TextContent, "85")
	})

	t.Run("unknown student is not notified", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		req, rec := newAuthRequest(http.MethodPut, "/v1/projects/"+itoa(ghost.ID)+"/evaluation", teacherToken, evaluation)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Empty(t, emailsvc.SentMessages)
	})
}
