package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/kazi/apps/api/echo"
	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/analytics"
	"github.com/trezcool/kazi/core/project"
	"github.com/trezcool/kazi/core/user"
	"github.com/trezcool/kazi/services/email"
	"github.com/trezcool/kazi/storage/database/inmem"
	"github.com/trezcool/kazi/storage/files"
	"github.com/trezcool/kazi/storage/session"
	"github.com/trezcool/kazi/tests"
)

var (
	conf = &core.Config{
		AppName:   "Kazi",
		TestMode:  true,
		SecretKey: "kazi-test-secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			MaxUpload:                 "2M",
			DisableReqLogs:            true,
		},
	}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type env struct {
	app      Server
	usrRepo  user.Repository
	projRepo project.Repository
	store    *files.LocalStore
}

func setup(t *testing.T) env {
	t.Helper()

	// set up DB & repos
	db := inmemdb.Open()
	e := env{
		usrRepo:  inmemdb.NewUserRepository(db),
		projRepo: inmemdb.NewProjectRepository(db),
	}
	store, err := files.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("files.NewLocalStore() failed: %v", err)
	}
	e.store = store

	// set up services
	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidator()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ResetSentMessages()
	projSvc := project.NewService(e.projRepo, e.store, testutil.NewPublisherMock(), validate, logger)

	// set up server
	e.app = NewServer(ServerDeps{
		Conf:         conf,
		Logger:       logger,
		UserSvc:      user.NewService(e.usrRepo, validate),
		ProjectSvc:   projSvc,
		AnalyticsSvc: analytics.NewService(projSvc),
		MailSvc:      mailSvc,
		Revoker:      session.NewMemoryRevoker(),
		Validate:     validate,
		Translator:   translator,
	})
	return e
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest builds a multipart project submission; the file part is omitted when filename is empty.
func newUploadRequest(t *testing.T, token string, fields map[string]string, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
		if _, err = part.Write(content); err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("newUploadRequest() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/projects", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, usr user.User) string {
	return signToken(t, NewClaims(usr.Identity(), conf))
}

func signToken(t *testing.T, claims *Claims) string {
	token, err := GenerateToken(claims, conf.SecretKey)
	if err != nil {
		t.Fatalf("signToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	if _, ok := j2.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// errorFields decodes a validation error response into its field names.
func errorFields(t *testing.T, rec *httptest.ResponseRecorder) []string {
	var fields map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &fields); err != nil {
		t.Fatalf("errorFields() failed: %v; body %s", err, rec.Body.String())
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return keys
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
