package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/coding7860/sparkminds-backend/apps/api/echo"
	"github.com/coding7860/sparkminds-backend/core/course"
	"github.com/coding7860/sparkminds-backend/core/schedule"
	"github.com/coding7860/sparkminds-backend/core/user"
	emailsvc "github.com/coding7860/sparkminds-backend/services/email"
	"github.com/coding7860/sparkminds-backend/services/ratelimit"
	testutil "github.com/coding7860/sparkminds-backend/tests"
)

var (
	store  *testutil.Store
	usrSvc user.ServiceInterface
	crsSvc course.ServiceInterface
	clsSvc schedule.ServiceInterface

	ctxBg = context.Background()

	errMissingToken = respErr("Access token required")
	errForbidden    = respErr("Access denied. Insufficient permissions")
)

// setup builds a server over a fresh in-memory store. Pass a limiter to rate limit /v1/auth.
func setup(t *testing.T, limiter ...*ratelimit.Limiter) *echoapi.Server {
	conf := testutil.Conf()
	logger := &testutil.NopLogger{}

	store = testutil.NewInmemStore()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc = user.NewService(conf, store.UserRepo, mailSvc)
	crsSvc = course.NewService(store.CrsRepo, store.DB)
	clsSvc = schedule.NewService(store.ClsRepo)

	var lim *ratelimit.Limiter
	if len(limiter) > 0 {
		lim = limiter[0]
	}
	validate, translator := testutil.NewValidator()
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		CourseSvc:   crsSvc,
		ScheduleSvc: clsSvc,
		Limiter:     lim,
		Validate:    validate,
		Translator:  translator,
	})
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

// rawResponse is an echoapi.Response whose data is decoded later.
type rawResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
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

// do serves one request and returns its recorder.
func do(app http.Handler, method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	auth := echoapi.NewAuthenticator(testutil.Conf())
	token, err := auth.GenerateToken(auth.UserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

type tokens struct {
	admin, mentor, trainee string
}

// createStaff creates an active user per role and returns their tokens.
func createStaff(t *testing.T) tokens {
	admin := testutil.CreateUser(t, store.UserRepo, "admin1", "admin1@example.com", "", user.RoleAdmin, true)
	mentor := testutil.CreateUser(t, store.UserRepo, "mentor1", "mentor1@example.com", "", user.RoleMentor, true)
	trainee := testutil.CreateUser(t, store.UserRepo, "trainee1", "trainee1@example.com", "", user.RoleTrainee, true)
	return tokens{
		admin:   getToken(t, admin),
		mentor:  getToken(t, mentor),
		trainee: getToken(t, trainee),
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// respOK returns the body of a successful response.
func respOK(t *testing.T, msg string, data interface{}) []byte {
	return marchallObj(t, echoapi.Response{Success: true, Message: msg, Data: data})
}

func respErr(msg string, data ...interface{}) echoapi.Response {
	res := echoapi.Response{Message: msg}
	if len(data) > 0 {
		res.Data = data[0]
	}
	return res
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) rawResponse {
	var res rawResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(res.Data, data), rec.Body.String())
	}
	return res
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
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if !ok1 || !ok2 {
		return false, nil
	}
	return assert.ElementsMatch(t, l1, l2), nil
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

func TestHome(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to SparkMinds API!", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
