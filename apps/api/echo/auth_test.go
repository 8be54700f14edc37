package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/coding7860/sparkminds-backend/apps/api/echo"
	"github.com/coding7860/sparkminds-backend/core/user"
	emailsvc "github.com/coding7860/sparkminds-backend/services/email"
	"github.com/coding7860/sparkminds-backend/services/ratelimit"
	testutil "github.com/coding7860/sparkminds-backend/tests"
)

const pwd = "Tr1cky-Secret"

func TestAuth_Login(t *testing.T) {
	app := setup(t)
	mentor := testutil.CreateUser(t, store.UserRepo, "mentor1", "mentor1@example.com", pwd, user.RoleMentor, true)
	testutil.CreateUser(t, store.UserRepo, "gone", "gone@example.com", pwd, user.RoleTrainee, false)

	tests := []httpTest{
		{
			name:     "username",
			body:     []byte(`{"username": "Mentor1", "password": "` + pwd + `"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "email",
			body:     []byte(`{"username": "mentor1@example.com", "password": "` + pwd + `"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     []byte(`{"username": "mentor1", "password": "nope"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, respErr("Invalid credentials")),
		},
		{
			name:     "unknown user",
			body:     []byte(`{"username": "nobody", "password": "` + pwd + `"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, respErr("Invalid credentials")),
		},
		{
			name:     "inactive user",
			body:     []byte(`{"username": "gone", "password": "` + pwd + `"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, respErr("Account is deactivated")),
		},
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Validation failed", map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			})),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode != http.StatusOK {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var data echoapi.LoginResponse
			res := decode(t, rec, &data)
			assert.Equal(t, "Login successful", res.Message)
			assert.NotEmpty(t, data.Token)
			assert.Equal(t, mentor.ID, data.User.ID)
			assert.NotNil(t, data.User.LastLogin)
		})
	}
}

func TestAuth_RoleLogin(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, store.UserRepo, "mentor1", "mentor1@example.com", pwd, user.RoleMentor, true)

	rec := do(app, http.MethodPost, "/v1/auth/role-login", "", []byte(`{"email": "MENTOR1@example.com", "password": "`+pwd+`"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data echoapi.RoleLoginResponse
	decode(t, rec, &data)
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, user.RoleMentor, data.Role)
	assert.Equal(t, "/mentor-dashboard", data.DashboardURL)

	rec = do(app, http.MethodPost, "/v1/auth/role-login", "", []byte(`{"email": "mentor1", "password": "`+pwd+`"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_Register(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, store.UserRepo, "taken", "taken@example.com", pwd, user.RoleTrainee, true)

	tests := []httpTest{
		{
			name:     "trainee created",
			body:     []byte(`{"username": "newbie", "email": "newbie@example.com", "password": "` + pwd + `", "role": "admin"}`),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate",
			body:     []byte(`{"username": "taken", "email": "other@example.com", "password": "` + pwd + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Username or email already exists")),
		},
		{
			name:     "common password",
			body:     []byte(`{"username": "newbie2", "email": "newbie2@example.com", "password": "password"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, respErr("Validation failed", map[string]string{"password": "password is too common"})),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/register", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			var data echoapi.LoginResponse
			decode(t, rec, &data)
			assert.NotEmpty(t, data.Token)
			assert.Equal(t, "newbie", data.User.Username)
			assert.Equal(t, user.RoleTrainee, data.User.Role)
			assert.Equal(t, user.StatusActive, data.User.Status)
		})
	}
}

func TestAuth_Profile(t *testing.T) {
	app := setup(t)
	trainee := testutil.CreateUser(t, store.UserRepo, "trainee1", "trainee1@example.com", pwd, user.RoleTrainee, true)
	inactive := testutil.CreateUser(t, store.UserRepo, "gone", "gone@example.com", pwd, user.RoleTrainee, false)
	deleted := testutil.CreateUser(t, store.UserRepo, "deleted", "deleted@example.com", pwd, user.RoleTrainee, true)
	deletedToken := getToken(t, deleted)
	require.NoError(t, store.UserRepo.DeleteUser(ctxBg, deleted.ID))

	tests := []httpTest{
		{
			name:     "no token",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "bad token",
			token:    "not.a.jwt",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, respErr("Invalid token")),
		},
		{
			name:     "inactive user",
			token:    getToken(t, inactive),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, respErr("Account is deactivated")),
		},
		{
			name:     "deleted user",
			token:    deletedToken,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, respErr("Invalid user session. Please login again.")),
		},
		{
			name:     "ok",
			token:    getToken(t, trainee),
			wantCode: http.StatusOK,
			wantData: respOK(t, "Profile retrieved successfully", trainee),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/auth/profile", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestAuth_RefreshToken(t *testing.T) {
	app := setup(t)
	trainee := testutil.CreateUser(t, store.UserRepo, "trainee1", "trainee1@example.com", pwd, user.RoleTrainee, true)

	auth := echoapi.NewAuthenticator(testutil.Conf())
	staleToken, err := auth.GenerateToken(auth.UserClaims(trainee, time.Now().Add(-48*time.Hour).Unix()))
	require.NoError(t, err)

	rec := do(app, http.MethodPost, "/v1/auth/refresh-token", getToken(t, trainee))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data echoapi.TokenResponse
	res := decode(t, rec, &data)
	assert.Equal(t, "Token refreshed successfully", res.Message)
	assert.NotEmpty(t, data.Token)

	rec = do(app, http.MethodPost, "/v1/auth/refresh-token", staleToken)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, respErr("Refresh has expired"))}, rec)
}

func TestAuth_Logout(t *testing.T) {
	app := setup(t)
	trainee := testutil.CreateUser(t, store.UserRepo, "trainee1", "trainee1@example.com", pwd, user.RoleTrainee, true)

	rec := do(app, http.MethodPost, "/v1/auth/logout", getToken(t, trainee))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: respOK(t, "Logout successful", nil)}, rec)
}

func TestAuth_PasswordReset(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, store.UserRepo, "trainee1", "trainee1@example.com", pwd, user.RoleTrainee, true)
	emailsvc.ResetSentMessages()

	for _, email := range []string{"trainee1@example.com", "unknown@example.com"} {
		rec := do(app, http.MethodPost, "/v1/auth/password-reset", "", []byte(`{"email": "`+email+`"}`))
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "trainee1@example.com", emailsvc.SentMessages[0].To[0].Address)

	rec := do(app, http.MethodPost, "/v1/auth/password-reset-confirm", "", []byte(
		`{"uid": "bad", "token": "bad", "password": "`+pwd+`", "passwordConfirm": "`+pwd+`"}`,
	))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, respErr("The reset link is invalid or has expired")),
	}, rec)
}

func TestAuth_RateLimit(t *testing.T) {
	limiter, err := ratelimit.New(2, time.Minute)
	require.NoError(t, err)
	app := setup(t, limiter)

	body := []byte(`{"username": "nobody", "password": "nope"}`)
	for i := 0; i < 2; i++ {
		rec := do(app, http.MethodPost, "/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := do(app, http.MethodPost, "/v1/auth/login", "", body)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusTooManyRequests,
		wantData: marchallObj(t, respErr("Too many requests, please try again later")),
	}, rec)

	// other endpoints are not limited
	rec = do(app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
