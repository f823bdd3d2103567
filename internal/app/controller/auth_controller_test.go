package controller

import (
	"net/http"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthControllerTest(t *testing.T) *testApp {
	app := setupTestApp(t)
	ctrl := NewAuthController(app.svc.auth)

	app.router.POST("/register/student", ctrl.RegisterStudent)
	app.router.POST("/register/teacher", ctrl.RegisterTeacher)
	app.router.POST("/login", ctrl.Login)
	app.router.POST("/token/refresh", ctrl.Refresh)
	app.router.POST("/token/verify", ctrl.Verify)
	app.router.POST("/token/blacklist", ctrl.Blacklist)
	app.router.POST("/logout", app.auth.Authenticate(), ctrl.Logout)
	app.router.GET("/me", app.auth.Authenticate(), ctrl.Me)
	return app
}

func studentBody(username, phone string) RegisterStudentRequest {
	return RegisterStudentRequest{
		RegisterRequest: RegisterRequest{
			Username: username,
			Email:    username + "@example.com",
			Password: "Str0ng-pass!",
			Phone:    phone,
		},
	}
}

func TestAuthController_RegisterStudent_Success(t *testing.T) {
	app := setupAuthControllerTest(t)

	w := app.do("POST", "/register/student", studentBody("sara", "09121234567"), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, "Student registered successfully", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "sara", user["username"])
	assert.Equal(t, string(model.RoleStudent), user["role"])
	assert.NotContains(t, user, "password_hash")

	var count int64
	require.NoError(t, app.db.Model(&model.Student{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAuthController_RegisterStudent_InvalidPhone(t *testing.T) {
	app := setupAuthControllerTest(t)

	w := app.do("POST", "/register/student", studentBody("sara", "12345"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, apperrors.ValidationInvalidInput, body["error"])
	fields := body["fields"].(map[string]interface{})
	assert.Equal(t, "must be a valid mobile number", fields["phone"])
}

func TestAuthController_RegisterStudent_DuplicateFields(t *testing.T) {
	app := setupAuthControllerTest(t)

	require.Equal(t, http.StatusCreated, app.do("POST", "/register/student", studentBody("sara", "09121234567"), "").Code)

	w := app.do("POST", "/register/student", studentBody("sara", "09121234567"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fields := decodeBody(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "phone")
}

func TestAuthController_RegisterStudent_WeakPassword(t *testing.T) {
	app := setupAuthControllerTest(t)

	req := studentBody("sara", "09121234567")
	req.Password = "12345678"
	w := app.do("POST", "/register/student", req, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fields := decodeBody(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "password")
}

func TestAuthController_RegisterTeacher_RequiresUniversity(t *testing.T) {
	app := setupAuthControllerTest(t)

	req := RegisterTeacherRequest{RegisterRequest: studentBody("prof", "09121234568").RegisterRequest}
	w := app.do("POST", "/register/teacher", req, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var uni model.University
	require.NoError(t, app.db.First(&uni).Error)
	req.Universities = []uint{uni.ID}
	w = app.do("POST", "/register/teacher", req, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, string(model.RoleTeacher), decodeBody(t, w)["user"].(map[string]interface{})["role"])
}

func TestAuthController_LoginAndMe(t *testing.T) {
	app := setupAuthControllerTest(t)
	user := app.createUser("reza", model.RoleStudent, false)

	w := app.do("POST", "/login", LoginRequest{Username: "reza", Password: "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthInvalidCredentials, errorCode(t, w))

	w = app.do("POST", "/login", LoginRequest{Username: "reza", Password: "Str0ng-pass!"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	access := body["access"].(string)
	assert.NotEmpty(t, body["refresh"])

	w = app.do("GET", "/me", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, float64(user.ID), me["id"])
	assert.NotNil(t, me["last_login"])
}

func TestAuthController_Me_Unauthenticated(t *testing.T) {
	app := setupAuthControllerTest(t)

	w := app.do("GET", "/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_RefreshVerifyBlacklist(t *testing.T) {
	app := setupAuthControllerTest(t)
	app.createUser("mina", model.RoleStudent, false)

	login := decodeBody(t, app.do("POST", "/login", LoginRequest{Username: "mina", Password: "Str0ng-pass!"}, ""))
	refresh := login["refresh"].(string)

	w := app.do("POST", "/token/verify", VerifyRequest{Token: refresh}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["valid"])

	w = app.do("POST", "/token/refresh", RefreshRequest{Refresh: refresh}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decodeBody(t, w)
	assert.NotEmpty(t, rotated["access"])
	newRefresh := rotated["refresh"].(string)

	// The rotated-out token is revoked.
	w = app.do("POST", "/token/refresh", RefreshRequest{Refresh: refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenRevoked, errorCode(t, w))

	w = app.do("POST", "/token/blacklist", RefreshRequest{Refresh: newRefresh}, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do("POST", "/token/verify", VerifyRequest{Token: newRefresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do("POST", "/token/verify", VerifyRequest{Token: "garbage"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenInvalid, errorCode(t, w))
}

func TestAuthController_Logout(t *testing.T) {
	app := setupAuthControllerTest(t)
	app.createUser("ali", model.RoleStudent, false)

	login := decodeBody(t, app.do("POST", "/login", LoginRequest{Username: "ali", Password: "Str0ng-pass!"}, ""))
	access := login["access"].(string)

	w := app.do("POST", "/logout", LogoutRequest{Refresh: login["refresh"].(string)}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do("GET", "/me", nil, access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenRevoked, errorCode(t, w))
}
