package controller

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManagementControllerTest(t *testing.T) (*testApp, string) {
	app := setupTestApp(t)
	mgmt := NewManagementController(app.svc.management)
	blocklist := NewBlocklistController(app.svc.blocklist)
	email := NewEmailController(app.svc.email)

	group := app.router.Group("/management", app.auth.Authenticate(), app.auth.RequireStaff())
	uni := group.Group("/uni")
	uni.GET("/students", mgmt.ListStudents)
	uni.GET("/students/:id", mgmt.GetStudent)
	uni.PATCH("/students/:id", mgmt.UpdateStudent)
	uni.DELETE("/students/:id", mgmt.DeleteStudent)
	uni.GET("/teachers", mgmt.ListTeachers)
	uni.GET("/teachers/:id", mgmt.GetTeacher)
	uni.PUT("/teachers/:id/universities", mgmt.SetTeacherUniversities)
	uni.GET("/universities", mgmt.ListUniversities)
	uni.POST("/universities", mgmt.CreateUniversity)
	uni.PUT("/universities/:id", mgmt.UpdateUniversity)
	uni.DELETE("/universities/:id", mgmt.DeleteUniversity)
	uni.GET("/education-studies", mgmt.ListEducationStudies)
	uni.POST("/education-studies", mgmt.CreateEducationStudy)

	group.GET("/blocklist", blocklist.ListBlocked)
	group.POST("/blocklist", blocklist.BlockIP)
	group.DELETE("/blocklist/:id", blocklist.UnblockIP)

	group.POST("/email/send", email.SendToAll)
	group.GET("/email/status/:task_id", email.Status)

	staff := app.createUser("staff", model.RoleTeacher, true)
	return app, app.tokenFor(staff)
}

func registerStudent(t *testing.T, app *testApp, username, phone string, universityID *uint) *model.User {
	user, err := app.svc.auth.RegisterStudent(context.Background(), service.StudentRegistration{
		Registration: service.Registration{
			Username: username,
			Email:    username + "@example.com",
			Password: "Str0ng-pass!",
			Phone:    phone,
		},
		UniversityID: universityID,
	})
	require.NoError(t, err)
	return user
}

func TestManagementController_Students(t *testing.T) {
	app, token := setupManagementControllerTest(t)
	tehran, sharif := uint(1), uint(2)
	ali := registerStudent(t, app, "ali", "09121110001", &tehran)
	registerStudent(t, app, "sara", "09121110002", &sharif)

	w := app.do("GET", "/management/uni/students", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decodeBody(t, w)["count"])

	w = app.do("GET", "/management/uni/students?university=1", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = app.do("GET", "/management/uni/students?university=first", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do("PATCH", fmt.Sprintf("/management/uni/students/%d", ali.ID), map[string]interface{}{"university": 3}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	student := decodeBody(t, w)["student"].(map[string]interface{})
	assert.Equal(t, float64(3), student["university_id"])

	w = app.do("PATCH", fmt.Sprintf("/management/uni/students/%d", ali.ID), map[string]interface{}{"university": 999}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["fields"], "university")

	w = app.do("DELETE", fmt.Sprintf("/management/uni/students/%d", ali.ID), nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do("GET", fmt.Sprintf("/management/uni/students/%d", ali.ID), nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestManagementController_TeacherUniversities(t *testing.T) {
	app, token := setupManagementControllerTest(t)
	teacher, err := app.svc.auth.RegisterTeacher(context.Background(), service.TeacherRegistration{
		Registration: service.Registration{
			Username:  "kaveh",
			Email:     "kaveh@example.com",
			Password:  "Str0ng-pass!",
			FirstName: "Kaveh",
			LastName:  "Professor",
			Phone:     "09121110003",
		},
		UniversityIDs: []uint{1},
	})
	require.NoError(t, err)

	w := app.do("PUT", fmt.Sprintf("/management/uni/teachers/%d/universities", teacher.ID), TeacherUniversitiesRequest{Universities: []uint{2, 3}}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	unis := decodeBody(t, w)["teacher"].(map[string]interface{})["universities"].([]interface{})
	assert.Len(t, unis, 2)

	w = app.do("PUT", fmt.Sprintf("/management/uni/teachers/%d/universities", teacher.ID), TeacherUniversitiesRequest{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do("GET", "/management/uni/teachers?name=prof", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["teachers"], 1)
}

func TestManagementController_ReferenceData(t *testing.T) {
	app, token := setupManagementControllerTest(t)

	w := app.do("POST", "/management/uni/universities", UniversityRequest{Name: "Tabriz University", City: "Tabriz"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := uint(decodeBody(t, w)["university"].(map[string]interface{})["id"].(float64))

	w = app.do("PUT", fmt.Sprintf("/management/uni/universities/%d", id), UniversityRequest{Name: "University of Tabriz", City: "Tabriz"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "University of Tabriz", decodeBody(t, w)["university"].(map[string]interface{})["name"])

	w = app.do("GET", "/management/uni/universities", nil, token)
	assert.Len(t, decodeBody(t, w)["universities"], 5)

	w = app.do("DELETE", fmt.Sprintf("/management/uni/universities/%d", id), nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = app.do("DELETE", fmt.Sprintf("/management/uni/universities/%d", id), nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do("POST", "/management/uni/education-studies", EducationStudyRequest{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlocklistController_BlockAndUnblock(t *testing.T) {
	app, token := setupManagementControllerTest(t)

	w := app.do("POST", "/management/blocklist", BlockIPRequest{IPAddr: "not-an-ip"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidFormat, errorCode(t, w))

	// httptest requests come from 192.0.2.1.
	w = app.do("POST", "/management/blocklist", BlockIPRequest{IPAddr: "192.0.2.1", Reason: "scraping"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entryID := uint(decodeBody(t, w)["entry"].(map[string]interface{})["id"].(float64))

	w = app.do("POST", "/management/blocklist", BlockIPRequest{IPAddr: "192.0.2.1"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["fields"], "ip_addr")

	guarded := gin.New()
	guarded.Use(middleware.BlocklistMiddleware(app.svc.blocklist))
	guarded.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	app.router = guarded
	w = app.do("GET", "/ping", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.AuthzIPBlocked, errorCode(t, w))

	require.NoError(t, app.svc.blocklist.Delete(context.Background(), service.Actor{UserID: 1, IsStaff: true}, entryID))
	w = app.do("GET", "/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBlocklistController_UnknownEntry(t *testing.T) {
	app, token := setupManagementControllerTest(t)

	w := app.do("DELETE", "/management/blocklist/77", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do("GET", "/management/blocklist", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])
}

func TestEmailController_SendToAll(t *testing.T) {
	app, token := setupManagementControllerTest(t)
	app.createUser("reader", model.RoleStudent, false)

	w := app.do("POST", "/management/email/send", MassEmailRequest{Subject: " ", Message: "hello"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do("POST", "/management/email/send", MassEmailRequest{Subject: "Term starts", Message: "See you Monday"}, token)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	result := decodeBody(t, w)
	assert.Equal(t, float64(2), result["recipients"])
	assert.Equal(t, float64(1), result["batches"])
	taskID := result["task_ids"].([]interface{})[0].(string)

	w = app.do("GET", "/management/email/status/"+taskID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decodeBody(t, w)["state"])

	w = app.do("GET", "/management/email/status/unknown", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
