package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/internal/storage"
	"github.com/ikkim/campus-backend/pkg/payment/gateway"
	"github.com/ikkim/campus-backend/pkg/util"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// serviceErrors maps service sentinels to HTTP responses. The message sent
// back is the sentinel's own text.
var serviceErrors = []errorMapping{
	{service.ErrForbidden, http.StatusForbidden, apperrors.AuthzForbidden},
	{service.ErrStaffOnly, http.StatusForbidden, apperrors.AuthzStaffOnly},

	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials},
	{service.ErrUserInactive, http.StatusForbidden, apperrors.AuthInactiveUser},
	{service.ErrUserNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrTokenRevoked, http.StatusUnauthorized, apperrors.AuthTokenRevoked},
	{util.ErrExpiredToken, http.StatusUnauthorized, apperrors.AuthTokenExpired},
	{util.ErrInvalidToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid},

	{service.ErrCourseNotFound, http.StatusNotFound, apperrors.CourseNotFound},
	{service.ErrVideoNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrTeacherNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrInvalidCoursePrice, http.StatusBadRequest, apperrors.CoursePriceMismatch},
	{service.ErrUploadsDisabled, http.StatusServiceUnavailable, apperrors.UploadFailed},
	{storage.ErrExtensionBlocked, http.StatusBadRequest, apperrors.UploadInvalidFileType},
	{storage.ErrContentTypeBlocked, http.StatusBadRequest, apperrors.UploadInvalidFileType},
	{storage.ErrFileTooLarge, http.StatusBadRequest, apperrors.UploadFileTooLarge},
	{service.ErrEnrollmentNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrAlreadyEnrolled, http.StatusConflict, apperrors.EnrollmentExists},
	{service.ErrOwnCourseEnrollment, http.StatusBadRequest, apperrors.EnrollmentOwnCourse},
	{service.ErrCourseRequiresPayment, http.StatusPaymentRequired, apperrors.PaymentInvalidProduct},
	{service.ErrStaffEnrollment, http.StatusForbidden, apperrors.AuthzForbidden},

	{service.ErrArticleNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrCommentNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrEmptyComment, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrCommentTooLong, http.StatusBadRequest, apperrors.ValidationInvalidRange},

	{service.ErrBookNotFound, http.StatusNotFound, apperrors.BookNotFound},
	{service.ErrInvalidBookPrice, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrInvalidStock, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrOutOfStock, http.StatusConflict, apperrors.BookInsufficientStock},
	{service.ErrInsufficientStock, http.StatusConflict, apperrors.BookInsufficientStock},
	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound},
	{service.ErrInvalidOrderStatus, http.StatusBadRequest, apperrors.ValidationInvalidInput},

	{service.ErrPaymentNotFound, http.StatusNotFound, apperrors.PaymentNotFound},
	{service.ErrPaymentAlreadyProcessed, http.StatusConflict, apperrors.PaymentAlreadyProcessed},
	{service.ErrInvalidPaymentAmount, http.StatusBadRequest, apperrors.PaymentInvalidAmount},
	{gateway.ErrInvalidRequest, http.StatusBadGateway, apperrors.PaymentGatewayError},
	{gateway.ErrInvalidAmount, http.StatusBadRequest, apperrors.PaymentInvalidAmount},
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrInvalidProductType, http.StatusBadRequest, apperrors.PaymentInvalidProduct},
	{service.ErrShortLinkNotFound, http.StatusNotFound, apperrors.ShortLinkNotFound},

	{service.ErrRoomNotFound, http.StatusNotFound, apperrors.ChatRoomNotFound},
	{service.ErrRoomAlreadyExists, http.StatusConflict, apperrors.ChatRoomExists},
	{service.ErrRoomInactive, http.StatusForbidden, apperrors.ChatRoomInactive},
	{service.ErrStaffNoRoom, http.StatusForbidden, apperrors.ChatStaffNoRoom},
	{service.ErrEmptyMessage, http.StatusBadRequest, apperrors.ValidationRequired},

	{service.ErrInvalidPeriod, http.StatusBadRequest, apperrors.ValidationInvalidInput},
	{service.ErrInvalidThreshold, http.StatusBadRequest, apperrors.ValidationInvalidRange},
	{service.ErrTaskNotFound, http.StatusNotFound, apperrors.TaskNotFound},
	{service.ErrTaskNotReady, http.StatusAccepted, apperrors.TaskNotReady},
	{queue.ErrQueueDisabled, http.StatusServiceUnavailable, apperrors.InternalQueueError},
	{service.ErrEmptyEmail, http.StatusBadRequest, apperrors.ValidationRequired},
	{service.ErrNoRecipients, http.StatusBadRequest, apperrors.ValidationInvalidInput},

	{service.ErrInvalidIP, http.StatusBadRequest, apperrors.ValidationInvalidFormat},
	{service.ErrBlocklistEntryNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrStudentNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrUniversityNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrEducationStudyNotFound, http.StatusNotFound, apperrors.ResourceNotFound},
	{service.ErrNameRequired, http.StatusBadRequest, apperrors.ValidationRequired},
}

// fieldErrors are rejections that belong to a single request field.
var fieldErrors = map[error]string{
	service.ErrInvalidPhone:           "phone",
	service.ErrInvalidUniversity:      "university",
	service.ErrInvalidEducationStudy:  "education_study",
	service.ErrTeacherNeedsUniversity: "universities",
	util.ErrPasswordTooShort:          "password",
	util.ErrPasswordNumeric:           "password",
	util.ErrPasswordTooCommon:         "password",
	util.ErrPasswordTooSimilar:        "password",
}

// respondError writes the response for a service error and logs it at a level
// matching its status. action names the failed operation in logs.
func respondError(c *gin.Context, err error, action string, fields map[string]interface{}) {
	log := middleware.GetLoggerFromContext(c)
	if fields == nil {
		fields = map[string]interface{}{}
	}

	var conflict *service.FieldConflictError
	if errors.As(err, &conflict) {
		out := make(map[string]string, len(conflict.Fields))
		for _, f := range conflict.Fields {
			out[f] = "already exists"
		}
		fields["conflicts"] = conflict.Fields
		log.Warn(action+": duplicate fields", fields)
		apperrors.RespondWithValidationError(c, out)
		return
	}

	for target, field := range fieldErrors {
		if errors.Is(err, target) {
			fields["field"] = field
			log.Warn(action+": invalid field", fields)
			apperrors.RespondWithValidationError(c, map[string]string{field: target.Error()})
			return
		}
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			fields["reason"] = m.target.Error()
			log.Warn(action+" rejected", fields)
			apperrors.RespondWithError(c, m.status, m.code, m.target.Error())
			return
		}
	}

	log.Error(action+" failed", err, fields)
	apperrors.InternalError(c, "")
}

// currentActor reads the authenticated caller; false means a 401 was written.
func currentActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Warn("Unauthenticated request reached protected handler", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.Unauthorized(c, "")
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, IsStaff: middleware.IsStaff(c)}, true
}

// parseID reads a numeric path parameter; false means a 400 was written.
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
