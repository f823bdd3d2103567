package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code plus a client-safe message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps a persistence error to a code and message without leaking SQL details.
// context names the operation, e.g. "create course" or "delete book".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "internal server error"}
	}

	errStr := err.Error()
	errLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(errLower, "duplicate key") ||
		strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	if errors.Is(err, gorm.ErrForeignKeyViolated) || strings.Contains(errLower, "foreign key constraint") {
		if strings.Contains(errLower, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "the record is still referenced by other data"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "a referenced record does not exist"}
	}

	if errors.Is(err, gorm.ErrCheckConstraintViolated) || strings.Contains(errLower, "check constraint") {
		if strings.Contains(errLower, "stock") {
			return ErrorInfo{Code: BookInsufficientStock, Message: "not enough stock"}
		}
		return ErrorInfo{Code: ValidationInvalidInput, Message: "input violates a constraint"}
	}

	if strings.Contains(errLower, "not null constraint") || strings.Contains(errLower, "violates not-null") {
		return ErrorInfo{Code: ValidationRequired, Message: "a required field is missing"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{Code: InternalExternalAPI, Message: "an upstream service is unavailable, please retry"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "email is already in use"}
	case strings.Contains(errLower, "username"):
		return ErrorInfo{Code: AuthUsernameExists, Message: "username is already in use"}
	case strings.Contains(errLower, "phone"):
		return ErrorInfo{Code: AuthPhoneExists, Message: "phone number is already in use"}
	case strings.Contains(errLower, "idx_course_teacher_name"):
		return ErrorInfo{Code: CourseNameExists, Message: "you already have a course with this name"}
	case strings.Contains(errLower, "idx_article_title_owner"):
		return ErrorInfo{Code: ArticleTitleExists, Message: "you already have an article with this title"}
	case strings.Contains(errLower, "idx_enrollment_user_course"):
		return ErrorInfo{Code: EnrollmentExists, Message: "already enrolled in this course"}
	case strings.Contains(errLower, "chat_rooms"):
		return ErrorInfo{Code: ChatRoomExists, Message: "a support room already exists"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "the record already exists"}
}

func notFoundMessage(context string) string {
	for _, noun := range []string{"course", "video", "enrollment", "article", "comment", "book", "order", "payment", "room", "user", "university", "link"} {
		if strings.Contains(strings.ToLower(context), noun) {
			return noun + " not found"
		}
	}
	return "the requested record was not found"
}

func defaultMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"):
		return "failed to create the record, please try again later"
	case strings.Contains(contextLower, "update"):
		return "failed to update the record, please try again later"
	case strings.Contains(contextLower, "delete"):
		return "failed to delete the record, please try again later"
	}
	return "internal server error, please try again later"
}

// ParseAndRespond parses err and writes the JSON body in one call.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
