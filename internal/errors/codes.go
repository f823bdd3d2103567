package errors

// Error codes returned in the "error" field of every failed response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to localized text.

const (
	// Authentication
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"
	AuthPhoneExists        = "AUTH_PHONE_EXISTS"
	AuthInactiveUser       = "AUTH_INACTIVE_USER"

	// Authorization
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzStaffOnly    = "AUTHZ_STAFF_ONLY"
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"
	AuthzIPBlocked    = "AUTHZ_IP_BLOCKED"

	// Validation
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// Resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// Catalog and enrollment
	CourseNotFound        = "COURSE_NOT_FOUND"
	CourseNameExists      = "COURSE_NAME_EXISTS"
	CoursePriceMismatch   = "COURSE_PRICE_MISMATCH"
	EnrollmentOwnCourse   = "ENROLLMENT_OWN_COURSE"
	EnrollmentExists      = "ENROLLMENT_EXISTS"
	ArticleTitleExists    = "ARTICLE_TITLE_EXISTS"
	BookNotFound          = "BOOK_NOT_FOUND"
	BookInsufficientStock = "BOOK_INSUFFICIENT_STOCK"

	// Orders and payments
	OrderNotFound           = "ORDER_NOT_FOUND"
	PaymentNotFound         = "PAYMENT_NOT_FOUND"
	PaymentAlreadyProcessed = "PAYMENT_ALREADY_PROCESSED"
	PaymentInvalidProduct   = "PAYMENT_INVALID_PRODUCT"
	PaymentInvalidAmount    = "PAYMENT_INVALID_AMOUNT"
	PaymentGatewayError     = "PAYMENT_GATEWAY_ERROR"

	// Short links
	ShortLinkNotFound = "SHORTLINK_NOT_FOUND"

	// Chat
	ChatRoomNotFound = "CHAT_ROOM_NOT_FOUND"
	ChatRoomExists   = "CHAT_ROOM_EXISTS"
	ChatRoomInactive = "CHAT_ROOM_INACTIVE"
	ChatStaffNoRoom  = "CHAT_STAFF_NO_ROOM"
	ChatCannotSend   = "CHAT_CANNOT_SEND"

	// Tasks and uploads
	TaskNotFound          = "TASK_NOT_FOUND"
	TaskNotReady          = "TASK_NOT_READY"
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// Internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalQueueError    = "INTERNAL_QUEUE_ERROR"
)
