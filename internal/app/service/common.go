package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrForbidden = errors.New("not allowed")
	ErrStaffOnly = errors.New("staff only")
)

// Actor is the authenticated caller as seen by the service layer.
type Actor struct {
	UserID  uint
	IsStaff bool
}

// FieldConflictError reports unique fields that are already taken.
type FieldConflictError struct {
	Fields []string
}

func (e *FieldConflictError) Error() string {
	return fmt.Sprintf("already taken: %s", strings.Join(e.Fields, ", "))
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// notFoundOr maps gorm's not-found to a service sentinel and passes other errors through.
func notFoundOr(err, sentinel error) error {
	if isNotFound(err) {
		return sentinel
	}
	return err
}

// isDuplicate recognises unique violations from both postgres and sqlite.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
