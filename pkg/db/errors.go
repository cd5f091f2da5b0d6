package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation. When
// needles are provided, at least one must match the constraint name reported by
// the driver or appear in the error text (sqlite reports "table.column").
func IsUniqueViolation(err error, needles ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	unique := errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(msg, pgUniqueViolation) ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if len(needles) == 0 {
		return true
	}
	constraint := pkgerrors.ConstraintName(err)
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if constraint == needle || strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is gorm's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
