package repositories

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrCourseNotFound = errors.New("course not found")
)

// isUUID reports whether id can be compared against a uuid column. Postgres
// rejects the whole query for a malformed literal, so callers treat a
// non-uuid id as a missing row.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
