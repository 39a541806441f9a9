package manager

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired        = errors.New("name is required")
	ErrRequestTypeInactive = errors.New("request type is inactive")
	ErrUnknownCustomField  = errors.New("custom field not found")
)

// VersionConflictError reports an update made against a stale version of a
// request type.
type VersionConflictError struct {
	ID       uint
	Expected int
	Actual   int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("request type %d is at version %d, expected %d", e.ID, e.Actual, e.Expected)
}
