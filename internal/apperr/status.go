// Package apperr classifies errors from the domain packages for the
// transports that report them.
package apperr

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/tejzpr/fieldschema-mcp/internal/hierarchy"
	"github.com/tejzpr/fieldschema-mcp/internal/manager"
	"github.com/tejzpr/fieldschema-mcp/internal/schema"
	"github.com/tejzpr/fieldschema-mcp/internal/status"
	"github.com/tejzpr/fieldschema-mcp/internal/validation"
)

// invalid lists the sentinels that mean the caller sent something unusable.
var invalid = []error{
	schema.ErrEmptyFieldKey,
	schema.ErrUnknownFieldType,
	status.ErrIndexOutOfRange,
	status.ErrEmptyValue,
	status.ErrBadDirection,
	manager.ErrNameRequired,
	manager.ErrRequestTypeInactive,
	manager.ErrUnknownCustomField,
	hierarchy.ErrNameRequired,
	hierarchy.ErrUnknownKind,
}

// Status maps err to an HTTP status code. Anything below 500 is a caller
// mistake.
func Status(err error) int {
	var (
		dupKey    *schema.DuplicateFieldKeyError
		immutable *schema.ImmutableFieldViolation
		dupStatus *status.DuplicateStatusValueError
		fieldErrs validation.Errors
		children  *hierarchy.HasActiveChildrenError
		mismatch  *hierarchy.HierarchyMismatchError
		conflict  *manager.VersionConflictError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &dupKey), errors.As(err, &dupStatus),
		errors.As(err, &children), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &immutable), errors.As(err, &fieldErrs), errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity
	}
	for _, target := range invalid {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// IsCallerError reports whether err was caused by the request rather than by
// the process or its storage.
func IsCallerError(err error) bool {
	return err != nil && Status(err) < http.StatusInternalServerError
}
