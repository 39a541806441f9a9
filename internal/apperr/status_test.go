package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"gorm.io/gorm"

	"github.com/tejzpr/fieldschema-mcp/internal/db"
	"github.com/tejzpr/fieldschema-mcp/internal/hierarchy"
	"github.com/tejzpr/fieldschema-mcp/internal/manager"
	"github.com/tejzpr/fieldschema-mcp/internal/schema"
	"github.com/tejzpr/fieldschema-mcp/internal/status"
	"github.com/tejzpr/fieldschema-mcp/internal/validation"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("request type 1: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{&schema.DuplicateFieldKeyError{Key: "a", Conflict: "A"}, http.StatusConflict},
		{&status.DuplicateStatusValueError{Value: "A"}, http.StatusConflict},
		{&hierarchy.HasActiveChildrenError{Kind: hierarchy.KindGroup, ID: 1}, http.StatusConflict},
		{&manager.VersionConflictError{ID: 1, Expected: 1, Actual: 2}, http.StatusConflict},
		{&schema.ImmutableFieldViolation{Key: "title"}, http.StatusUnprocessableEntity},
		{validation.Errors{{Field: "title"}}, http.StatusUnprocessableEntity},
		{&hierarchy.HierarchyMismatchError{ID: 1}, http.StatusUnprocessableEntity},
		{manager.ErrRequestTypeInactive, http.StatusUnprocessableEntity},
		{fmt.Errorf("move: %w", status.ErrBadDirection), http.StatusUnprocessableEntity},
		{db.ErrNotInitialized, http.StatusInternalServerError},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIsCallerError(t *testing.T) {
	if IsCallerError(nil) {
		t.Error("nil is not a caller error")
	}
	if !IsCallerError(manager.ErrNameRequired) {
		t.Error("expected a missing name to be the caller's fault")
	}
	if IsCallerError(db.ErrNotInitialized) {
		t.Error("expected an uninitialized database not to be the caller's fault")
	}
}
