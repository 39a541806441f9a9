package hierarchy

import (
	"errors"
	"fmt"

	"github.com/tejzpr/fieldschema-mcp/internal/db"
)

var (
	ErrNameRequired = errors.New("name is required")
	ErrUnknownKind  = errors.New("kind must be group or subgroup")
)

// HasActiveChildrenError reports a delete blocked by dependent rows.
type HasActiveChildrenError struct {
	Kind  Kind
	ID    uint
	Count db.ChildCount
}

func (e *HasActiveChildrenError) Error() string {
	return fmt.Sprintf("%s %d has %d subgroups and %d requests; deactivate it or remove its children first",
		e.Kind, e.ID, e.Count.SubGroups, e.Count.Requests)
}

// HierarchyMismatchError reports a group or subgroup that does not belong to
// the request type (or group) a request refers to.
type HierarchyMismatchError struct {
	RequestTypeID uint
	Kind          Kind
	ID            uint
	OwnerTypeID   uint
	OwnerGroupID  uint
}

func (e *HierarchyMismatchError) Error() string {
	if e.OwnerGroupID != 0 {
		return fmt.Sprintf("subgroup %d belongs to group %d, not the referenced group", e.ID, e.OwnerGroupID)
	}
	return fmt.Sprintf("%s %d belongs to request type %d, not %d", e.Kind, e.ID, e.OwnerTypeID, e.RequestTypeID)
}
