// Package hierarchy manages the groups and subgroups of a request type and
// keeps requests consistent with them.
package hierarchy

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tejzpr/fieldschema-mcp/internal/db"
	"github.com/tejzpr/fieldschema-mcp/internal/events"
	"github.com/tejzpr/fieldschema-mcp/internal/logging"
)

// Kind names a level of the hierarchy.
type Kind string

const (
	KindGroup    Kind = "group"
	KindSubGroup Kind = "subgroup"
)

// ParseKind accepts "group" or "subgroup".
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindGroup:
		return KindGroup, nil
	case KindSubGroup, "sub_group", "sub-group":
		return KindSubGroup, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

type Manager struct {
	log *logrus.Entry
}

var Instance = NewManager()

// NewManager creates a Manager working on the shared database.
func NewManager() *Manager {
	return &Manager{log: logging.Component("hierarchy")}
}

func (m *Manager) conn(ctx context.Context) (*gorm.DB, error) {
	database, err := db.Conn()
	if err != nil {
		return nil, err
	}
	return database.WithContext(ctx), nil
}

// CreateGroup adds an active group under an existing request type.
func (m *Manager) CreateGroup(ctx context.Context, requestTypeID uint, name, description string) (*db.RequestGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	database, err := m.conn(ctx)
	if err != nil {
		return nil, err
	}

	var rt db.RequestType
	if err := database.Select("id").First(&rt, requestTypeID).Error; err != nil {
		return nil, fmt.Errorf("request type %d: %w", requestTypeID, err)
	}

	g := db.RequestGroup{
		Name:          name,
		Description:   description,
		RequestTypeID: requestTypeID,
		IsActive:      true,
	}
	if err := database.Create(&g).Error; err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	m.log.WithFields(logrus.Fields{"group_id": g.ID, "request_type_id": requestTypeID}).Info("group created")
	publish(KindGroup, g.ID, requestTypeID, events.ActionCreated)
	return &g, nil
}

// CreateSubGroup adds an active subgroup under an existing group and returns
// it together with the request type that owns the group.
func (m *Manager) CreateSubGroup(ctx context.Context, groupID uint, name, description string) (*db.RequestSubGroup, uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, 0, ErrNameRequired
	}
	database, err := m.conn(ctx)
	if err != nil {
		return nil, 0, err
	}

	var g db.RequestGroup
	if err := database.First(&g, groupID).Error; err != nil {
		return nil, 0, fmt.Errorf("group %d: %w", groupID, err)
	}

	s := db.RequestSubGroup{
		Name:        name,
		Description: description,
		GroupID:     g.ID,
		IsActive:    true,
	}
	if err := database.Create(&s).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to create subgroup: %w", err)
	}
	m.log.WithFields(logrus.Fields{
		"sub_group_id":    s.ID,
		"group_id":        g.ID,
		"request_type_id": g.RequestTypeID,
	}).Info("subgroup created")
	publish(KindSubGroup, s.ID, g.RequestTypeID, events.ActionCreated)
	return &s, g.RequestTypeID, nil
}

// DeleteGroup removes a group that has no subgroups and no requests.
func (m *Manager) DeleteGroup(ctx context.Context, id uint) error {
	database, err := m.conn(ctx)
	if err != nil {
		return err
	}
	var g db.RequestGroup
	err = database.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&g, id).Error; err != nil {
			return fmt.Errorf("group %d: %w", id, err)
		}
		counts, err := db.GroupCounts(tx, []uint{id})
		if err != nil {
			return fmt.Errorf("failed to count group children: %w", err)
		}
		if c := counts[id]; c.Total() > 0 {
			return &HasActiveChildrenError{Kind: KindGroup, ID: id, Count: c}
		}
		return tx.Delete(&g).Error
	})
	if err != nil {
		m.log.WithField("group_id", id).WithError(err).Warn("group not deleted")
		return err
	}
	m.log.WithField("group_id", id).Info("group deleted")
	publish(KindGroup, id, g.RequestTypeID, events.ActionDeleted)
	return nil
}

// DeleteSubGroup removes a subgroup that no request references.
func (m *Manager) DeleteSubGroup(ctx context.Context, id uint) error {
	database, err := m.conn(ctx)
	if err != nil {
		return err
	}
	err = database.Transaction(func(tx *gorm.DB) error {
		var s db.RequestSubGroup
		if err := tx.First(&s, id).Error; err != nil {
			return fmt.Errorf("subgroup %d: %w", id, err)
		}
		counts, err := db.SubGroupCounts(tx, []uint{id})
		if err != nil {
			return fmt.Errorf("failed to count subgroup children: %w", err)
		}
		if c := counts[id]; c.Total() > 0 {
			return &HasActiveChildrenError{Kind: KindSubGroup, ID: id, Count: c}
		}
		return tx.Delete(&s).Error
	})
	if err != nil {
		m.log.WithField("sub_group_id", id).WithError(err).Warn("subgroup not deleted")
		return err
	}
	m.log.WithField("sub_group_id", id).Info("subgroup deleted")
	publish(KindSubGroup, id, 0, events.ActionDeleted)
	return nil
}

// ToggleActive sets the visibility flag of a group or subgroup without
// touching anything that references it.
func (m *Manager) ToggleActive(ctx context.Context, kind Kind, id uint, isActive bool) error {
	database, err := m.conn(ctx)
	if err != nil {
		return err
	}

	var model any
	switch kind {
	case KindGroup:
		model = &db.RequestGroup{}
	case KindSubGroup:
		model = &db.RequestSubGroup{}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	result := database.Model(model).Where("id = ?", id).Update("is_active", isActive)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, gorm.ErrRecordNotFound)
	}
	m.log.WithFields(logrus.Fields{"kind": kind, "id": id, "is_active": isActive}).Info("visibility changed")
	publish(kind, id, 0, events.ToggleAction(isActive))
	return nil
}

func publish(kind Kind, id, requestTypeID uint, action string) {
	events.Broker.Publish(events.HierarchyUpdated, events.HierarchyChange{
		Kind:          string(kind),
		ID:            id,
		RequestTypeID: requestTypeID,
		Action:        action,
	})
}

// AssertSameType fails with HierarchyMismatchError when the referenced group
// or subgroup is owned by a request type other than requestTypeID.
func (m *Manager) AssertSameType(ctx context.Context, requestTypeID uint, groupID, subGroupID *uint) error {
	database, err := m.conn(ctx)
	if err != nil {
		return err
	}
	return CheckSameType(database, requestTypeID, groupID, subGroupID)
}

// CheckSameType is AssertSameType on an explicit connection or transaction.
// When both ids are given the subgroup must also belong to the group.
func CheckSameType(tx *gorm.DB, requestTypeID uint, groupID, subGroupID *uint) error {
	if groupID != nil {
		var g db.RequestGroup
		if err := tx.First(&g, *groupID).Error; err != nil {
			return fmt.Errorf("group %d: %w", *groupID, err)
		}
		if g.RequestTypeID != requestTypeID {
			return &HierarchyMismatchError{RequestTypeID: requestTypeID, Kind: KindGroup, ID: g.ID, OwnerTypeID: g.RequestTypeID}
		}
	}
	if subGroupID != nil {
		var s db.RequestSubGroup
		if err := tx.First(&s, *subGroupID).Error; err != nil {
			return fmt.Errorf("subgroup %d: %w", *subGroupID, err)
		}
		var g db.RequestGroup
		if err := tx.First(&g, s.GroupID).Error; err != nil {
			return fmt.Errorf("group %d: %w", s.GroupID, err)
		}
		if g.RequestTypeID != requestTypeID {
			return &HierarchyMismatchError{RequestTypeID: requestTypeID, Kind: KindSubGroup, ID: s.ID, OwnerTypeID: g.RequestTypeID}
		}
		if groupID != nil && s.GroupID != *groupID {
			return &HierarchyMismatchError{RequestTypeID: requestTypeID, Kind: KindSubGroup, ID: s.ID, OwnerTypeID: g.RequestTypeID, OwnerGroupID: s.GroupID}
		}
	}
	return nil
}

// GetGroup returns one group with its dependent counts.
func (m *Manager) GetGroup(ctx context.Context, id uint) (*db.GroupWithCount, error) {
	database, err := m.conn(ctx)
	if err != nil {
		return nil, err
	}
	var g db.RequestGroup
	if err := database.First(&g, id).Error; err != nil {
		return nil, fmt.Errorf("group %d: %w", id, err)
	}
	counts, err := db.GroupCounts(database, []uint{id})
	if err != nil {
		return nil, err
	}
	return &db.GroupWithCount{RequestGroup: g, Count: counts[id]}, nil
}

// ListGroups pages through the groups of a request type, with dependent counts.
func (m *Manager) ListGroups(ctx context.Context, requestTypeID uint, page, limit int) (db.Page[db.GroupWithCount], error) {
	database, err := m.conn(ctx)
	if err != nil {
		return db.Page[db.GroupWithCount]{}, err
	}
	groups, err := db.List[db.RequestGroup](database.Where("request_type_id = ?", requestTypeID), page, limit)
	if err != nil {
		return db.Page[db.GroupWithCount]{}, fmt.Errorf("failed to list groups: %w", err)
	}

	ids := make([]uint, len(groups.Items))
	for i, g := range groups.Items {
		ids[i] = g.ID
	}
	counts, err := db.GroupCounts(database, ids)
	if err != nil {
		return db.Page[db.GroupWithCount]{}, err
	}

	out := db.Page[db.GroupWithCount]{Items: make([]db.GroupWithCount, len(groups.Items)), Total: groups.Total, Page: groups.Page, Limit: groups.Limit}
	for i, g := range groups.Items {
		out.Items[i] = db.GroupWithCount{RequestGroup: g, Count: counts[g.ID]}
	}
	return out, nil
}

// ListSubGroups pages through the subgroups of a group, with request counts.
func (m *Manager) ListSubGroups(ctx context.Context, groupID uint, page, limit int) (db.Page[db.SubGroupWithCount], error) {
	database, err := m.conn(ctx)
	if err != nil {
		return db.Page[db.SubGroupWithCount]{}, err
	}
	subs, err := db.List[db.RequestSubGroup](database.Where("group_id = ?", groupID), page, limit)
	if err != nil {
		return db.Page[db.SubGroupWithCount]{}, fmt.Errorf("failed to list subgroups: %w", err)
	}

	ids := make([]uint, len(subs.Items))
	for i, s := range subs.Items {
		ids[i] = s.ID
	}
	counts, err := db.SubGroupCounts(database, ids)
	if err != nil {
		return db.Page[db.SubGroupWithCount]{}, err
	}

	out := db.Page[db.SubGroupWithCount]{Items: make([]db.SubGroupWithCount, len(subs.Items)), Total: subs.Total, Page: subs.Page, Limit: subs.Limit}
	for i, s := range subs.Items {
		out.Items[i] = db.SubGroupWithCount{RequestSubGroup: s, Count: counts[s.ID]}
	}
	return out, nil
}
