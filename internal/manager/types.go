package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tejzpr/fieldschema-mcp/internal/db"
	"github.com/tejzpr/fieldschema-mcp/internal/events"
	"github.com/tejzpr/fieldschema-mcp/internal/logging"
	"github.com/tejzpr/fieldschema-mcp/internal/schema"
	"github.com/tejzpr/fieldschema-mcp/internal/status"
)

// RequestTypeInput defines a new request type. FieldConfig may be partial;
// CustomFields are registered on top of it.
type RequestTypeInput struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	IconName     string               `json:"iconName"`
	Color        string               `json:"color"`
	FieldConfig  schema.RawConfig     `json:"fieldConfig"`
	CustomFields []schema.CustomField `json:"customFields"`
}

// RequestTypePatch is a partial update. A non-nil FieldConfig replaces the
// stored configuration wholesale. ExpectedVersion, when set, must match the
// stored version.
type RequestTypePatch struct {
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	IconName        *string          `json:"iconName,omitempty"`
	Color           *string          `json:"color,omitempty"`
	IsActive        *bool            `json:"isActive,omitempty"`
	FieldConfig     schema.RawConfig `json:"fieldConfig,omitempty"`
	ExpectedVersion *int             `json:"expectedVersion,omitempty"`
}

// RequestTypeView is a request type with its effective schema.
type RequestTypeView struct {
	db.RequestType
	Effective schema.FieldConfig `json:"effective"`
}

type RequestTypeManager struct {
	log *logrus.Entry
}

var Types = NewRequestTypeManager()

func NewRequestTypeManager() *RequestTypeManager {
	return &RequestTypeManager{log: logging.Component("request-types")}
}

func conn(ctx context.Context) (*gorm.DB, error) {
	database, err := db.Conn()
	if err != nil {
		return nil, err
	}
	return database.WithContext(ctx), nil
}

func buildConfig(raw schema.RawConfig, extra ...schema.CustomField) (schema.FieldConfig, error) {
	cfg, err := schema.Build(raw, extra...)
	if err != nil {
		return schema.FieldConfig{}, err
	}
	s, _ := cfg.Lookup(schema.KeyStatus)
	s, err = status.Normalize(s)
	if err != nil {
		return schema.FieldConfig{}, err
	}
	return cfg.WithSetting(schema.KeyStatus, s)
}

// DefineRequestType validates and stores a new request type. Nothing is
// written when the configuration is rejected.
func (m *RequestTypeManager) DefineRequestType(ctx context.Context, in RequestTypeInput) (*db.RequestType, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	cfg, err := buildConfig(in.FieldConfig, in.CustomFields...)
	if err != nil {
		m.log.WithError(err).WithField("name", name).Warn("request type rejected")
		return nil, err
	}

	database, err := conn(ctx)
	if err != nil {
		return nil, err
	}
	rt := db.RequestType{
		Name:        name,
		Description: in.Description,
		IconName:    in.IconName,
		Color:       in.Color,
		IsActive:    true,
		FieldConfig: datatypes.NewJSONType(cfg.Flatten()),
		Version:     1,
	}
	if err := database.Create(&rt).Error; err != nil {
		return nil, fmt.Errorf("failed to create request type: %w", err)
	}

	m.log.WithField("request_type_id", rt.ID).Info("request type defined")
	events.Broker.Publish(events.RequestTypeUpdated, rt)
	return &rt, nil
}

// UpdateRequestType applies patch to request type id.
func (m *RequestTypeManager) UpdateRequestType(ctx context.Context, id uint, patch RequestTypePatch) (*db.RequestType, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, ErrNameRequired
	}
	return m.mutate(ctx, id, patch.ExpectedVersion, func(rt *db.RequestType, cfg schema.FieldConfig) (schema.FieldConfig, error) {
		if patch.Name != nil {
			rt.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			rt.Description = *patch.Description
		}
		if patch.IconName != nil {
			rt.IconName = *patch.IconName
		}
		if patch.Color != nil {
			rt.Color = *patch.Color
		}
		if patch.IsActive != nil {
			rt.IsActive = *patch.IsActive
		}
		if patch.FieldConfig == nil {
			return cfg, nil
		}
		return buildConfig(patch.FieldConfig)
	})
}

// AddCustomField registers a new custom field on request type id.
func (m *RequestTypeManager) AddCustomField(ctx context.Context, id uint, field schema.CustomField) (*db.RequestType, error) {
	return m.mutate(ctx, id, nil, func(_ *db.RequestType, cfg schema.FieldConfig) (schema.FieldConfig, error) {
		return cfg.WithCustomField(field.Key, field.Setting)
	})
}

// RemoveCustomField drops a custom field from request type id. Existing
// requests keep their stored values.
func (m *RequestTypeManager) RemoveCustomField(ctx context.Context, id uint, key string) (*db.RequestType, error) {
	return m.mutate(ctx, id, nil, func(_ *db.RequestType, cfg schema.FieldConfig) (schema.FieldConfig, error) {
		next, ok := cfg.WithoutCustomField(key)
		if !ok {
			return schema.FieldConfig{}, fmt.Errorf("%w: %q", ErrUnknownCustomField, key)
		}
		return next, nil
	})
}

func (m *RequestTypeManager) editStatus(ctx context.Context, id uint, edit func(r *status.Registry) error) (*db.RequestType, error) {
	return m.mutate(ctx, id, nil, func(_ *db.RequestType, cfg schema.FieldConfig) (schema.FieldConfig, error) {
		s, _ := cfg.Lookup(schema.KeyStatus)
		r := status.FromSetting(s)
		if err := edit(r); err != nil {
			return schema.FieldConfig{}, err
		}
		return cfg.WithSetting(schema.KeyStatus, r.Apply(s))
	})
}

// AddStatusOption appends a status option to request type id.
func (m *RequestTypeManager) AddStatusOption(ctx context.Context, id uint, opt schema.StatusOption) (*db.RequestType, error) {
	return m.editStatus(ctx, id, func(r *status.Registry) error { return r.Add(opt) })
}

// RemoveStatusOption deletes the status option at display position index.
func (m *RequestTypeManager) RemoveStatusOption(ctx context.Context, id uint, index int) (*db.RequestType, error) {
	return m.editStatus(ctx, id, func(r *status.Registry) error { return r.Remove(index) })
}

// MoveStatusOption swaps the status option at index with its neighbour.
func (m *RequestTypeManager) MoveStatusOption(ctx context.Context, id uint, index int, dir status.Direction) (*db.RequestType, error) {
	return m.editStatus(ctx, id, func(r *status.Registry) error { return r.Move(index, dir) })
}

// UpdateStatusOption patches the status option at index.
func (m *RequestTypeManager) UpdateStatusOption(ctx context.Context, id uint, index int, patch status.Patch) (*db.RequestType, error) {
	return m.editStatus(ctx, id, func(r *status.Registry) error { return r.Update(index, patch) })
}

// mutate reads request type id, lets fn transform it and writes the full
// record back guarded by its version. Any error from fn aborts the write.
func (m *RequestTypeManager) mutate(ctx context.Context, id uint, expected *int, fn func(rt *db.RequestType, cfg schema.FieldConfig) (schema.FieldConfig, error)) (*db.RequestType, error) {
	database, err := conn(ctx)
	if err != nil {
		return nil, err
	}

	var rt db.RequestType
	err = database.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rt, id).Error; err != nil {
			return fmt.Errorf("request type %d: %w", id, err)
		}
		if expected != nil && *expected != rt.Version {
			return &VersionConflictError{ID: id, Expected: *expected, Actual: rt.Version}
		}

		current := rt.Version
		cfg, err := fn(&rt, schema.Merge(rt.Config()))
		if err != nil {
			return err
		}
		rt.FieldConfig = datatypes.NewJSONType(cfg.Flatten())
		rt.Version = current + 1

		result := tx.Model(&db.RequestType{}).
			Where("id = ? AND version = ?", id, current).
			Updates(map[string]any{
				"name":         rt.Name,
				"description":  rt.Description,
				"icon_name":    rt.IconName,
				"color":        rt.Color,
				"is_active":    rt.IsActive,
				"field_config": rt.FieldConfig,
				"version":      rt.Version,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update request type: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &VersionConflictError{ID: id, Expected: current, Actual: -1}
		}
		return tx.First(&rt, id).Error
	})
	if err != nil {
		var conflict *VersionConflictError
		if errors.As(err, &conflict) {
			m.log.WithField("request_type_id", id).Warn("stale request type update")
		} else {
			m.log.WithField("request_type_id", id).WithError(err).Debug("request type update rejected")
		}
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"request_type_id": id, "version": rt.Version}).Info("request type updated")
	events.Broker.Publish(events.RequestTypeUpdated, rt)
	return &rt, nil
}

// GetRequestType returns a request type with its effective schema.
func (m *RequestTypeManager) GetRequestType(ctx context.Context, id uint) (*RequestTypeView, error) {
	database, err := conn(ctx)
	if err != nil {
		return nil, err
	}
	var rt db.RequestType
	if err := database.First(&rt, id).Error; err != nil {
		return nil, fmt.Errorf("request type %d: %w", id, err)
	}
	return &RequestTypeView{RequestType: rt, Effective: schema.Merge(rt.Config())}, nil
}

// EffectiveConfig returns the merged schema of request type id.
func (m *RequestTypeManager) EffectiveConfig(ctx context.Context, id uint) (schema.FieldConfig, error) {
	v, err := m.GetRequestType(ctx, id)
	if err != nil {
		return schema.FieldConfig{}, err
	}
	return v.Effective, nil
}

// ListRequestTypes pages through request types, optionally only active ones.
func (m *RequestTypeManager) ListRequestTypes(ctx context.Context, activeOnly bool, page, limit int) (db.Page[db.RequestType], error) {
	database, err := conn(ctx)
	if err != nil {
		return db.Page[db.RequestType]{}, err
	}
	q := database
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	out, err := db.List[db.RequestType](q, page, limit)
	if err != nil {
		return out, fmt.Errorf("failed to list request types: %w", err)
	}
	return out, nil
}
