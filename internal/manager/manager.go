package manager

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tejzpr/fieldschema-mcp/internal/db"
	"github.com/tejzpr/fieldschema-mcp/internal/events"
	"github.com/tejzpr/fieldschema-mcp/internal/hierarchy"
	"github.com/tejzpr/fieldschema-mcp/internal/logging"
	"github.com/tejzpr/fieldschema-mcp/internal/schema"
	"github.com/tejzpr/fieldschema-mcp/internal/status"
	"github.com/tejzpr/fieldschema-mcp/internal/validation"
)

type RequestManager struct {
	log *logrus.Entry
}

var Instance = NewRequestManager()

// NewRequestManager creates a fresh RequestManager.
func NewRequestManager() *RequestManager {
	return &RequestManager{log: logging.Component("requests")}
}

// prepare loads the request type, checks the payload against its current
// effective schema and the group hierarchy, and fills req from the result.
func prepare(tx *gorm.DB, typeID uint, payload validation.Payload, req *db.Request) error {
	var rt db.RequestType
	if err := tx.First(&rt, typeID).Error; err != nil {
		return fmt.Errorf("request type %d: %w", typeID, err)
	}
	if !rt.IsActive {
		return ErrRequestTypeInactive
	}

	cfg := schema.Merge(rt.Config())
	rec, errs := validation.Prepare(cfg, payload)
	if len(errs) > 0 {
		return errs
	}

	groupID := rec.ID(schema.KeyGroupID)
	if err := hierarchy.CheckSameType(tx, rt.ID, groupID, rec.SubGroupID); err != nil {
		return err
	}

	statusValue := rec.String(schema.KeyStatus)
	if statusValue == "" {
		s, _ := cfg.Lookup(schema.KeyStatus)
		statusValue = status.Allowed(s)[0]
	}

	req.RequestTypeID = rt.ID
	req.Title = rec.String(schema.KeyTitle)
	req.Description = rec.String(schema.KeyDescription)
	req.Amount = rec.Number(schema.KeyAmount)
	req.BeneficiaryName = rec.String(schema.KeyBeneficiaryName)
	req.BeneficiaryPhone = rec.String(schema.KeyBeneficiaryPhone)
	req.ContactID = rec.ID(schema.KeyContactID)
	req.GroupID = groupID
	req.SubGroupID = rec.SubGroupID
	req.Status = statusValue
	req.TimeField = rec.String(schema.KeyTimeField)
	req.EffectiveDate = nil
	if v, ok := rec.Standard[schema.KeyEffectiveDate]; ok {
		d := v.Date
		req.EffectiveDate = &d
	}
	req.ToggleField = nil
	if v, ok := rec.Standard[schema.KeyToggleField]; ok {
		b := v.Bool
		req.ToggleField = &b
	}
	req.CustomFields = datatypes.NewJSONType(rec.Custom)
	return nil
}

// SubmitRequest validates payload against the current schema of request type
// typeID and stores it. Disabled fields are dropped. On any error nothing is
// written; field problems are returned as validation.Errors.
func (m *RequestManager) SubmitRequest(ctx context.Context, typeID uint, payload validation.Payload) (*db.Request, error) {
	database, err := conn(ctx)
	if err != nil {
		return nil, err
	}

	var req db.Request
	err = database.Transaction(func(tx *gorm.DB) error {
		if err := prepare(tx, typeID, payload, &req); err != nil {
			return err
		}
		if err := tx.Create(&req).Error; err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		return nil
	})
	if err != nil {
		m.log.WithField("request_type_id", typeID).WithError(err).Debug("request rejected")
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"request_id": req.ID, "request_type_id": typeID}).Info("request created")
	events.Broker.Publish(events.RequestCreated, req)
	return &req, nil
}

// UpdateRequest replaces the fields of request id with payload, validated
// against the current schema of its request type.
func (m *RequestManager) UpdateRequest(ctx context.Context, id uint, payload validation.Payload) (*db.Request, error) {
	database, err := conn(ctx)
	if err != nil {
		return nil, err
	}

	var req db.Request
	err = database.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, id).Error; err != nil {
			return fmt.Errorf("request %d: %w", id, err)
		}
		if err := prepare(tx, req.RequestTypeID, payload, &req); err != nil {
			return err
		}
		if err := tx.Save(&req).Error; err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		return nil
	})
	if err != nil {
		m.log.WithField("request_id", id).WithError(err).Debug("request update rejected")
		return nil, err
	}

	m.log.WithField("request_id", id).Info("request updated")
	events.Broker.Publish(events.RequestUpdated, req)
	return &req, nil
}

// GetRequest returns request id.
func (m *RequestManager) GetRequest(ctx context.Context, id uint) (*db.Request, error) {
	database, err := conn(ctx)
	if err != nil {
		return nil, err
	}
	var req db.Request
	if err := database.First(&req, id).Error; err != nil {
		return nil, fmt.Errorf("request %d: %w", id, err)
	}
	return &req, nil
}

// ListRequests pages through requests, filtered by request type when typeID
// is non-zero.
func (m *RequestManager) ListRequests(ctx context.Context, typeID uint, page, limit int) (db.Page[db.Request], error) {
	database, err := conn(ctx)
	if err != nil {
		return db.Page[db.Request]{}, err
	}
	q := database
	if typeID != 0 {
		q = q.Where("request_type_id = ?", typeID)
	}
	out, err := db.List[db.Request](q, page, limit)
	if err != nil {
		return out, fmt.Errorf("failed to list requests: %w", err)
	}
	return out, nil
}

// ValidateSubmission checks payload against the effective schema of request
// type typeID without storing anything. Only enabled and required fields
// make the report invalid; unusable optional values come back as warnings.
func (m *RequestManager) ValidateSubmission(ctx context.Context, typeID uint, payload validation.Payload) (validation.Report, error) {
	cfg, err := Types.EffectiveConfig(ctx, typeID)
	if err != nil {
		return validation.Report{}, err
	}
	return validation.Check(cfg, payload), nil
}
