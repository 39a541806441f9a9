package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tejzpr/fieldschema-mcp/internal/schema"
)

// RequestType is an administrator-defined category of request. FieldConfig
// holds the stored (possibly partial) field configuration; callers merge it
// with the default schema before use.
type RequestType struct {
	ID          uint                                 `json:"id" gorm:"primaryKey"`
	Name        string                               `json:"name" gorm:"not null;index"`
	Description string                               `json:"description" gorm:"type:text"`
	IconName    string                               `json:"iconName"`
	Color       string                               `json:"color"`
	IsActive    bool                                 `json:"isActive" gorm:"not null;index"`
	FieldConfig datatypes.JSONType[schema.RawConfig] `json:"fieldConfig" gorm:"not null"`
	Version     int                                  `json:"version" gorm:"not null"`
	CreatedAt   time.Time                            `json:"createdAt"`
	UpdatedAt   time.Time                            `json:"updatedAt"`
}

// Config returns the stored field configuration.
func (t RequestType) Config() schema.RawConfig {
	return t.FieldConfig.Data()
}

type RequestGroup struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null"`
	Description   string    `json:"description" gorm:"type:text"`
	RequestTypeID uint      `json:"requestTypeId" gorm:"not null;index"`
	IsActive      bool      `json:"isActive" gorm:"not null"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type RequestSubGroup struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	GroupID     uint      `json:"groupId" gorm:"not null;index"`
	IsActive    bool      `json:"isActive" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Request struct {
	ID               uint                                        `json:"id" gorm:"primaryKey"`
	Reference        string                                      `json:"reference" gorm:"uniqueIndex;not null"`
	Title            string                                      `json:"title" gorm:"type:text;not null"`
	Description      string                                      `json:"description" gorm:"type:text"`
	Amount           *float64                                    `json:"amount,omitempty"`
	EffectiveDate    *time.Time                                  `json:"effectiveDate,omitempty"`
	BeneficiaryName  string                                      `json:"beneficiaryName,omitempty"`
	BeneficiaryPhone string                                      `json:"beneficiaryPhone,omitempty"`
	ContactID        *uint                                       `json:"contactId,omitempty"`
	RequestTypeID    uint                                        `json:"requestTypeId" gorm:"not null;index"`
	GroupID          *uint                                       `json:"groupId,omitempty" gorm:"index"`
	SubGroupID       *uint                                       `json:"subGroupId,omitempty" gorm:"index"`
	Status           string                                      `json:"status" gorm:"index"`
	TimeField        string                                      `json:"timeField,omitempty"`
	ToggleField      *bool                                       `json:"toggleField,omitempty"`
	CustomFields     datatypes.JSONType[map[string]schema.Value] `json:"customFields"`
	CreatedAt        time.Time                                   `json:"createdAt"`
	UpdatedAt        time.Time                                   `json:"updatedAt"`
}

// BeforeCreate assigns a reference code when none was set.
func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.Reference != "" {
		return nil
	}
	ref, err := NewReference()
	if err != nil {
		return err
	}
	r.Reference = ref
	return nil
}

// Models lists every table managed by this package, in migration order.
func Models() []any {
	return []any{&RequestType{}, &RequestGroup{}, &RequestSubGroup{}, &Request{}}
}
