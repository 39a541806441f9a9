package validation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejzpr/fieldschema-mcp/internal/schema"
)

func validPayload() Payload {
	return Payload{
		Fields: map[string]any{
			schema.KeyTitle:         "Pay supplier",
			schema.KeyAmount:        125.5,
			schema.KeyEffectiveDate: "2025-02-01",
			schema.KeyStatus:        "PENDING",
		},
	}
}

func TestValidateDefaultsAccepted(t *testing.T) {
	errs := Validate(schema.Merge(nil), validPayload())
	assert.Empty(t, errs)
}

func TestValidateReportsEveryMissingField(t *testing.T) {
	errs := Validate(schema.Merge(nil), Payload{})

	assert.Equal(t, []string{schema.KeyTitle, schema.KeyAmount, schema.KeyEffectiveDate, schema.KeyStatus}, errs.Fields())
	for _, fe := range errs {
		assert.Equal(t, CodeRequired, fe.Code)
	}
}

func TestValidateTitleAlwaysChecked(t *testing.T) {
	errs := Validate(schema.FieldConfig{}, Payload{Fields: map[string]any{schema.KeyTitle: "   "}})
	require.Len(t, errs, 1)
	assert.Equal(t, schema.KeyTitle, errs[0].Field)
}

func TestValidateTypedRules(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		code  Code
	}{
		{"amount zero", schema.KeyAmount, 0, CodeNotPositive},
		{"amount negative string", schema.KeyAmount, "-3", CodeNotPositive},
		{"amount not numeric", schema.KeyAmount, "lots", CodeInvalidType},
		{"amount bool", schema.KeyAmount, true, CodeInvalidType},
		{"date garbage", schema.KeyEffectiveDate, "someday", CodeInvalidDate},
		{"date number", schema.KeyEffectiveDate, 20250101, CodeInvalidDate},
		{"status unknown", schema.KeyStatus, "LOST", CodeInvalidStatus},
		{"title object", schema.KeyTitle, map[string]any{"a": 1}, CodeInvalidType},
		{"title number", schema.KeyTitle, 12345, CodeInvalidType},
		{"title bool", schema.KeyTitle, true, CodeInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			p.Fields[tt.key] = tt.value
			errs := Validate(schema.Merge(nil), p)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.key, errs[0].Field)
			assert.Equal(t, tt.code, errs[0].Code)
		})
	}
}

func TestValidateAcceptsCoercibleValues(t *testing.T) {
	p := validPayload()
	p.Fields[schema.KeyAmount] = "42.10"
	p.Fields[schema.KeyEffectiveDate] = "2025-02-01T10:00:00Z"
	assert.Empty(t, Validate(schema.Merge(nil), p))

	var n json.Number = "7"
	p.Fields[schema.KeyAmount] = n
	assert.Empty(t, Validate(schema.Merge(nil), p))
}

func TestValidateConfiguredStatusOptions(t *testing.T) {
	cfg := schema.Merge(schema.RawConfig{
		schema.KeyStatus: {Enabled: true, Required: true, Options: []schema.StatusOption{
			{Value: "DRAFT"}, {Value: "SENT"},
		}},
	})
	p := validPayload()
	p.Fields[schema.KeyStatus] = "PENDING"

	errs := Validate(cfg, p)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeInvalidStatus, errs[0].Code)
	assert.Contains(t, errs[0].Message, "DRAFT, SENT")

	p.Fields[schema.KeyStatus] = "SENT"
	assert.Empty(t, Validate(cfg, p))
}

func TestValidateIgnoresDisabledAndOptional(t *testing.T) {
	cfg := schema.Merge(schema.RawConfig{
		schema.KeyAmount:      {Enabled: false, Required: true},
		schema.KeyDescription: {Enabled: true, Required: false},
	})
	p := validPayload()
	p.Fields[schema.KeyAmount] = "garbage"
	p.Fields[schema.KeyDescription] = map[string]any{}

	assert.Empty(t, Validate(cfg, p))
}

func TestValidateCustomFields(t *testing.T) {
	cfg, err := schema.Build(schema.RawConfig{},
		schema.CustomField{Key: "dueOn", Setting: schema.FieldSetting{Enabled: true, Required: true, Type: schema.TypeDate}},
		schema.CustomField{Key: "seats", Setting: schema.FieldSetting{Enabled: true, Required: true, Type: schema.TypeNumber}},
		schema.CustomField{Key: "urgent", Setting: schema.FieldSetting{Enabled: true, Required: true, Type: schema.TypeBoolean}},
		schema.CustomField{Key: "slot", Setting: schema.FieldSetting{Enabled: true, Required: true, Type: schema.TypeTime}},
	)
	require.NoError(t, err)

	p := validPayload()
	p.CustomFields = map[string]any{
		"dueOn":  "nope",
		"seats":  "x",
		"urgent": "maybe",
		"slot":   "25:99",
	}
	errs := Validate(cfg, p)
	assert.ElementsMatch(t, []string{"dueOn", "seats", "urgent", "slot"}, errs.Fields())

	p.CustomFields = map[string]any{
		"dueOn":  "2025-06-30",
		"seats":  0,
		"urgent": false,
		"slot":   "09:30",
	}
	assert.Empty(t, Validate(cfg, p))

	// custom keys are read from CustomFields only
	p.Fields["dueOn"] = "2025-06-30"
	delete(p.CustomFields, "dueOn")
	assert.Equal(t, []string{"dueOn"}, Validate(cfg, p).Fields())
}

// A field is reported exactly when it is enabled, required and its value is
// absent or invalid.
func TestValidateReportsOnlyActiveInvalidFields(t *testing.T) {
	settings := []schema.FieldSetting{
		{Enabled: true, Required: true},
		{Enabled: true, Required: false},
		{Enabled: false, Required: true},
		{Enabled: false, Required: false},
	}
	values := []any{nil, "", 10.0, -1, "abc"}

	for _, s := range settings {
		for _, v := range values {
			cfg := schema.Merge(schema.RawConfig{schema.KeyAmount: s})
			p := validPayload()
			if v == nil {
				delete(p.Fields, schema.KeyAmount)
			} else {
				p.Fields[schema.KeyAmount] = v
			}

			invalid := v == nil || v == "" || v == -1 || v == "abc"
			want := s.Enabled && s.Required && invalid

			errs := Validate(cfg, p)
			assert.Equal(t, want, len(errs) == 1, "setting %+v value %v", s, v)
		}
	}
}

func TestErrorsMessage(t *testing.T) {
	errs := Errors{
		{Field: "title", Code: CodeRequired, Message: "is required"},
		{Field: "amount", Code: CodeNotPositive, Message: "must be greater than zero"},
	}
	assert.Equal(t, "validation failed: title: is required; amount: must be greater than zero", errs.Error())
}

func TestNormalizeStripsDisabledFields(t *testing.T) {
	cfg := schema.Merge(schema.RawConfig{
		schema.KeyBeneficiaryPhone: {Enabled: false},
		"secret":                   {Enabled: false, Type: schema.TypeText},
		"vendor":                   {Enabled: true, Type: schema.TypeText},
	})
	p := validPayload()
	p.Fields[schema.KeyBeneficiaryPhone] = "+100"
	p.CustomFields = map[string]any{"secret": "x", "vendor": " ACME ", "unknown": "y"}

	rec, errs := Normalize(cfg, p)
	require.Empty(t, errs)

	_, has := rec.Standard[schema.KeyBeneficiaryPhone]
	assert.False(t, has)
	assert.Equal(t, map[string]schema.Value{"vendor": schema.StringValue("ACME")}, rec.Custom)
	assert.Equal(t, "Pay supplier", rec.String(schema.KeyTitle))
	require.NotNil(t, rec.Number(schema.KeyAmount))
	assert.Equal(t, 125.5, *rec.Number(schema.KeyAmount))

	d := rec.Standard[schema.KeyEffectiveDate]
	assert.Equal(t, schema.KindDate, d.Kind)
	assert.True(t, d.Date.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNormalizeReportsInvalidOptionalValues(t *testing.T) {
	cfg := schema.Merge(schema.RawConfig{
		schema.KeyToggleField: {Enabled: true, Required: false},
	})
	p := validPayload()
	p.Fields[schema.KeyToggleField] = "perhaps"

	rec, errs := Normalize(cfg, p)
	assert.Equal(t, []string{schema.KeyToggleField}, errs.Fields())
	_, has := rec.Standard[schema.KeyToggleField]
	assert.False(t, has)
}

func TestNormalizeRejectsOversizedIDs(t *testing.T) {
	cfg := schema.Merge(schema.RawConfig{
		schema.KeyContactID: {Enabled: true, Required: false},
	})
	p := validPayload()
	p.Fields[schema.KeyContactID] = 1e300
	p.Fields[schema.KeyGroupID] = float64(1 << 63)

	rec, errs := Normalize(cfg, p)
	assert.Equal(t, []string{schema.KeyContactID, schema.KeyGroupID}, errs.Fields())
	assert.Nil(t, rec.ID(schema.KeyContactID))
	assert.Nil(t, rec.ID(schema.KeyGroupID))

	p.Fields[schema.KeyContactID] = float64(1 << 53)
	delete(p.Fields, schema.KeyGroupID)
	rec, errs = Normalize(cfg, p)
	require.Empty(t, errs)
	require.NotNil(t, rec.ID(schema.KeyContactID))
	assert.Equal(t, uint(1<<53), *rec.ID(schema.KeyContactID))
}

func TestNormalizeSubGroup(t *testing.T) {
	p := validPayload()
	p.Fields[schema.KeyGroupID] = 3
	p.Fields[KeySubGroupID] = "9"

	rec, errs := Normalize(schema.Merge(nil), p)
	require.Empty(t, errs)
	require.NotNil(t, rec.ID(schema.KeyGroupID))
	assert.Equal(t, uint(3), *rec.ID(schema.KeyGroupID))
	require.NotNil(t, rec.SubGroupID)
	assert.Equal(t, uint(9), *rec.SubGroupID)

	p.Fields[KeySubGroupID] = 1.5
	_, errs = Normalize(schema.Merge(nil), p)
	assert.Equal(t, []string{KeySubGroupID}, errs.Fields())

	disabled := schema.Merge(schema.RawConfig{schema.KeyGroupID: {Enabled: false}})
	rec, errs = Normalize(disabled, p)
	assert.Empty(t, errs)
	assert.Nil(t, rec.SubGroupID)
	assert.Nil(t, rec.ID(schema.KeyGroupID))
}

func TestPrepareOrdersAllErrors(t *testing.T) {
	cfg := schema.Merge(schema.RawConfig{
		schema.KeyToggleField: {Enabled: true, Required: false},
	})
	p := validPayload()
	delete(p.Fields, schema.KeyTitle)
	p.Fields[schema.KeyToggleField] = "perhaps"
	p.Fields[schema.KeyAmount] = -5

	_, errs := Prepare(cfg, p)
	assert.Equal(t, []string{schema.KeyTitle, schema.KeyAmount, schema.KeyToggleField}, errs.Fields())
}

func TestCheckSeparatesOptionalWarnings(t *testing.T) {
	cfg := schema.Merge(schema.RawConfig{
		schema.KeyToggleField: {Enabled: true, Required: false},
	})
	p := validPayload()
	p.Fields[schema.KeyToggleField] = "maybe"
	p.Fields[schema.KeyDescription] = map[string]any{"x": 1}

	report := Check(cfg, p)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{schema.KeyDescription, schema.KeyToggleField}, report.Warnings.Fields())

	delete(p.Fields, schema.KeyAmount)
	report = Check(cfg, p)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{schema.KeyAmount}, report.Errors.Fields())
	assert.Len(t, report.Warnings, 2)

	_, errs := Prepare(cfg, p)
	assert.Equal(t, []string{schema.KeyDescription, schema.KeyAmount, schema.KeyToggleField}, errs.Fields())
}

func TestCheckEncodesEmptyLists(t *testing.T) {
	b, err := json.Marshal(Check(schema.Merge(nil), validPayload()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":true,"errors":[],"warnings":[]}`, string(b))
}
