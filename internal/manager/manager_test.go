package manager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tejzpr/fieldschema-mcp/internal/db"
	"github.com/tejzpr/fieldschema-mcp/internal/hierarchy"
	"github.com/tejzpr/fieldschema-mcp/internal/schema"
	"github.com/tejzpr/fieldschema-mcp/internal/testsupport"
	"github.com/tejzpr/fieldschema-mcp/internal/validation"
)

func definePayments(t *testing.T) *db.RequestType {
	t.Helper()
	rt, err := NewRequestTypeManager().DefineRequestType(context.Background(), RequestTypeInput{
		Name: "Payment",
		FieldConfig: schema.RawConfig{
			schema.KeyBeneficiaryPhone: {Enabled: false, Label: "Phone"},
			schema.KeyToggleField:      {Enabled: true, Required: false, Label: "Urgent"},
		},
		CustomFields: []schema.CustomField{
			{Key: "invoiceDate", Setting: schema.FieldSetting{Enabled: true, Required: true, Type: schema.TypeDate, Label: "Invoice date"}},
			{Key: "internalNote", Setting: schema.FieldSetting{Enabled: false, Type: schema.TypeText}},
		},
	})
	require.NoError(t, err)
	return rt
}

func paymentPayload() validation.Payload {
	return validation.Payload{
		Fields: map[string]any{
			schema.KeyTitle:            "Pay ACME",
			schema.KeyAmount:           "250",
			schema.KeyEffectiveDate:    "2025-04-01",
			schema.KeyStatus:           "APPROVED",
			schema.KeyBeneficiaryPhone: "+15550100",
			schema.KeyToggleField:      true,
		},
		CustomFields: map[string]any{
			"invoiceDate":  "2025-03-28",
			"internalNote": "do not store",
		},
	}
}

func countRequests(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Get().Model(&db.Request{}).Count(&n).Error)
	return n
}

func TestSubmitRequest(t *testing.T) {
	testsupport.SetupDB(t)
	rt := definePayments(t)
	m := NewRequestManager()

	req, err := m.SubmitRequest(context.Background(), rt.ID, paymentPayload())
	require.NoError(t, err)
	assert.NotZero(t, req.ID)
	assert.NotEmpty(t, req.Reference)
	assert.Equal(t, "Pay ACME", req.Title)
	require.NotNil(t, req.Amount)
	assert.Equal(t, 250.0, *req.Amount)
	assert.Equal(t, "APPROVED", req.Status)
	require.NotNil(t, req.EffectiveDate)
	assert.Equal(t, "2025-04-01", req.EffectiveDate.Format("2006-01-02"))
	require.NotNil(t, req.ToggleField)
	assert.True(t, *req.ToggleField)

	// disabled fields are stripped, not stored
	assert.Empty(t, req.BeneficiaryPhone)
	custom := req.CustomFields.Data()
	assert.NotContains(t, custom, "internalNote")
	assert.Equal(t, schema.KindDate, custom["invoiceDate"].Kind)

	var fetched db.Request
	require.NoError(t, db.Get().First(&fetched, req.ID).Error)
	assert.Equal(t, req.Reference, fetched.Reference)
	assert.Empty(t, fetched.BeneficiaryPhone)
}

func TestSubmitRequestReportsAllFieldErrors(t *testing.T) {
	testsupport.SetupDB(t)
	rt := definePayments(t)

	p := paymentPayload()
	delete(p.Fields, schema.KeyTitle)
	p.Fields[schema.KeyAmount] = 0
	p.CustomFields["invoiceDate"] = "soon"

	_, err := NewRequestManager().SubmitRequest(context.Background(), rt.ID, p)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.ElementsMatch(t, []string{schema.KeyTitle, schema.KeyAmount, "invoiceDate"}, errs.Fields())
	assert.Zero(t, countRequests(t))
}

func TestSubmitRequestDefaultsStatus(t *testing.T) {
	testsupport.SetupDB(t)
	rt, err := NewRequestTypeManager().DefineRequestType(context.Background(), RequestTypeInput{
		Name: "Note",
		FieldConfig: schema.RawConfig{
			schema.KeyAmount:        {Enabled: false},
			schema.KeyEffectiveDate: {Enabled: false},
			schema.KeyStatus:        {Enabled: false, Options: []schema.StatusOption{{Value: "OPEN", Order: 0}, {Value: "CLOSED", Order: 1}}},
		},
	})
	require.NoError(t, err)

	req, err := NewRequestManager().SubmitRequest(context.Background(), rt.ID, validation.Payload{
		Fields: map[string]any{schema.KeyTitle: "hello", schema.KeyStatus: "CLOSED"},
	})
	require.NoError(t, err)
	assert.Equal(t, "OPEN", req.Status)
	assert.Nil(t, req.Amount)
}

func TestSubmitRequestHierarchyMismatch(t *testing.T) {
	testsupport.SetupDB(t)
	ctx := context.Background()
	t1 := definePayments(t)
	t2 := definePayments(t)

	g, err := hierarchy.NewManager().CreateGroup(ctx, t1.ID, "Suppliers", "")
	require.NoError(t, err)

	p := paymentPayload()
	p.Fields[schema.KeyGroupID] = g.ID

	_, err = NewRequestManager().SubmitRequest(ctx, t2.ID, p)
	var mismatch *hierarchy.HierarchyMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Zero(t, countRequests(t))

	req, err := NewRequestManager().SubmitRequest(ctx, t1.ID, p)
	require.NoError(t, err)
	require.NotNil(t, req.GroupID)
	assert.Equal(t, g.ID, *req.GroupID)
}

func TestSubmitRequestWithSubGroup(t *testing.T) {
	testsupport.SetupDB(t)
	ctx := context.Background()
	rt := definePayments(t)
	h := hierarchy.NewManager()
	g, _ := h.CreateGroup(ctx, rt.ID, "Suppliers", "")
	s, _, err := h.CreateSubGroup(ctx, g.ID, "Local", "")
	require.NoError(t, err)

	p := paymentPayload()
	p.Fields[schema.KeyGroupID] = g.ID
	p.Fields[validation.KeySubGroupID] = s.ID

	req, err := NewRequestManager().SubmitRequest(ctx, rt.ID, p)
	require.NoError(t, err)
	require.NotNil(t, req.SubGroupID)
	assert.Equal(t, s.ID, *req.SubGroupID)

	// once referenced the subgroup can only be deactivated
	var blocked *hierarchy.HasActiveChildrenError
	require.ErrorAs(t, h.DeleteSubGroup(ctx, s.ID), &blocked)
}

func TestSubmitRequestInactiveOrMissingType(t *testing.T) {
	testsupport.SetupDB(t)
	ctx := context.Background()
	rt := definePayments(t)
	inactive := false
	_, err := NewRequestTypeManager().UpdateRequestType(ctx, rt.ID, RequestTypePatch{IsActive: &inactive})
	require.NoError(t, err)

	_, err = NewRequestManager().SubmitRequest(ctx, rt.ID, paymentPayload())
	assert.ErrorIs(t, err, ErrRequestTypeInactive)

	_, err = NewRequestManager().SubmitRequest(ctx, 999, paymentPayload())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateRequestUsesCurrentSchema(t *testing.T) {
	testsupport.SetupDB(t)
	ctx := context.Background()
	rt := definePayments(t)
	m := NewRequestManager()

	req, err := m.SubmitRequest(ctx, rt.ID, paymentPayload())
	require.NoError(t, err)

	_, err = NewRequestTypeManager().AddCustomField(ctx, rt.ID, schema.CustomField{
		Key: "poNumber", Setting: schema.FieldSetting{Enabled: true, Required: true, Label: "PO"},
	})
	require.NoError(t, err)

	_, err = m.UpdateRequest(ctx, req.ID, paymentPayload())
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{"poNumber"}, errs.Fields())

	p := paymentPayload()
	p.Fields[schema.KeyTitle] = "Pay ACME (revised)"
	p.CustomFields["poNumber"] = "PO-77"
	updated, err := m.UpdateRequest(ctx, req.ID, p)
	require.NoError(t, err)
	assert.Equal(t, req.Reference, updated.Reference)
	assert.Equal(t, "Pay ACME (revised)", updated.Title)
	assert.Equal(t, schema.StringValue("PO-77"), updated.CustomFields.Data()["poNumber"])

	got, err := m.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pay ACME (revised)", got.Title)
}

func TestListRequestsByType(t *testing.T) {
	testsupport.SetupDB(t)
	ctx := context.Background()
	t1 := definePayments(t)
	t2 := definePayments(t)
	m := NewRequestManager()

	for i := 0; i < 3; i++ {
		_, err := m.SubmitRequest(ctx, t1.ID, paymentPayload())
		require.NoError(t, err)
	}
	_, err := m.SubmitRequest(ctx, t2.ID, paymentPayload())
	require.NoError(t, err)

	page, err := m.ListRequests(ctx, t1.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	all, err := m.ListRequests(ctx, 0, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)
}

func TestValidateSubmission(t *testing.T) {
	testsupport.SetupDB(t)
	rt := definePayments(t)

	report, err := NewRequestManager().ValidateSubmission(context.Background(), rt.ID, validation.Payload{})
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{schema.KeyTitle, schema.KeyAmount, schema.KeyEffectiveDate, schema.KeyStatus, "invoiceDate"}, report.Errors.Fields())
	assert.Empty(t, report.Warnings)
	assert.Zero(t, countRequests(t))
}

func TestValidateSubmissionWarnsOnOptionalValues(t *testing.T) {
	testsupport.SetupDB(t)
	rt := definePayments(t)
	m := NewRequestManager()
	ctx := context.Background()

	payload := paymentPayload()
	payload.Fields[schema.KeyToggleField] = "maybe"
	payload.Fields[schema.KeyDescription] = map[string]any{"x": 1}

	report, err := m.ValidateSubmission(ctx, rt.ID, payload)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{schema.KeyDescription, schema.KeyToggleField}, report.Warnings.Fields())

	_, err = m.SubmitRequest(ctx, rt.ID, payload)
	var verr validation.Errors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{schema.KeyDescription, schema.KeyToggleField}, verr.Fields())
	assert.Zero(t, countRequests(t))
}

func TestSubmitWithoutDatabase(t *testing.T) {
	db.InitWithDB(nil)
	_, err := NewRequestManager().SubmitRequest(context.Background(), 1, validation.Payload{})
	assert.ErrorIs(t, err, db.ErrNotInitialized)
}
