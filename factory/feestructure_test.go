package factory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/dues-engine/dues"
	"github.com/warp/dues-engine/factory"
	"github.com/warp/dues-engine/generic"
)

const standardJSON = `{
	"id": "fs-standard",
	"tenant_id": "school-1",
	"name": "Standard",
	"fees": [
		{
			"id": "tuition",
			"name": "Tuition",
			"amount": "2000",
			"frequency": "MONTHLY",
			"late_fee_enabled": true,
			"late_fee_frequency": "DAILY",
			"late_fee_amount": 10,
			"late_fee_grace_days": 5,
			"waiver_type": "PERCENTAGE",
			"waiver_value": "25"
		},
		{
			"id": "admission",
			"name": "Admission",
			"amount": 5000.50,
			"frequency": "ONE_TIME"
		}
	]
}`

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *factory.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	out := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		out[f.Field] = f.Error
	}
	return out
}

func TestParseFeeStructure_Valid(t *testing.T) {
	fs, err := factory.NewFeeStructureFactory().ParseFeeStructure(standardJSON)
	require.NoError(t, err)

	assert.Equal(t, "fs-standard", fs.ID)
	assert.Equal(t, generic.TenantID("school-1"), fs.TenantID)
	require.Len(t, fs.Fees, 2)

	tuition := fs.Fees[0]
	assert.Equal(t, dues.FrequencyMonthly, tuition.Frequency)
	assert.Equal(t, dues.LateFeeDaily, tuition.LateFeeFrequency)
	require.NotNil(t, tuition.LateFeeAmount)
	assert.Equal(t, "10.00", tuition.LateFeeAmount.String())
	assert.Equal(t, 5, tuition.LateFeeGraceDays)
	assert.Equal(t, "1500.00", tuition.DueAmount().String())

	admission := fs.Fees[1]
	assert.Equal(t, "5000.50", admission.Amount.String())
	assert.False(t, admission.LateFeeEnabled)
	assert.Nil(t, admission.LateFeeAmount)
}

func TestParseFeeStructure_MalformedJSON(t *testing.T) {
	_, err := factory.NewFeeStructureFactory().ParseFeeStructure(`{"id": `)
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidInput))
}

func TestParseFeeStructure_FieldErrors(t *testing.T) {
	// GIVEN: A structure with several independent problems
	input := `{
		"id": "fs-bad",
		"tenant_id": "school-1",
		"name": "  ",
		"fees": [
			{"id": "a", "name": "A", "amount": "-1", "frequency": "WEEKLY"},
			{"id": "b", "name": "B", "amount": "10", "frequency": "MONTHLY", "late_fee_enabled": true}
		]
	}`

	// WHEN: Parsing
	_, err := factory.NewFeeStructureFactory().ParseFeeStructure(input)

	// THEN: Every problem is reported under its JSON path
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "fees[0].amount")
	assert.Contains(t, fields, "fees[0].frequency")
	assert.Contains(t, fields, "fees[1].late_fee_amount")
	assert.True(t, generic.IsClientError(err))
}

func TestParseFeeStructure_RequiresFees(t *testing.T) {
	_, err := factory.NewFeeStructureFactory().ParseFeeStructure(`{"id": "x", "tenant_id": "t", "name": "n", "fees": []}`)
	assert.Contains(t, fieldsOf(t, err), "fees")
}

func TestParseFeeStructure_DuplicateFeeIDs(t *testing.T) {
	input := `{
		"id": "x", "tenant_id": "t", "name": "n",
		"fees": [
			{"id": "tuition", "name": "A", "amount": "1", "frequency": "MONTHLY"},
			{"id": "tuition", "name": "B", "amount": "2", "frequency": "MONTHLY"}
		]
	}`
	_, err := factory.NewFeeStructureFactory().ParseFeeStructure(input)
	assert.Contains(t, fieldsOf(t, err), "fees")
}

func TestParseFeeStructure_EnabledLateFeeDefaultsToOneTime(t *testing.T) {
	input := `{
		"id": "x", "tenant_id": "t", "name": "n",
		"fees": [{"id": "f", "name": "F", "amount": "1", "frequency": "MONTHLY",
		          "late_fee_enabled": true, "late_fee_amount": "3"}]
	}`
	fs, err := factory.NewFeeStructureFactory().ParseFeeStructure(input)
	require.NoError(t, err)
	assert.Equal(t, dues.LateFeeOneTime, fs.Fees[0].LateFeeFrequency)
}

func TestMarshal_RoundTrip(t *testing.T) {
	f := factory.NewFeeStructureFactory()
	fs, err := f.ParseFeeStructure(standardJSON)
	require.NoError(t, err)

	doc, err := f.Marshal(fs)
	require.NoError(t, err)

	again, err := f.ParseFeeStructure(doc)
	require.NoError(t, err)

	redoc, err := f.Marshal(again)
	require.NoError(t, err)
	assert.JSONEq(t, doc, redoc)
	assert.Equal(t, "1500.00", again.Fees[0].DueAmount().String())
}
