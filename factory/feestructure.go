/*
Package factory provides JSON to Go fee structure conversion.

PURPOSE:
  Converts JSON fee structure definitions into dues.FeeStructure values.
  A school's bursar can define fees, late-fee rules and waivers in JSON
  (admin UI, seed files, the database config column) and the factory
  validates them and builds the Go structs.

JSON SCHEMA:
  {
    "id": "fs-standard",
    "tenant_id": "school-1",
    "name": "Standard Day Scholar",
    "fees": [
      {
        "id": "tuition",
        "name": "Tuition",
        "amount": "2000",
        "frequency": "MONTHLY",
        "late_fee_enabled": true,
        "late_fee_frequency": "DAILY",
        "late_fee_amount": "10",
        "late_fee_grace_days": 5,
        "waiver_type": "PERCENTAGE",
        "waiver_value": "25"
      }
    ]
  }

  Amounts may be JSON strings or numbers; both decode exactly.

KEY FEATURES:
  - Validates JSON structure (validator/v10, JSON field names in errors)
  - Rejects negative amounts and duplicate fee ids
  - Requires late_fee_amount when late fees are enabled
  - Round-trips through ToJSON for storage

USAGE:
  factory := NewFeeStructureFactory()
  fs, err := factory.ParseFeeStructure(jsonString)

SEE ALSO:
  - dues/types.go: FeeStructure and FeeItem
  - validate.go: Validator setup and ValidationError
*/
package factory

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/warp/dues-engine/dues"
	"github.com/warp/dues-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// FeeStructureJSON is the JSON representation of a fee structure.
type FeeStructureJSON struct {
	ID       string        `json:"id" validate:"required,notblank"`
	TenantID string        `json:"tenant_id" validate:"required"`
	Name     string        `json:"name" validate:"required,notblank"`
	Fees     []FeeItemJSON `json:"fees" validate:"required,min=1,dive"`
}

// FeeItemJSON represents one configured fee.
type FeeItemJSON struct {
	ID        string        `json:"id" validate:"required,notblank"`
	Name      string        `json:"name" validate:"required,notblank"`
	Amount    generic.Money `json:"amount"`
	Frequency string        `json:"frequency" validate:"required,oneof=ONE_TIME MONTHLY QUARTERLY ANNUALLY"`

	LateFeeEnabled   bool           `json:"late_fee_enabled,omitempty"`
	LateFeeFrequency string         `json:"late_fee_frequency,omitempty" validate:"omitempty,oneof=ONE_TIME DAILY WEEKLY MONTHLY"`
	LateFeeAmount    *generic.Money `json:"late_fee_amount,omitempty"`
	LateFeeGraceDays int            `json:"late_fee_grace_days,omitempty"`

	WaiverType  string        `json:"waiver_type,omitempty" validate:"omitempty,oneof=PERCENTAGE FIXED"`
	WaiverValue generic.Money `json:"waiver_value,omitempty"`
}

// =============================================================================
// FEE STRUCTURE FACTORY
// =============================================================================

// FeeStructureFactory converts JSON fee structures to Go structs.
type FeeStructureFactory struct{}

// NewFeeStructureFactory creates a new fee structure factory.
func NewFeeStructureFactory() *FeeStructureFactory {
	return &FeeStructureFactory{}
}

// ParseFeeStructure parses and validates a JSON document.
func (f *FeeStructureFactory) ParseFeeStructure(jsonStr string) (*dues.FeeStructure, error) {
	var fj FeeStructureJSON
	if err := json.Unmarshal([]byte(jsonStr), &fj); err != nil {
		return nil, &ValidationError{Err: errors.Wrap(err, "failed to parse fee structure JSON")}
	}
	return f.FromJSON(fj)
}

// FromJSON validates fj and converts it to a dues.FeeStructure.
func (f *FeeStructureFactory) FromJSON(fj FeeStructureJSON) (*dues.FeeStructure, error) {
	if err := Validate(fj); err != nil {
		return nil, err
	}

	fs := &dues.FeeStructure{
		ID:       fj.ID,
		TenantID: generic.TenantID(fj.TenantID),
		Name:     fj.Name,
	}
	for _, ij := range fj.Fees {
		fs.Fees = append(fs.Fees, parseFeeItem(ij))
	}
	return fs, nil
}

// ToJSON converts a FeeStructure to FeeStructureJSON.
func (f *FeeStructureFactory) ToJSON(fs *dues.FeeStructure) FeeStructureJSON {
	fj := FeeStructureJSON{
		ID:       fs.ID,
		TenantID: string(fs.TenantID),
		Name:     fs.Name,
	}
	for _, fee := range fs.Fees {
		ij := FeeItemJSON{
			ID:               string(fee.ID),
			Name:             fee.Name,
			Amount:           fee.Amount,
			Frequency:        string(fee.Frequency),
			LateFeeEnabled:   fee.LateFeeEnabled,
			LateFeeFrequency: string(fee.LateFeeFrequency),
			LateFeeGraceDays: fee.LateFeeGraceDays,
			WaiverType:       string(fee.WaiverType),
			WaiverValue:      fee.WaiverValue,
		}
		if fee.LateFeeAmount != nil {
			v := *fee.LateFeeAmount
			ij.LateFeeAmount = &v
		}
		fj.Fees = append(fj.Fees, ij)
	}
	return fj
}

// Marshal renders a FeeStructure as its JSON document.
func (f *FeeStructureFactory) Marshal(fs *dues.FeeStructure) (string, error) {
	b, err := json.Marshal(f.ToJSON(fs))
	if err != nil {
		return "", errors.Wrap(err, "marshaling fee structure")
	}
	return string(b), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseFeeItem(ij FeeItemJSON) dues.FeeItem {
	item := dues.FeeItem{
		ID:               generic.FeeItemID(ij.ID),
		Name:             ij.Name,
		Amount:           ij.Amount,
		Frequency:        dues.Frequency(ij.Frequency),
		LateFeeEnabled:   ij.LateFeeEnabled,
		LateFeeFrequency: dues.LateFeeFrequency(ij.LateFeeFrequency),
		LateFeeGraceDays: ij.LateFeeGraceDays,
		WaiverType:       dues.WaiverType(ij.WaiverType),
		WaiverValue:      ij.WaiverValue,
	}
	if ij.LateFeeAmount != nil {
		v := *ij.LateFeeAmount
		item.LateFeeAmount = &v
	}
	if item.LateFeeEnabled && item.LateFeeFrequency == "" {
		item.LateFeeFrequency = dues.LateFeeOneTime
	}
	return item
}
