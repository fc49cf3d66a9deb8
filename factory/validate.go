package factory

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"

	"github.com/warp/dues-engine/generic"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"

	nonNegativeTag  = "nonneg"
	nonNegativeText = "{0} must not be negative"

	lateFeeAmountTag  = "latefee_amount"
	lateFeeAmountText = "{0} is required when late fees are enabled"

	uniqueFeeIDsTag  = "unique_fee_ids"
	uniqueFeeIDsText = "{0} must be unique within a fee structure"

	dateTag  = "isodate"
	dateText = "{0} must be a date in YYYY-MM-DD format"
)

func init() {
	validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(dateTag, dateValidation)
	validate.RegisterStructValidation(feeItemStructValidation, FeeItemJSON{})
	validate.RegisterStructValidation(feeStructureStructValidation, FeeStructureJSON{})

	registerCustomTranslation(notBlankTag, notBlankText)
	registerCustomTranslation(nonNegativeTag, nonNegativeText)
	registerCustomTranslation(lateFeeAmountTag, lateFeeAmountText)
	registerCustomTranslation(uniqueFeeIDsTag, uniqueFeeIDsText)
	registerCustomTranslation(dateTag, dateText)
}

// registerCustomTranslation registers a custom translation for the specified validation tag.
func registerCustomTranslation(tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// FieldError is used to indicate an error with a specific field. Field is
// the JSON path, e.g. "fees[0].amount".
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation failed"
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return generic.ErrInvalidInput
}

// Validate checks v against its `validate` struct tags and returns a
// *ValidationError listing every failing field.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validating input")
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: fieldPath(fe.Namespace()),
			Error: fe.Translate(translator),
		})
	}
	return &ValidationError{Err: errors.New("validation failed"), Fields: fields}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func dateValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := generic.ParseDate(s)
	return err == nil
}

// feeItemStructValidation checks the money fields and the late-fee pairing.
func feeItemStructValidation(sl validator.StructLevel) {
	fi, ok := sl.Current().Interface().(FeeItemJSON)
	if !ok {
		return
	}
	if fi.Amount.IsNegative() {
		sl.ReportError(fi.Amount, "amount", "Amount", nonNegativeTag, "")
	}
	if fi.WaiverValue.IsNegative() {
		sl.ReportError(fi.WaiverValue, "waiver_value", "WaiverValue", nonNegativeTag, "")
	}
	if fi.LateFeeAmount != nil && fi.LateFeeAmount.IsNegative() {
		sl.ReportError(fi.LateFeeAmount, "late_fee_amount", "LateFeeAmount", nonNegativeTag, "")
	}
	if fi.LateFeeEnabled && fi.LateFeeAmount == nil {
		sl.ReportError(fi.LateFeeAmount, "late_fee_amount", "LateFeeAmount", lateFeeAmountTag, "")
	}
}

func feeStructureStructValidation(sl validator.StructLevel) {
	fs, ok := sl.Current().Interface().(FeeStructureJSON)
	if !ok {
		return
	}
	seen := make(map[string]bool, len(fs.Fees))
	for _, f := range fs.Fees {
		if f.ID == "" {
			continue
		}
		if seen[f.ID] {
			sl.ReportError(fs.Fees, "fees", "Fees", uniqueFeeIDsTag, "")
			return
		}
		seen[f.ID] = true
	}
}
