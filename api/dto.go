/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

FORMATS:
  - Field names are snake_case
  - Dates are "YYYY-MM-DD"
  - Money is a decimal string ("2000.00"); requests accept strings or numbers

VALIDATION:
  Request types carry `validate` tags checked by factory.Validate. Errors
  come back as 400 with one entry per failing field.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/feestructure.go: FeeStructureJSON, also the create request body
*/
package api

import (
	"github.com/warp/dues-engine/billing"
	"github.com/warp/dues-engine/dues"
	"github.com/warp/dues-engine/factory"
	"github.com/warp/dues-engine/generic"
	"github.com/warp/dues-engine/store/sqlstore"
)

// =============================================================================
// TENANTS AND PLATFORM BILLING
// =============================================================================

type TenantDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateTenantRequest struct {
	ID   string `json:"id" validate:"required,notblank"`
	Name string `json:"name" validate:"required,notblank"`
}

type BillingScheduleDTO struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	Description string        `json:"description,omitempty"`
	Amount      generic.Money `json:"amount"`
	DueDate     string        `json:"due_date"`
	Status      string        `json:"status"`
	PaidAt      string        `json:"paid_at,omitempty"`
}

type CreateBillingScheduleRequest struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Amount      generic.Money `json:"amount"`
	DueDate     string        `json:"due_date" validate:"required,isodate"`
}

type PayBillingScheduleRequest struct {
	PaidAt string `json:"paid_at" validate:"omitempty,isodate"`
}

// BillingStatusDTO is the gate's view of a tenant.
type BillingStatusDTO struct {
	TenantID    string               `json:"tenant_id"`
	Overdue     bool                 `json:"overdue"`
	OverdueFrom string               `json:"overdue_from,omitempty"`
	Amount      generic.Money        `json:"amount"`
	Overdues    []BillingScheduleDTO `json:"overdue_schedules"`
	Schedules   []BillingScheduleDTO `json:"schedules"`
}

// =============================================================================
// FEE STRUCTURES
// =============================================================================

// FeeStructureDTO represents a fee structure in API responses.
type FeeStructureDTO struct {
	ID        string                   `json:"id"`
	TenantID  string                   `json:"tenant_id"`
	Name      string                   `json:"name"`
	Config    factory.FeeStructureJSON `json:"config"`
	Version   int                      `json:"version"`
	CreatedAt string                   `json:"created_at,omitempty"`
	UpdatedAt string                   `json:"updated_at,omitempty"`
}

// =============================================================================
// STUDENTS AND PAYMENTS
// =============================================================================

type StudentDTO struct {
	ID             string `json:"id"`
	TenantID       string `json:"tenant_id"`
	Name           string `json:"name"`
	GuardianEmail  string `json:"guardian_email,omitempty"`
	AdmissionDate  string `json:"admission_date"`
	FeeStructureID string `json:"fee_structure_id"`
}

type CreateStudentRequest struct {
	ID             string `json:"id" validate:"required,notblank"`
	TenantID       string `json:"tenant_id" validate:"required,notblank"`
	Name           string `json:"name" validate:"required,notblank"`
	GuardianEmail  string `json:"guardian_email" validate:"omitempty,email"`
	AdmissionDate  string `json:"admission_date" validate:"required,isodate"`
	FeeStructureID string `json:"fee_structure_id" validate:"required"`
}

type PaymentDTO struct {
	ID             string        `json:"id"`
	StudentID      string        `json:"student_id"`
	FeeItemID      string        `json:"fee_item_id"`
	AmountPaid     generic.Money `json:"amount_paid"`
	DatePaid       string        `json:"date_paid"`
	Reference      string        `json:"reference,omitempty"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	RecordedBy     string        `json:"recorded_by,omitempty"`
}

type RecordPaymentRequest struct {
	FeeItemID      string        `json:"fee_item_id" validate:"required"`
	AmountPaid     generic.Money `json:"amount_paid"`
	DatePaid       string        `json:"date_paid" validate:"required,isodate"`
	Reference      string        `json:"reference"`
	IdempotencyKey string        `json:"idempotency_key"`
	RecordedBy     string        `json:"recorded_by"`
}

// =============================================================================
// DUES
// =============================================================================

type FeeDueDTO struct {
	FeeItemID     string        `json:"fee_item_id"`
	FeeName       string        `json:"fee_name"`
	Frequency     string        `json:"frequency"`
	Amount        generic.Money `json:"amount"`
	Waiver        generic.Money `json:"waiver"`
	DueAmount     generic.Money `json:"due_amount"`
	PaidAmount    generic.Money `json:"paid_amount"`
	LateFeeAmount generic.Money `json:"late_fee_amount"`
	Outstanding   generic.Money `json:"outstanding"`
}

type MonthlyDueDTO struct {
	Month        string        `json:"month"` // YYYY-MM
	Dues         []FeeDueDTO   `json:"dues"`
	TotalDue     generic.Money `json:"total_due"`
	TotalPaid    generic.Money `json:"total_paid"`
	TotalLateFee generic.Money `json:"total_late_fee"`
}

type DuesSummaryDTO struct {
	Months       int           `json:"months"`
	TotalDue     generic.Money `json:"total_due"`
	TotalPaid    generic.Money `json:"total_paid"`
	TotalLateFee generic.Money `json:"total_late_fee"`
	Outstanding  generic.Money `json:"outstanding"`
	Overdue      bool          `json:"overdue"`
}

// DuesResponse is the monthly dues view of one student.
type DuesResponse struct {
	StudentID string          `json:"student_id"`
	AsOf      string          `json:"as_of"`
	Months    []MonthlyDueDTO `json:"months"`
	Summary   DuesSummaryDTO  `json:"summary"`
}

type LateFeeDTO struct {
	FeeItemID     string        `json:"fee_item_id"`
	FeeName       string        `json:"fee_name"`
	Enabled       bool          `json:"enabled"`
	ShouldApply   bool          `json:"should_apply"`
	Amount        generic.Money `json:"amount"`
	DaysOverdue   int           `json:"days_overdue"`
	DueDate       string        `json:"due_date"`
	EffectiveDate string        `json:"effective_date"`
}

// LateFeesResponse is the per-fee late-fee evaluation for one due month.
type LateFeesResponse struct {
	StudentID string       `json:"student_id"`
	Month     int          `json:"month"`
	Year      int          `json:"year"`
	AsOf      string       `json:"as_of"`
	Fees      []LateFeeDTO `json:"fees"`
}

// =============================================================================
// SCENARIOS, SWEEP, ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"` // "dues" or "billing"
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

type SweepResultDTO struct {
	AsOf            string `json:"as_of"`
	TenantsChecked  int    `json:"tenants_checked"`
	TenantsOverdue  int    `json:"tenants_overdue"`
	StudentsChecked int    `json:"students_checked"`
	StudentsOverdue int    `json:"students_overdue"`
	RemindersSent   int    `json:"reminders_sent"`
	Failures        int    `json:"failures"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string               `json:"error"`
	Code    string               `json:"code,omitempty"`
	Details any                  `json:"details,omitempty"`
	Fields  []factory.FieldError `json:"fields,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTenantDTO(t billing.Tenant) TenantDTO {
	return TenantDTO{ID: string(t.ID), Name: t.Name, CreatedAt: formatDate(t.CreatedAt)}
}

func toScheduleDTO(s billing.Schedule) BillingScheduleDTO {
	return BillingScheduleDTO{
		ID:          s.ID,
		TenantID:    string(s.TenantID),
		Description: s.Description,
		Amount:      s.Amount,
		DueDate:     formatDate(s.DueDate),
		Status:      string(s.Status),
		PaidAt:      formatDate(s.PaidAt),
	}
}

func toScheduleDTOs(ss []billing.Schedule) []BillingScheduleDTO {
	dtos := make([]BillingScheduleDTO, len(ss))
	for i, s := range ss {
		dtos[i] = toScheduleDTO(s)
	}
	return dtos
}

func toStudentDTO(s dues.Student) StudentDTO {
	return StudentDTO{
		ID:             string(s.ID),
		TenantID:       string(s.TenantID),
		Name:           s.Name,
		GuardianEmail:  s.GuardianEmail,
		AdmissionDate:  formatDate(s.AdmissionDate),
		FeeStructureID: s.FeeStructureID,
	}
}

func toPaymentDTO(p generic.Payment) PaymentDTO {
	return PaymentDTO{
		ID:             string(p.ID),
		StudentID:      string(p.StudentID),
		FeeItemID:      string(p.FeeItemID),
		AmountPaid:     p.AmountPaid,
		DatePaid:       formatDate(p.DatePaid),
		Reference:      p.Reference,
		IdempotencyKey: p.IdempotencyKey,
		RecordedBy:     p.RecordedBy,
	}
}

func toFeeStructureDTO(r sqlstore.FeeStructureRecord, config factory.FeeStructureJSON) FeeStructureDTO {
	return FeeStructureDTO{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Config:    config,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toMonthlyDueDTOs(mds []dues.MonthlyDue) []MonthlyDueDTO {
	dtos := make([]MonthlyDueDTO, 0, len(mds))
	for _, md := range mds {
		dto := MonthlyDueDTO{
			Month:        md.Month.Time.Format("2006-01"),
			TotalDue:     md.TotalDue,
			TotalPaid:    md.TotalPaid,
			TotalLateFee: md.TotalLateFee,
		}
		for _, d := range md.Dues {
			dto.Dues = append(dto.Dues, FeeDueDTO{
				FeeItemID:     string(d.FeeItemID),
				FeeName:       d.FeeName,
				Frequency:     string(d.Frequency),
				Amount:        d.Amount,
				Waiver:        d.Waiver,
				DueAmount:     d.DueAmount,
				PaidAmount:    d.PaidAmount,
				LateFeeAmount: d.LateFeeAmount,
				Outstanding:   d.Outstanding(),
			})
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

func toSummaryDTO(s dues.Summary) DuesSummaryDTO {
	return DuesSummaryDTO{
		Months:       s.Months,
		TotalDue:     s.TotalDue,
		TotalPaid:    s.TotalPaid,
		TotalLateFee: s.TotalLateFee,
		Outstanding:  s.Outstanding,
		Overdue:      s.IsOverdue(),
	}
}

func formatDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}
