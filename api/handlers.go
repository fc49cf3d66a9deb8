/*
handlers.go - HTTP API handlers for the dues engine

PURPOSE:
  Exposes the dues calculator, payment ledger and platform billing via
  REST API. Handles HTTP request/response, JSON serialization, and
  delegates to domain logic.

ENDPOINTS:
  Tenants:
    GET    /api/tenants                                   List tenants
    POST   /api/tenants                                   Create tenant
    GET    /api/tenants/{id}/billing                      Billing-overdue status
    POST   /api/tenants/{id}/billing/schedules            Add a billing schedule
    POST   /api/tenants/{id}/billing/schedules/{sid}/pay  Mark a schedule paid

  Fee structures (billing gated):
    GET    /api/fee-structures          List fee structures
    POST   /api/fee-structures          Create or replace from JSON
    GET    /api/fee-structures/{id}     Get fee structure

  Students (billing gated):
    GET    /api/students                List students
    POST   /api/students                Create student
    GET    /api/students/{id}           Get student
    GET    /api/students/{id}/payments  Payment history
    POST   /api/students/{id}/payments  Record a payment
    GET    /api/students/{id}/dues      Monthly dues and summary
    GET    /api/students/{id}/late-fees Per-fee late-fee evaluation

  Admin:
    POST   /api/admin/sweep             Run the overdue sweep now

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    POST   /api/scenarios/load          Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Ledger: Payment recording (append-only)
  - Factory: JSON to FeeStructure conversion
  - Gate: Platform billing check
  - Now: Clock, replaced in tests

TENANT SCOPING:
  The X-Tenant-ID header scopes list endpoints and fills tenant_id on
  create requests that omit it; a body tenant_id that differs from the
  header is rejected. A record from another tenant is reported as not
  found on reads, and writing over its ID is a 409 (tenant_mismatch).

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 402: Tenant billing overdue
  - 404: Resource not found
  - 409: Conflict (idempotency key reused, ID owned by another tenant)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/warp/dues-engine/billing"
	"github.com/warp/dues-engine/dues"
	"github.com/warp/dues-engine/factory"
	"github.com/warp/dues-engine/generic"
	"github.com/warp/dues-engine/store/sqlstore"
)

// TenantHeader scopes requests to one tenant.
const TenantHeader = "X-Tenant-ID"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlstore.Store
	Ledger  generic.Ledger
	Factory *factory.FeeStructureFactory
	Gate    *billing.Gate
	Logger  *logrus.Logger
	Now     func() generic.TimePoint
	Sweep   *OverdueSweep

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler backed by the given store.
// The billing gate reads the handler's clock.
func NewHandler(store *sqlstore.Store, logger *logrus.Logger) *Handler {
	h := &Handler{
		Store:   store,
		Ledger:  generic.NewLedger(store),
		Factory: factory.NewFeeStructureFactory(),
		Gate:    billing.NewGate(store),
		Logger:  logger,
		Now:     generic.Today,
	}
	h.Gate.Now = func() generic.TimePoint { return h.Now() }
	return h
}

// =============================================================================
// TENANT HANDLERS
// =============================================================================

// ListTenants returns all tenants.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Store.ListTenants(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list tenants", err)
		return
	}

	dtos := make([]TenantDTO, len(tenants))
	for i, t := range tenants {
		dtos[i] = toTenantDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTenant registers a tenant.
// POST /api/tenants
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if !h.decode(w, r, &req) {
		return
	}

	t := billing.Tenant{ID: generic.TenantID(req.ID), Name: req.Name, CreatedAt: h.Now()}
	if err := h.Store.SaveTenant(r.Context(), t); err != nil {
		h.writeDomainError(w, r, "Failed to create tenant", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenantDTO(t))
}

// GetBillingStatus reports whether a tenant is gated.
// GET /api/tenants/{id}/billing
func (h *Handler) GetBillingStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := generic.TenantID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetTenant(ctx, tenantID); err != nil {
		h.writeDomainError(w, r, "Tenant not found", err)
		return
	}

	schedules, err := h.Store.ListBillingSchedules(ctx, tenantID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load billing schedules", err)
		return
	}
	st := billing.Evaluate(tenantID, schedules, h.Now())

	writeJSON(w, http.StatusOK, BillingStatusDTO{
		TenantID:    string(tenantID),
		Overdue:     st.Overdue,
		OverdueFrom: formatDate(st.OverdueFrom),
		Amount:      st.Amount,
		Overdues:    toScheduleDTOs(st.Schedules),
		Schedules:   toScheduleDTOs(schedules),
	})
}

// CreateBillingSchedule adds a platform billing schedule to a tenant.
// POST /api/tenants/{id}/billing/schedules
func (h *Handler) CreateBillingSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := generic.TenantID(chi.URLParam(r, "id"))

	var req CreateBillingScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.Store.GetTenant(ctx, tenantID); err != nil {
		h.writeDomainError(w, r, "Tenant not found", err)
		return
	}

	dueDate, _ := generic.ParseDate(req.DueDate) // checked by isodate
	sch, err := h.Store.SaveBillingSchedule(ctx, billing.Schedule{
		ID:          req.ID,
		TenantID:    tenantID,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     dueDate,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to save billing schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleDTO(sch))
}

// PayBillingSchedule marks a schedule paid, lifting the gate once no other
// schedule is overdue.
// POST /api/tenants/{id}/billing/schedules/{scheduleID}/pay
func (h *Handler) PayBillingSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := generic.TenantID(chi.URLParam(r, "id"))
	scheduleID := chi.URLParam(r, "scheduleID")

	// body is optional
	var req PayBillingScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if err := factory.Validate(req); err != nil {
		h.writeDomainError(w, r, "Validation failed", err)
		return
	}
	paidAt := h.Now()
	if req.PaidAt != "" {
		paidAt, _ = generic.ParseDate(req.PaidAt)
	}

	if err := h.Store.MarkSchedulePaid(ctx, tenantID, scheduleID, paidAt); err != nil {
		h.writeDomainError(w, r, "Failed to mark schedule paid", err)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"schedule_id": scheduleID,
		"paid_at":     paidAt.String(),
	}).Info("billing schedule paid")

	st, err := h.Gate.Status(ctx, tenantID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to evaluate billing", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schedule_id": scheduleID,
		"status":      billing.StatusPaid,
		"overdue":     st.Overdue,
	})
}

// =============================================================================
// FEE STRUCTURE HANDLERS
// =============================================================================

// ListFeeStructures returns the fee structures visible to the caller.
func (h *Handler) ListFeeStructures(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListFeeStructures(r.Context(), tenantFrom(r))
	if err != nil {
		h.writeDomainError(w, r, "Failed to list fee structures", err)
		return
	}

	dtos := make([]FeeStructureDTO, 0, len(records))
	for _, rec := range records {
		fs, err := h.Factory.ParseFeeStructure(rec.ConfigJSON)
		if err != nil {
			h.Logger.WithError(err).WithField("fee_structure_id", rec.ID).Warn("skipping unreadable fee structure")
			continue
		}
		dtos = append(dtos, toFeeStructureDTO(rec, h.Factory.ToJSON(fs)))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateFeeStructure validates and stores a fee structure. Posting an
// existing ID replaces it and bumps its version.
// POST /api/fee-structures
func (h *Handler) CreateFeeStructure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var fj factory.FeeStructureJSON
	if err := json.NewDecoder(r.Body).Decode(&fj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if !fillTenant(w, r, &fj.TenantID) {
		return
	}

	fs, err := h.Factory.FromJSON(fj)
	if err != nil {
		h.writeDomainError(w, r, "Invalid fee structure", err)
		return
	}

	configJSON, err := h.Factory.Marshal(fs)
	if err != nil {
		h.writeDomainError(w, r, "Failed to encode fee structure", err)
		return
	}
	rec := sqlstore.FeeStructureRecord{
		ID:         fs.ID,
		TenantID:   string(fs.TenantID),
		Name:       fs.Name,
		ConfigJSON: configJSON,
	}
	if err := h.Store.SaveFeeStructure(ctx, rec); err != nil {
		h.writeDomainError(w, r, "Failed to save fee structure", err)
		return
	}

	saved, err := h.Store.GetFeeStructure(ctx, fs.ID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to reload fee structure", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeeStructureDTO(*saved, h.Factory.ToJSON(fs)))
}

// GetFeeStructure returns a single fee structure.
func (h *Handler) GetFeeStructure(w http.ResponseWriter, r *http.Request) {
	rec, fs, err := h.loadFeeStructure(r.Context(), chi.URLParam(r, "id"), tenantFrom(r))
	if err != nil {
		h.writeDomainError(w, r, "Fee structure not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toFeeStructureDTO(*rec, h.Factory.ToJSON(fs)))
}

func (h *Handler) loadFeeStructure(ctx context.Context, id string, tenantID generic.TenantID) (*sqlstore.FeeStructureRecord, *dues.FeeStructure, error) {
	rec, err := h.Store.GetFeeStructure(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if tenantID != "" && rec.TenantID != string(tenantID) {
		return nil, nil, &generic.NotFoundError{Kind: "fee_structure", ID: id}
	}
	fs, err := h.Factory.ParseFeeStructure(rec.ConfigJSON)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "stored fee structure %s", id)
	}
	return rec, fs, nil
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns the students visible to the caller.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Store.ListStudents(r.Context(), tenantFrom(r))
	if err != nil {
		h.writeDomainError(w, r, "Failed to list students", err)
		return
	}

	dtos := make([]StudentDTO, len(students))
	for i, s := range students {
		dtos[i] = toStudentDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStudent enrolls a student under an existing fee structure of the
// same tenant.
// POST /api/students
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if !fillTenant(w, r, &req.TenantID) {
		return
	}
	if err := factory.Validate(req); err != nil {
		h.writeDomainError(w, r, "Invalid student", err)
		return
	}

	if _, _, err := h.loadFeeStructure(ctx, req.FeeStructureID, generic.TenantID(req.TenantID)); err != nil {
		if generic.IsNotFound(err) {
			writeFieldError(w, "fee_structure_id", "does not name a fee structure of this tenant")
			return
		}
		h.writeDomainError(w, r, "Failed to load fee structure", err)
		return
	}

	admission, _ := generic.ParseDate(req.AdmissionDate)
	st := dues.Student{
		ID:             generic.StudentID(req.ID),
		TenantID:       generic.TenantID(req.TenantID),
		Name:           req.Name,
		GuardianEmail:  req.GuardianEmail,
		AdmissionDate:  admission,
		FeeStructureID: req.FeeStructureID,
	}
	if err := h.Store.SaveStudent(ctx, st); err != nil {
		h.writeDomainError(w, r, "Failed to create student", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(st))
}

// GetStudent returns a single student.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.loadStudent(r)
	if err != nil {
		h.writeDomainError(w, r, "Student not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(*st))
}

func (h *Handler) loadStudent(r *http.Request) (*dues.Student, error) {
	id := chi.URLParam(r, "id")
	st, err := h.Store.GetStudent(r.Context(), generic.StudentID(id))
	if err != nil {
		return nil, err
	}
	if tenantID := tenantFrom(r); tenantID != "" && st.TenantID != tenantID {
		return nil, &generic.NotFoundError{Kind: "student", ID: id}
	}
	return st, nil
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns the student's payment history, oldest first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	st, err := h.loadStudent(r)
	if err != nil {
		h.writeDomainError(w, r, "Student not found", err)
		return
	}

	payments, err := h.Ledger.Payments(r.Context(), st.ID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordPayment appends a payment to the ledger. A reused idempotency key
// is rejected with 409.
// POST /api/students/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	st, err := h.loadStudent(r)
	if err != nil {
		h.writeDomainError(w, r, "Student not found", err)
		return
	}

	var req RecordPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, fs, err := h.loadFeeStructure(ctx, st.FeeStructureID, "")
	if err != nil {
		h.writeDomainError(w, r, "Failed to load fee structure", err)
		return
	}
	if !hasFee(fs, generic.FeeItemID(req.FeeItemID)) {
		writeFieldError(w, "fee_item_id", "is not part of the student's fee structure")
		return
	}

	datePaid, _ := generic.ParseDate(req.DatePaid)
	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get("Idempotency-Key")
	}
	p := generic.Payment{
		ID:             generic.PaymentID(uuid.NewString()),
		StudentID:      st.ID,
		FeeItemID:      generic.FeeItemID(req.FeeItemID),
		AmountPaid:     req.AmountPaid,
		DatePaid:       datePaid,
		Reference:      req.Reference,
		IdempotencyKey: key,
		RecordedBy:     req.RecordedBy,
	}

	if err := h.Ledger.Record(ctx, p); err != nil {
		h.writeDomainError(w, r, "Failed to record payment", err)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"student_id":  p.StudentID,
		"fee_item_id": p.FeeItemID,
		"amount":      p.AmountPaid.String(),
		"date_paid":   p.DatePaid.String(),
	}).Info("payment recorded")

	writeJSON(w, http.StatusCreated, toPaymentDTO(p))
}

func hasFee(fs *dues.FeeStructure, id generic.FeeItemID) bool {
	for _, f := range fs.Fees {
		if f.ID == id {
			return true
		}
	}
	return false
}

// =============================================================================
// DUES HANDLERS
// =============================================================================

// GetDues returns the student's monthly dues and summary.
// GET /api/students/{id}/dues?as_of=YYYY-MM-DD
func (h *Handler) GetDues(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}
	st, err := h.loadStudent(r)
	if err != nil {
		h.writeDomainError(w, r, "Student not found", err)
		return
	}

	monthly, err := h.computeDues(r.Context(), *st, asOf)
	if err != nil {
		h.writeDomainError(w, r, "Failed to compute dues", err)
		return
	}

	writeJSON(w, http.StatusOK, DuesResponse{
		StudentID: string(st.ID),
		AsOf:      asOf.String(),
		Months:    toMonthlyDueDTOs(monthly),
		Summary:   toSummaryDTO(dues.Summarize(monthly, asOf)),
	})
}

// computeDues loads the student's fee structure and payments and derives the
// monthly dues as of asOf. Nothing is persisted.
func (h *Handler) computeDues(ctx context.Context, st dues.Student, asOf generic.TimePoint) ([]dues.MonthlyDue, error) {
	_, fs, err := h.loadFeeStructure(ctx, st.FeeStructureID, "")
	if err != nil {
		return nil, err
	}
	payments, err := h.Ledger.Payments(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	st.PaidFees = payments
	return dues.CalculateMonthlyDues(st, *fs, asOf), nil
}

// GetLateFees evaluates every fee's late-fee rule for one due month.
// GET /api/students/{id}/late-fees?month=3&year=2024&as_of=2024-04-20
func (h *Handler) GetLateFees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeFieldError(w, "month", "must be between 1 and 12")
		return
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 1 {
		writeFieldError(w, "year", "must be a positive year")
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	st, err := h.loadStudent(r)
	if err != nil {
		h.writeDomainError(w, r, "Student not found", err)
		return
	}
	_, fs, err := h.loadFeeStructure(r.Context(), st.FeeStructureID, "")
	if err != nil {
		h.writeDomainError(w, r, "Failed to load fee structure", err)
		return
	}

	resp := LateFeesResponse{
		StudentID: string(st.ID),
		Month:     month,
		Year:      year,
		AsOf:      asOf.String(),
		Fees:      make([]LateFeeDTO, 0, len(fs.Fees)),
	}
	for _, fee := range fs.Fees {
		calc := dues.GetLateFeeCalculation(fee, month, year, asOf)
		resp.Fees = append(resp.Fees, LateFeeDTO{
			FeeItemID:     string(fee.ID),
			FeeName:       fee.Name,
			Enabled:       fee.LateFeeEnabled,
			ShouldApply:   calc.ShouldApply,
			Amount:        calc.Amount,
			DaysOverdue:   calc.DaysOverdue,
			DueDate:       formatDate(calc.DueDate),
			EffectiveDate: formatDate(calc.EffectiveDate),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// asOf reads the as_of query parameter, defaulting to today.
func (h *Handler) asOf(w http.ResponseWriter, r *http.Request) (generic.TimePoint, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.Now(), true
	}
	tp, err := generic.ParseDate(raw)
	if err != nil {
		writeFieldError(w, "as_of", "must be a date in YYYY-MM-DD format")
		return generic.TimePoint{}, false
	}
	return tp, true
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunSweep runs the overdue sweep immediately.
// POST /api/admin/sweep
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	if h.Sweep == nil {
		writeError(w, http.StatusServiceUnavailable, "Overdue sweep is not configured", nil)
		return
	}
	res := h.Sweep.RunNow(r.Context())
	writeJSON(w, http.StatusOK, SweepResultDTO{
		AsOf:            res.AsOf.String(),
		TenantsChecked:  res.TenantsChecked,
		TenantsOverdue:  res.TenantsOverdue,
		StudentsChecked: res.StudentsChecked,
		StudentsOverdue: res.StudentsOverdue,
		RemindersSent:   res.RemindersSent,
		Failures:        res.Failures,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func tenantFrom(r *http.Request) generic.TenantID {
	return generic.TenantID(r.Header.Get(TenantHeader))
}

// fillTenant defaults a request's tenant_id to the X-Tenant-ID header and
// rejects a body naming a different tenant than the header.
func fillTenant(w http.ResponseWriter, r *http.Request, tenantID *string) bool {
	caller := string(tenantFrom(r))
	switch {
	case caller == "":
	case *tenantID == "":
		*tenantID = caller
	case *tenantID != caller:
		writeFieldError(w, "tenant_id", "must match the "+TenantHeader+" header")
		return false
	}
	return true
}

// decode reads a JSON body into v and validates it. On failure it writes
// the 400 response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return false
	}
	if err := factory.Validate(v); err != nil {
		h.writeDomainError(w, r, "Validation failed", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeFieldError(w http.ResponseWriter, field, reason string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "Validation failed",
		Code:   "validation_error",
		Fields: []factory.FieldError{{Field: field, Error: field + " " + reason}},
	})
}

// writeDomainError maps domain errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var (
		verr    *factory.ValidationError
		perr    *generic.InvalidPaymentError
		overdue *generic.BillingOverdueError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: message, Code: "validation_error", Details: verr.Error(), Fields: verr.Fields,
		})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: message, Code: "invalid_payment",
			Fields: []factory.FieldError{{Field: perr.Field, Error: perr.Field + " " + perr.Reason}},
		})
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: message, Code: "duplicate", Details: err.Error()})
	case errors.Is(err, generic.ErrTenantMismatch):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: message, Code: "tenant_mismatch", Details: err.Error()})
	case errors.As(err, &overdue):
		writeJSON(w, http.StatusPaymentRequired, ErrorResponse{
			Error: "Tenant billing is overdue",
			Code:  "billing_overdue",
			Details: map[string]string{
				"tenant_id":    string(overdue.TenantID),
				"overdue_from": overdue.OverdueFrom.String(),
				"amount":       overdue.Amount.String(),
			},
		})
	case generic.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: message, Code: "not_found", Details: err.Error()})
	case generic.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_input", Details: err.Error()})
	default:
		h.Logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error(message)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: message, Code: "internal"})
	}
}
