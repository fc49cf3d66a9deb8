/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates a tenant, a fee
	structure, students and payments that demonstrate specific features.

AVAILABLE SCENARIOS:

	on-time-payer:     Monthly tuition paid before every due date
	late-payer:        Admitted Jan 2024, nothing paid, monthly late fee
	mixed-frequencies: One-time, monthly, quarterly and annual fees with waivers
	overdue-tenant:    School whose platform invoice is past due (402 demo)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create tenant
 3. Create fee structure via factory
 4. Create students
 5. Record payments through the ledger

Dates are relative to today except late-payer, which is fixed so that
GET /api/students/stu-late/dues?as_of=2024-03-15 shows a late fee on
January only.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "late-payer"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Domain handlers
  - factory/feestructure.go: Fee structure JSON definitions
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/warp/dues-engine/billing"
	"github.com/warp/dues-engine/dues"
	"github.com/warp/dues-engine/factory"
	"github.com/warp/dues-engine/generic"
	"github.com/warp/dues-engine/store/sqlstore"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "on-time-payer",
		Name:        "On-Time Payer",
		Description: "Monthly tuition with a daily late fee, always paid before the due date",
		Category:    "dues",
	},
	{
		ID:          "late-payer",
		Name:        "Late Payer",
		Description: "Admitted January 2024, no payments, 100/month late fee after 5 grace days",
		Category:    "dues",
	},
	{
		ID:          "mixed-frequencies",
		Name:        "Mixed Frequencies",
		Description: "Registration, tuition, lab and activity fees with waivers and partial payments",
		Category:    "dues",
	},
	{
		ID:          "overdue-tenant",
		Name:        "Overdue Tenant",
		Description: "School with an unpaid platform invoice; student routes return 402",
		Category:    "billing",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	loaders := map[string]func(context.Context) error{
		"on-time-payer":     h.loadOnTimePayerScenario,
		"late-payer":        h.loadLatePayerScenario,
		"mixed-frequencies": h.loadMixedFrequenciesScenario,
		"overdue-tenant":    h.loadOverdueTenantScenario,
	}
	load, ok := loaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.writeDomainError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		h.writeDomainError(w, r, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.Logger.WithField("scenario", req.ScenarioID).Info("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadOnTimePayerScenario(ctx context.Context) error {
	const tenant = "greenfield"
	if err := h.seedTenant(ctx, tenant, "Greenfield Academy"); err != nil {
		return err
	}

	err := h.seedFeeStructure(ctx, factory.FeeStructureJSON{
		ID:       "greenfield-standard",
		TenantID: tenant,
		Name:     "Greenfield Standard",
		Fees: []factory.FeeItemJSON{
			{ID: "admission", Name: "Admission Fee", Amount: generic.NewMoney(500), Frequency: "ONE_TIME"},
			{
				ID: "tuition", Name: "Tuition", Amount: generic.NewMoney(2000), Frequency: "MONTHLY",
				LateFeeEnabled: true, LateFeeFrequency: "DAILY", LateFeeAmount: moneyPtr(10), LateFeeGraceDays: 5,
			},
		},
	})
	if err != nil {
		return err
	}

	now := h.Now()
	admitted := generic.StartOfMonth(now.Year(), now.Month()).AddMonths(-3)
	if err := h.seedStudent(ctx, dues.Student{
		ID: "stu-ontime", TenantID: tenant, Name: "Ada Lovelace", GuardianEmail: "lovelace@example.com",
		AdmissionDate: admitted, FeeStructureID: "greenfield-standard",
	}); err != nil {
		return err
	}

	payments := []generic.Payment{
		scenarioPayment("stu-ontime", "admission", 500, admitted.AddDays(2)),
	}
	for m := admitted; !m.After(now); m = m.AddMonths(1) {
		paidOn := m.AddDays(2)
		if paidOn.After(now) {
			break
		}
		payments = append(payments, scenarioPayment("stu-ontime", "tuition", 2000, paidOn))
	}
	return h.Ledger.RecordBatch(ctx, payments)
}

func (h *Handler) loadLatePayerScenario(ctx context.Context) error {
	const tenant = "riverside"
	if err := h.seedTenant(ctx, tenant, "Riverside School"); err != nil {
		return err
	}

	err := h.seedFeeStructure(ctx, factory.FeeStructureJSON{
		ID:       "riverside-tuition",
		TenantID: tenant,
		Name:     "Riverside Tuition",
		Fees: []factory.FeeItemJSON{
			{
				ID: "tuition", Name: "Tuition", Amount: generic.NewMoney(2000), Frequency: "MONTHLY",
				LateFeeEnabled: true, LateFeeFrequency: "MONTHLY", LateFeeAmount: moneyPtr(100), LateFeeGraceDays: 5,
			},
		},
	})
	if err != nil {
		return err
	}

	return h.seedStudent(ctx, dues.Student{
		ID: "stu-late", TenantID: tenant, Name: "Grace Hopper", GuardianEmail: "hopper@example.com",
		AdmissionDate: generic.NewTimePoint(2024, time.January, 1), FeeStructureID: "riverside-tuition",
	})
}

func (h *Handler) loadMixedFrequenciesScenario(ctx context.Context) error {
	const tenant = "hillcrest"
	if err := h.seedTenant(ctx, tenant, "Hillcrest International"); err != nil {
		return err
	}

	err := h.seedFeeStructure(ctx, factory.FeeStructureJSON{
		ID:       "hillcrest-full",
		TenantID: tenant,
		Name:     "Hillcrest Full Programme",
		Fees: []factory.FeeItemJSON{
			{ID: "registration", Name: "Registration", Amount: generic.NewMoney(300), Frequency: "ONE_TIME"},
			{
				ID: "tuition", Name: "Tuition", Amount: generic.NewMoney(1500), Frequency: "MONTHLY",
				LateFeeEnabled: true, LateFeeFrequency: "DAILY", LateFeeAmount: moneyPtr(5), LateFeeGraceDays: 7,
				WaiverType: "PERCENTAGE", WaiverValue: generic.NewMoney(10),
			},
			{
				ID: "lab", Name: "Science Lab", Amount: generic.NewMoney(900), Frequency: "QUARTERLY",
				LateFeeEnabled: true, LateFeeFrequency: "WEEKLY", LateFeeAmount: moneyPtr(25), LateFeeGraceDays: 10,
			},
			{
				ID: "activity", Name: "Activities", Amount: generic.NewMoney(1200), Frequency: "ANNUALLY",
				LateFeeEnabled: true, LateFeeAmount: moneyPtr(50),
				WaiverType: "FIXED", WaiverValue: generic.NewMoney(200),
			},
		},
	})
	if err != nil {
		return err
	}

	now := h.Now()
	admitted := generic.StartOfMonth(now.Year(), now.Month()).AddMonths(-13)
	students := []dues.Student{
		{ID: "stu-mixed-1", TenantID: tenant, Name: "Alan Turing", GuardianEmail: "turing@example.com", AdmissionDate: admitted, FeeStructureID: "hillcrest-full"},
		{ID: "stu-mixed-2", TenantID: tenant, Name: "Katherine Johnson", AdmissionDate: admitted.AddMonths(6), FeeStructureID: "hillcrest-full"},
	}
	for _, st := range students {
		if err := h.seedStudent(ctx, st); err != nil {
			return err
		}
	}

	// first student: registration plus half the tuition for the first months
	payments := []generic.Payment{
		scenarioPayment("stu-mixed-1", "registration", 300, admitted.AddDays(1)),
		scenarioPayment("stu-mixed-1", "lab", 900, admitted.AddDays(20)),
	}
	for i := 0; i < 4; i++ {
		payments = append(payments, scenarioPayment("stu-mixed-1", "tuition", 675, admitted.AddMonths(i).AddDays(14)))
	}
	return h.Ledger.RecordBatch(ctx, payments)
}

func (h *Handler) loadOverdueTenantScenario(ctx context.Context) error {
	const tenant = "lakeside"
	if err := h.seedTenant(ctx, tenant, "Lakeside Prep"); err != nil {
		return err
	}

	err := h.seedFeeStructure(ctx, factory.FeeStructureJSON{
		ID:       "lakeside-basic",
		TenantID: tenant,
		Name:     "Lakeside Basic",
		Fees: []factory.FeeItemJSON{
			{ID: "tuition", Name: "Tuition", Amount: generic.NewMoney(1000), Frequency: "MONTHLY"},
		},
	})
	if err != nil {
		return err
	}

	now := h.Now()
	if err := h.seedStudent(ctx, dues.Student{
		ID: "stu-lakeside", TenantID: tenant, Name: "Mary Jackson",
		AdmissionDate: generic.StartOfMonth(now.Year(), now.Month()).AddMonths(-1), FeeStructureID: "lakeside-basic",
	}); err != nil {
		return err
	}

	paid, err := h.Store.SaveBillingSchedule(ctx, billing.Schedule{
		ID: "inv-lakeside-1", TenantID: tenant, Description: "Platform subscription, previous term",
		Amount: generic.NewMoney(250), DueDate: now.AddDays(-40),
	})
	if err != nil {
		return err
	}
	if err := h.Store.MarkSchedulePaid(ctx, tenant, paid.ID, now.AddDays(-42)); err != nil {
		return err
	}

	_, err = h.Store.SaveBillingSchedule(ctx, billing.Schedule{
		ID: "inv-lakeside-2", TenantID: tenant, Description: "Platform subscription, current term",
		Amount: generic.NewMoney(250), DueDate: now.AddDays(-10),
	})
	return err
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (h *Handler) seedTenant(ctx context.Context, id, name string) error {
	return h.Store.SaveTenant(ctx, billing.Tenant{ID: generic.TenantID(id), Name: name, CreatedAt: h.Now()})
}

func (h *Handler) seedFeeStructure(ctx context.Context, fj factory.FeeStructureJSON) error {
	fs, err := h.Factory.FromJSON(fj)
	if err != nil {
		return errors.Wrapf(err, "scenario fee structure %s", fj.ID)
	}
	configJSON, err := h.Factory.Marshal(fs)
	if err != nil {
		return err
	}
	return h.Store.SaveFeeStructure(ctx, sqlstore.FeeStructureRecord{
		ID:         fs.ID,
		TenantID:   string(fs.TenantID),
		Name:       fs.Name,
		ConfigJSON: configJSON,
	})
}

func (h *Handler) seedStudent(ctx context.Context, st dues.Student) error {
	return errors.Wrapf(h.Store.SaveStudent(ctx, st), "scenario student %s", st.ID)
}

func scenarioPayment(student, fee string, amount int64, on generic.TimePoint) generic.Payment {
	return generic.Payment{
		StudentID:      generic.StudentID(student),
		FeeItemID:      generic.FeeItemID(fee),
		AmountPaid:     generic.NewMoney(amount),
		DatePaid:       on,
		Reference:      "scenario",
		IdempotencyKey: student + ":" + fee + ":" + on.String(),
		RecordedBy:     "scenario-loader",
	}
}

func moneyPtr(v int64) *generic.Money {
	m := generic.NewMoney(v)
	return &m
}
