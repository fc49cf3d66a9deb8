package sqlstore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/warp/dues-engine/billing"
	"github.com/warp/dues-engine/dues"
	"github.com/warp/dues-engine/generic"
)

// =============================================================================
// FEE STRUCTURE STORE
// =============================================================================

// FeeStructureRecord is a stored fee structure with its JSON config.
type FeeStructureRecord struct {
	ID         string `db:"id"`
	TenantID   string `db:"tenant_id"`
	Name       string `db:"name"`
	ConfigJSON string `db:"config_json"`
	Version    int    `db:"version"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

const feeStructureColumns = `id, tenant_id, name, config_json, version, created_at, updated_at`

// SaveFeeStructure inserts a fee structure or replaces its config, bumping
// the version. An ID held by another tenant is left untouched and
// ErrTenantMismatch is returned.
func (s *Store) SaveFeeStructure(ctx context.Context, r FeeStructureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.db.Rebind(`
		INSERT INTO fee_structures (` + feeStructureColumns + `)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			version = fee_structures.version + 1,
			updated_at = excluded.updated_at
		WHERE fee_structures.tenant_id = excluded.tenant_id
	`)

	ts := now()
	res, err := s.db.ExecContext(ctx, query, r.ID, r.TenantID, r.Name, r.ConfigJSON, ts, ts)
	if err != nil {
		return errors.Wrap(err, "failed to save fee structure")
	}
	return ownedWrite(res, "fee structure", r.ID)
}

// GetFeeStructure retrieves a fee structure by ID.
func (s *Store) GetFeeStructure(ctx context.Context, id string) (*FeeStructureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r FeeStructureRecord
	err := s.db.GetContext(ctx, &r,
		s.db.Rebind("SELECT "+feeStructureColumns+" FROM fee_structures WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("fee_structure", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get fee structure")
	}
	return &r, nil
}

// ListFeeStructures returns the fee structures of a tenant, or of every
// tenant when tenantID is empty.
func (s *Store) ListFeeStructures(ctx context.Context, tenantID generic.TenantID) ([]FeeStructureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + feeStructureColumns + " FROM fee_structures"
	var args []interface{}
	if tenantID != "" {
		query += " WHERE tenant_id = ?"
		args = append(args, string(tenantID))
	}
	query += " ORDER BY name"

	var records []FeeStructureRecord
	if err := s.db.SelectContext(ctx, &records, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list fee structures")
	}
	return records, nil
}

// =============================================================================
// STUDENT STORE
// =============================================================================

type studentRow struct {
	ID             string         `db:"id"`
	TenantID       string         `db:"tenant_id"`
	Name           string         `db:"name"`
	GuardianEmail  sql.NullString `db:"guardian_email"`
	AdmissionDate  string         `db:"admission_date"`
	FeeStructureID string         `db:"fee_structure_id"`
	CreatedAt      string         `db:"created_at"`
}

func (r studentRow) toStudent() dues.Student {
	return dues.Student{
		ID:             generic.StudentID(r.ID),
		TenantID:       generic.TenantID(r.TenantID),
		Name:           r.Name,
		GuardianEmail:  r.GuardianEmail.String,
		AdmissionDate:  parseDate(r.AdmissionDate),
		FeeStructureID: r.FeeStructureID,
	}
}

const studentColumns = `id, tenant_id, name, guardian_email, admission_date, fee_structure_id, created_at`

// SaveStudent upserts a student. PaidFees are not stored here; payments go
// through the ledger. A student of another tenant is never moved.
func (s *Store) SaveStudent(ctx context.Context, st dues.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.db.Rebind(`
		INSERT INTO students (` + studentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			guardian_email = excluded.guardian_email,
			admission_date = excluded.admission_date,
			fee_structure_id = excluded.fee_structure_id
		WHERE students.tenant_id = excluded.tenant_id
	`)

	res, err := s.db.ExecContext(ctx, query,
		string(st.ID), string(st.TenantID), st.Name, nullString(st.GuardianEmail),
		formatDate(st.AdmissionDate), st.FeeStructureID, now(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save student")
	}
	return ownedWrite(res, "student", string(st.ID))
}

// ownedWrite turns an upsert that changed nothing into ErrTenantMismatch.
// The conflict clause only updates rows of the same tenant.
func ownedWrite(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "failed to save %s", kind)
	}
	if n == 0 {
		return errors.Wrapf(generic.ErrTenantMismatch, "%s %s", kind, id)
	}
	return nil
}

// GetStudent retrieves a student by ID, without payments.
func (s *Store) GetStudent(ctx context.Context, id generic.StudentID) (*dues.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r studentRow
	err := s.db.GetContext(ctx, &r,
		s.db.Rebind("SELECT "+studentColumns+" FROM students WHERE id = ?"), string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("student", string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get student")
	}
	st := r.toStudent()
	return &st, nil
}

// ListStudents returns the students of a tenant, or every student when
// tenantID is empty.
func (s *Store) ListStudents(ctx context.Context, tenantID generic.TenantID) ([]dues.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + studentColumns + " FROM students"
	var args []interface{}
	if tenantID != "" {
		query += " WHERE tenant_id = ?"
		args = append(args, string(tenantID))
	}
	query += " ORDER BY name, id"

	var rows []studentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list students")
	}
	students := make([]dues.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

// =============================================================================
// TENANT STORE
// =============================================================================

type tenantRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

// SaveTenant upserts a tenant.
func (s *Store) SaveTenant(ctx context.Context, t billing.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.db.Rebind(`
		INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`)
	_, err := s.db.ExecContext(ctx, query, string(t.ID), t.Name, now())
	return errors.Wrap(err, "failed to save tenant")
}

// GetTenant retrieves a tenant by ID.
func (s *Store) GetTenant(ctx context.Context, id generic.TenantID) (*billing.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r tenantRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind("SELECT id, name, created_at FROM tenants WHERE id = ?"), string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("tenant", string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant")
	}
	return &billing.Tenant{ID: generic.TenantID(r.ID), Name: r.Name, CreatedAt: parseTimestamp(r.CreatedAt)}, nil
}

// ListTenants returns all tenants.
func (s *Store) ListTenants(ctx context.Context) ([]billing.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []tenantRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, name, created_at FROM tenants ORDER BY name"); err != nil {
		return nil, errors.Wrap(err, "failed to list tenants")
	}
	tenants := make([]billing.Tenant, 0, len(rows))
	for _, r := range rows {
		tenants = append(tenants, billing.Tenant{ID: generic.TenantID(r.ID), Name: r.Name, CreatedAt: parseTimestamp(r.CreatedAt)})
	}
	return tenants, nil
}

// =============================================================================
// BILLING SCHEDULE STORE (billing.ScheduleSource interface)
// =============================================================================

type scheduleRow struct {
	ID          string         `db:"id"`
	TenantID    string         `db:"tenant_id"`
	Description sql.NullString `db:"description"`
	Amount      string         `db:"amount"`
	DueDate     string         `db:"due_date"`
	Status      string         `db:"status"`
	PaidAt      sql.NullString `db:"paid_at"`
	CreatedAt   string         `db:"created_at"`
}

func (r scheduleRow) toSchedule() billing.Schedule {
	return billing.Schedule{
		ID:          r.ID,
		TenantID:    generic.TenantID(r.TenantID),
		Description: r.Description.String,
		Amount:      generic.MustMoney(r.Amount),
		DueDate:     parseDate(r.DueDate),
		Status:      billing.Status(r.Status),
		PaidAt:      parseDate(r.PaidAt.String),
	}
}

const scheduleColumns = `id, tenant_id, description, amount, due_date, status, paid_at, created_at`

// SaveBillingSchedule inserts a schedule, assigning an ID when empty, and
// returns the stored schedule.
func (s *Store) SaveBillingSchedule(ctx context.Context, sch billing.Schedule) (billing.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sch.ID == "" {
		sch.ID = uuid.New().String()
	}
	if sch.Status == "" {
		sch.Status = billing.StatusPending
	}

	query := s.db.Rebind(`
		INSERT INTO tenant_billing_schedules (` + scheduleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		sch.ID, string(sch.TenantID), nullString(sch.Description), sch.Amount.Decimal.String(),
		formatDate(sch.DueDate), string(sch.Status), nullString(formatDate(sch.PaidAt)), now(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return billing.Schedule{}, errors.Wrapf(generic.ErrInvalidInput, "billing schedule %s already exists", sch.ID)
		}
		return billing.Schedule{}, errors.Wrap(err, "failed to save billing schedule")
	}
	return sch, nil
}

// ListBillingSchedules returns a tenant's schedules ordered by due date.
func (s *Store) ListBillingSchedules(ctx context.Context, tenantID generic.TenantID) ([]billing.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []scheduleRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+scheduleColumns+`
		FROM tenant_billing_schedules
		WHERE tenant_id = ?
		ORDER BY due_date ASC, id ASC
	`), string(tenantID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list billing schedules")
	}

	schedules := make([]billing.Schedule, 0, len(rows))
	for _, r := range rows {
		schedules = append(schedules, r.toSchedule())
	}
	return schedules, nil
}

// MarkSchedulePaid sets a tenant's schedule to PAID on paidAt.
func (s *Store) MarkSchedulePaid(ctx context.Context, tenantID generic.TenantID, id string, paidAt generic.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE tenant_billing_schedules SET status = ?, paid_at = ?
		WHERE id = ? AND tenant_id = ?
	`), string(billing.StatusPaid), formatDate(paidAt), id, string(tenantID))
	if err != nil {
		return errors.Wrap(err, "failed to mark schedule paid")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to mark schedule paid")
	}
	if n == 0 {
		return notFound("billing_schedule", id)
	}
	return nil
}
