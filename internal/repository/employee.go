package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/colectra/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmployeeRepository handles database operations for agency employees.
type EmployeeRepository struct {
	db *pgxpool.Pool
}

// NewEmployeeRepository creates a new EmployeeRepository.
func NewEmployeeRepository(db *pgxpool.Pool) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, agency_id, user_id, job, zone_id, active, created_at`

// Create inserts a new employee. A user can only be hired once per agency.
func (r *EmployeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, e.ID, e.AgencyID, e.UserID, e.Job, e.ZoneID, e.Active, e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict("user is already employed by this agency")
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

// FindByID returns an employee by ID, or nil if none exists.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// FindByUserAndAgency returns the employee record linking a user to an
// agency, or nil if none exists.
func (r *EmployeeRepository) FindByUserAndAgency(ctx context.Context, userID, agencyID string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE user_id = $1 AND agency_id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, userID, agencyID))
}

// ListByAgency returns all employees of an agency.
func (r *EmployeeRepository) ListByAgency(ctx context.Context, agencyID string) ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE agency_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.AgencyID, &e.UserID, &e.Job, &e.ZoneID, &e.Active, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, &e)
	}
	return employees, nil
}

// SetActive toggles an employee's active flag.
func (r *EmployeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.Exec(ctx, `UPDATE employees SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) scanOne(row pgx.Row) (*domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(&e.ID, &e.AgencyID, &e.UserID, &e.Job, &e.ZoneID, &e.Active, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	return &e, nil
}
