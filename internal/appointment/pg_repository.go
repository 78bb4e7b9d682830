package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const apptColumns = `id, work_shift_id, patient_id, status, request_date, notes, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	var notes *string

	err := row.Scan(
		&a.ID,
		&a.WorkShiftID,
		&a.PatientID,
		&status,
		&a.RequestDate,
		&notes,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Status = Status(status)
	a.Notes = notes
	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, work_shift_id, patient_id, status, request_date, notes, updated_at)
		VALUES ($1, $2, $3, $4, now(), $5, now())
		RETURNING `+apptColumns+`
	`, a.ID, a.WorkShiftID, a.PatientID, string(a.Status), a.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		return err
	}

	*a = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context, f Filter) ([]Appointment, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	query := `SELECT a.id, a.work_shift_id, a.patient_id, a.status, a.request_date, a.notes, a.updated_at
		FROM appointments a`

	if f.DoctorID != nil {
		query += ` JOIN work_shifts w ON w.id = a.work_shift_id`
		where = append(where, "w.doctor_id = "+arg(*f.DoctorID))
	}
	if f.PatientID != nil {
		where = append(where, "a.patient_id = "+arg(*f.PatientID))
	}
	if f.From != nil {
		where = append(where, "a.request_date >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "a.request_date <= "+arg(*f.To))
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.request_date DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+apptColumns+`
	`, id, string(to), string(from))

	return scanAppointment(row)
}

func (r *PgRepository) DeleteIfStatus(ctx context.Context, id uuid.UUID, from Status) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1
		  AND status = $2
	`, id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
