package shift

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const shiftColumns = `id, doctor_id, shift_date, time_slot, is_reserved, appointment_id, created_at, updated_at`

func scanShift(row pgx.Row) (*WorkShift, error) {
	var s WorkShift
	var appointmentID *uuid.UUID

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Date,
		&s.TimeSlot,
		&s.IsReserved,
		&appointmentID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}

	s.AppointmentID = appointmentID
	return &s, nil
}

func (r *PgRepository) Create(ctx context.Context, s *WorkShift) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO work_shifts (id, doctor_id, shift_date, time_slot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+shiftColumns+`
	`, s.ID, s.DoctorID, DateOnly(s.Date), s.TimeSlot)

	created, err := scanShift(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return err
	}

	*s = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*WorkShift, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM work_shifts
		WHERE id = $1
	`, id)
	return scanShift(row)
}

func (r *PgRepository) List(ctx context.Context, f Filter) ([]WorkShift, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DoctorID != nil {
		where = append(where, "doctor_id = "+arg(*f.DoctorID))
	}
	if f.Reserved != nil {
		where = append(where, "is_reserved = "+arg(*f.Reserved))
	}
	if f.From != nil {
		where = append(where, "shift_date >= "+arg(DateOnly(*f.From)))
	}
	if f.To != nil {
		where = append(where, "shift_date <= "+arg(DateOnly(*f.To)))
	}

	query := `SELECT ` + shiftColumns + ` FROM work_shifts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY shift_date, time_slot"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WorkShift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateTiming(ctx context.Context, id uuid.UUID, date time.Time, timeSlot string) (*WorkShift, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE work_shifts
		SET shift_date = $2,
		    time_slot = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+shiftColumns+`
	`, id, DateOnly(date), timeSlot)

	updated, err := scanShift(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return updated, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM work_shifts
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrShiftNotFound
	}
	return nil
}

// Reserve is the compare-and-set at the heart of booking: the WHERE clause
// makes exactly one concurrent caller win.
func (r *PgRepository) Reserve(ctx context.Context, shiftID, appointmentID uuid.UUID) (*WorkShift, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE work_shifts
		SET is_reserved = true,
		    appointment_id = $2,
		    updated_at = now()
		WHERE id = $1
		  AND is_reserved = false
		RETURNING `+shiftColumns+`
	`, shiftID, appointmentID)

	reserved, err := scanShift(row)
	if err != nil {
		if errors.Is(err, ErrShiftNotFound) {
			// Row exists but lost the CAS, or does not exist at all. The
			// follow-up read is a separate statement, so a shift deleted in
			// between reports not-found even when the CAS loss came first;
			// both answers are accurate refusals.
			if _, getErr := r.GetByID(ctx, shiftID); getErr == nil {
				return nil, ErrShiftReserved
			}
			return nil, ErrShiftNotFound
		}
		return nil, err
	}

	return reserved, nil
}

func (r *PgRepository) Release(ctx context.Context, shiftID uuid.UUID) (*WorkShift, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE work_shifts
		SET is_reserved = false,
		    appointment_id = NULL,
		    updated_at = now()
		WHERE id = $1
		  AND is_reserved = true
		RETURNING `+shiftColumns+`
	`, shiftID)

	released, err := scanShift(row)
	if err != nil {
		if errors.Is(err, ErrShiftNotFound) {
			if _, getErr := r.GetByID(ctx, shiftID); getErr == nil {
				return nil, ErrShiftNotReserved
			}
			return nil, ErrShiftNotFound
		}
		return nil, err
	}

	return released, nil
}

func (r *PgRepository) Reaffirm(ctx context.Context, shiftID, appointmentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE work_shifts
		SET is_reserved = true,
		    appointment_id = $2,
		    updated_at = now()
		WHERE id = $1
	`, shiftID, appointmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrShiftNotFound
	}
	return nil
}
