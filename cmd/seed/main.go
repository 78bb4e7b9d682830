package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-shift-booking/internal/db"
	"github.com/hackgods/hospital-shift-booking/internal/shift"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "seed").Logger()

func main() {
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	logger.Info().Msg("schema up to date")

	gofakeit.Seed(time.Now().UnixNano())

	if err := ensureAdmin(context.Background(), pool); err != nil {
		logger.Fatal().Err(err).Msg("ensure admin account")
	}

	doctorIDs, err := seedDoctors(context.Background(), pool, 20)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedShifts(context.Background(), pool, doctorIDs, 14); err != nil {
		logger.Fatal().Err(err).Msg("seed work shifts")
	}

	logger.Info().Msg("seed complete")
}

// ensureAdmin creates the bootstrap admin account if none exists.
func ensureAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, `
		SELECT count(*) FROM user_accounts WHERE role = 'Admin'
	`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		logger.Info().Msg("admin account already present")
		return nil
	}

	id := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO user_accounts (id, first_name, last_name, email, role, created_at, updated_at)
		VALUES ($1, 'Hospital', 'Admin', 'admin@hospital.local', 'Admin', now(), now())
	`, id)
	if err != nil {
		return err
	}

	logger.Info().Str("admin_id", id.String()).Msg("admin account created")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	logger.Info().Int("count", count).Msg("seeding doctors")

	specialties := []string{
		"Cardiology",
		"Pediatrics",
		"Neurology",
		"Orthopedics",
		"General Practice",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		experience := gofakeit.Number(1, 35)

		_, err := tx.Exec(ctx, `
			INSERT INTO user_accounts (id, first_name, last_name, email, role, specialty, experience, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'Doctor', $5, $6, now(), now())
		`, id, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(), spec, experience)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info().Msg("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	logger.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO user_accounts (id, first_name, last_name, email, role, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 'Patient', now(), now())
			`, uuid.New(), gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		logger.Info().Int("seeded", end).Int("total", count).Msg("patients progress")
	}

	logger.Info().Msg("patients seeded")
	return nil
}

// seedShifts creates a partial slot fan-out per doctor for the coming days.
func seedShifts(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID, days int) error {
	logger.Info().Int("doctors", len(doctorIDs)).Int("days", days).Msg("seeding work shifts")

	today := shift.DateOnly(time.Now())

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := 0
	for _, doctorID := range doctorIDs {
		for day := 0; day < days; day++ {
			date := today.AddDate(0, 0, day)
			for _, slot := range shift.TimeSlots {
				// Doctors do not work every slot; leave gaps.
				if gofakeit.Number(0, 2) != 0 {
					continue
				}

				_, err := tx.Exec(ctx, `
					INSERT INTO work_shifts (id, doctor_id, shift_date, time_slot, created_at, updated_at)
					VALUES ($1, $2, $3, $4, now(), now())
				`, uuid.New(), doctorID, date, slot)
				if err != nil {
					return err
				}
				total++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info().Int("count", total).Msg("work shifts seeded")
	return nil
}
