package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-shift-booking/internal/account"
)

var (
	ErrDoctorNotFound = errors.New("doctor not found")
	// ErrNotAdmin means the actor lacks the Admin role required for shift mutations.
	ErrNotAdmin = errors.New("only admins can manage work shifts")
	// ErrEditWindowClosed means the shift is past its post-creation edit window.
	ErrEditWindowClosed = errors.New("work shift can no longer be modified")
	ErrInvalidTimeSlot  = errors.New("unrecognized time slot")
	ErrInvalidDate      = errors.New("shift date is required")
)

// Service is the admin-facing surface of the shift store: creation plus the
// time-boxed timing edits. Reservation writes are not reachable from here.
type Service struct {
	repo       Repository
	accounts   account.Directory
	editWindow time.Duration
	log        zerolog.Logger

	now func() time.Time
}

func NewService(repo Repository, accounts account.Directory, editWindow time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		accounts:   accounts,
		editWindow: editWindow,
		log:        log,
		now:        time.Now,
	}
}

func (s *Service) CreateShift(ctx context.Context, actor account.Actor, doctorID uuid.UUID, date time.Time, timeSlot string) (*WorkShift, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	if !ValidTimeSlot(timeSlot) {
		return nil, ErrInvalidTimeSlot
	}

	doctor, err := s.accounts.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if doctor.Role != account.RoleDoctor {
		return nil, ErrDoctorNotFound
	}

	ws := &WorkShift{
		ID:       uuid.New(),
		DoctorID: doctorID,
		Date:     DateOnly(date),
		TimeSlot: timeSlot,
	}
	if err := s.repo.Create(ctx, ws); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("shift_id", ws.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("time_slot", timeSlot).
		Msg("work shift created")

	return ws, nil
}

func (s *Service) GetShift(ctx context.Context, id uuid.UUID) (*WorkShift, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListShifts(ctx context.Context, f Filter) ([]WorkShift, error) {
	return s.repo.List(ctx, f)
}

// UpdateShiftTiming moves a shift to a new date and/or slot. Nil arguments keep
// the current value. Admin only, and only inside the edit window.
func (s *Service) UpdateShiftTiming(ctx context.Context, actor account.Actor, id uuid.UUID, date *time.Time, timeSlot *string) (*WorkShift, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	ws, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditWindow(ws); err != nil {
		return nil, err
	}

	newDate := ws.Date
	if date != nil {
		newDate = DateOnly(*date)
	}
	newSlot := ws.TimeSlot
	if timeSlot != nil {
		if !ValidTimeSlot(*timeSlot) {
			return nil, ErrInvalidTimeSlot
		}
		newSlot = *timeSlot
	}

	return s.repo.UpdateTiming(ctx, id, newDate, newSlot)
}

// DeleteShift removes a shift. It refuses while an appointment still holds the
// reservation; only a patient cancellation releases it.
func (s *Service) DeleteShift(ctx context.Context, actor account.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	ws, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkEditWindow(ws); err != nil {
		return err
	}
	if ws.IsReserved {
		return ErrShiftReserved
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().
		Str("shift_id", id.String()).
		Str("actor_id", actor.ID.String()).
		Msg("work shift deleted")

	return nil
}

// checkEditWindow enforces `now - createdAt <= editWindow`, boundary inclusive.
func (s *Service) checkEditWindow(ws *WorkShift) error {
	if s.now().Sub(ws.CreatedAt) > s.editWindow {
		return ErrEditWindowClosed
	}
	return nil
}

func requireAdmin(actor account.Actor) error {
	if actor.Role != account.RoleAdmin {
		return ErrNotAdmin
	}
	return nil
}
