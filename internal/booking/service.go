package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-shift-booking/internal/account"
	"github.com/hackgods/hospital-shift-booking/internal/appointment"
	redisclient "github.com/hackgods/hospital-shift-booking/internal/redis"
	"github.com/hackgods/hospital-shift-booking/internal/shift"
)

var (
	// ErrShiftBeingBooked means another booking currently holds the shift lock.
	ErrShiftBeingBooked = errors.New("shift is currently being booked, please retry")
	// ErrNotPending means the appointment left the Pending state and can no
	// longer be cancelled.
	ErrNotPending = errors.New("only pending appointments can be cancelled")

	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrNotPatient            = errors.New("only patients can book appointments")
	ErrNotShiftDoctor        = errors.New("only the doctor owning the work shift can update this appointment")
	ErrNotAppointmentPatient = errors.New("only the owning patient can cancel this appointment")
	ErrNotAuthorized         = errors.New("not authorized to view this appointment")
)

// Service is the reservation coordinator. It is the only writer of the
// reservation fields on work shifts, and the only place where the appointment
// state machine is enforced.
type Service struct {
	shifts       shift.Repository
	appointments appointment.Repository
	locker       redisclient.Locker
	log          zerolog.Logger
}

func NewService(shifts shift.Repository, appointments appointment.Repository, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		shifts:       shifts,
		appointments: appointments,
		locker:       locker,
		log:          log,
	}
}

// Book reserves a work shift for a patient and creates the Pending appointment.
//
// The reservation compare-and-set is the first write: only after the CAS wins
// is the appointment row inserted, so two racing bookings on one shift can
// never both succeed. The per-shift lock on top only reduces contention. If the
// appointment insert fails after the CAS, the reservation is released again.
func (s *Service) Book(ctx context.Context, shiftID uuid.UUID, notes *string, actor account.Actor) (*appointment.Appointment, error) {
	if err := canBook(actor, actor.ID); err != nil {
		return nil, err
	}

	var created *appointment.Appointment

	err := s.locker.WithShiftLock(ctx, shiftID, func(lockCtx context.Context) error {
		if _, err := s.shifts.GetByID(lockCtx, shiftID); err != nil {
			return err
		}

		appointmentID := uuid.New()

		if _, err := s.shifts.Reserve(lockCtx, shiftID, appointmentID); err != nil {
			return err
		}

		appt := &appointment.Appointment{
			ID:          appointmentID,
			WorkShiftID: shiftID,
			PatientID:   actor.ID,
			Status:      appointment.StatusPending,
			Notes:       notes,
		}
		if err := s.appointments.Create(lockCtx, appt); err != nil {
			// Roll the reservation back so the shift does not stay blocked by
			// an appointment that was never written.
			if _, relErr := s.shifts.Release(lockCtx, shiftID); relErr != nil {
				s.log.Error().Err(relErr).
					Str("shift_id", shiftID.String()).
					Msg("failed to release reservation after appointment insert failure")
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrShiftBeingBooked
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("shift_id", shiftID.String()).
		Str("patient_id", actor.ID.String()).
		Msg("appointment booked")

	return created, nil
}

// AdvanceStatus moves an appointment along Pending -> Accepted -> Done or
// Pending -> Rejected. Only the doctor owning the referenced shift may call it.
func (s *Service) AdvanceStatus(ctx context.Context, appointmentID uuid.UUID, newStatus appointment.Status, actor account.Actor) (*appointment.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	ws, err := s.shifts.GetByID(ctx, appt.WorkShiftID)
	if err != nil {
		return nil, fmt.Errorf("load work shift: %w", err)
	}

	if err := canAdvance(actor, ws); err != nil {
		return nil, err
	}

	if !appointment.CanTransition(appt.Status, newStatus) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.appointments.UpdateStatus(ctx, appt.ID, appt.Status, newStatus)
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			// The status guard missed: someone advanced it concurrently.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	if newStatus == appointment.StatusDone {
		// Already true since booking; re-asserted for the derived-flag invariant.
		if err := s.shifts.Reaffirm(ctx, ws.ID, appt.ID); err != nil {
			s.log.Warn().Err(err).
				Str("shift_id", ws.ID.String()).
				Msg("failed to reaffirm reservation on completed appointment")
		}
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("from", string(appt.Status)).
		Str("to", string(newStatus)).
		Msg("appointment status updated")

	return updated, nil
}

// Cancel deletes a Pending appointment and releases its work shift. Only the
// owning patient may cancel. The shift lock keeps the release from interleaving
// with a concurrent booking on the same shift.
func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID, actor account.Actor) error {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}

	if err := canCancel(actor, appt); err != nil {
		return err
	}
	if appt.Status != appointment.StatusPending {
		return ErrNotPending
	}

	err = s.locker.WithShiftLock(ctx, appt.WorkShiftID, func(lockCtx context.Context) error {
		// Status-guarded delete: a doctor may have advanced the appointment
		// between the check above and this point, and AdvanceStatus does not
		// take the shift lock. Only a still-Pending row may be deleted.
		if err := s.appointments.DeleteIfStatus(lockCtx, appt.ID, appointment.StatusPending); err != nil {
			if errors.Is(err, appointment.ErrAppointmentNotFound) {
				if _, getErr := s.appointments.GetByID(lockCtx, appt.ID); getErr == nil {
					return ErrNotPending
				}
				return appointment.ErrAppointmentNotFound
			}
			return err
		}

		if _, err := s.shifts.Release(lockCtx, appt.WorkShiftID); err != nil {
			// The appointment is gone; an unreleased shift would stay blocked
			// forever, so this is logged loudly rather than swallowed.
			s.log.Error().Err(err).
				Str("shift_id", appt.WorkShiftID.String()).
				Str("appointment_id", appt.ID.String()).
				Msg("failed to release shift after appointment deletion")
			return fmt.Errorf("release shift: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return ErrShiftBeingBooked
		}
		return err
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("shift_id", appt.WorkShiftID.String()).
		Msg("appointment cancelled")

	return nil
}

// GetAppointment loads one appointment, visible to the owning patient, the
// shift's doctor, or an admin.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID, actor account.Actor) (*appointment.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ws, err := s.shifts.GetByID(ctx, appt.WorkShiftID)
	if err != nil && !errors.Is(err, shift.ErrShiftNotFound) {
		return nil, fmt.Errorf("load work shift: %w", err)
	}

	if err := canView(actor, appt, ws); err != nil {
		return nil, err
	}

	return appt, nil
}

// ListForActor returns the appointments the actor is allowed to see: patients
// their own, doctors those on their shifts, admins all of them.
func (s *Service) ListForActor(ctx context.Context, actor account.Actor, f appointment.Filter) ([]appointment.Appointment, error) {
	switch actor.Role {
	case account.RolePatient:
		f.PatientID = &actor.ID
		f.DoctorID = nil
	case account.RoleDoctor:
		f.DoctorID = &actor.ID
		f.PatientID = nil
	case account.RoleAdmin:
		// unrestricted
	default:
		return nil, ErrNotAuthorized
	}

	return s.appointments.List(ctx, f)
}
