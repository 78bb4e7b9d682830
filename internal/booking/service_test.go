package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-shift-booking/internal/account"
	"github.com/hackgods/hospital-shift-booking/internal/appointment"
	redisclient "github.com/hackgods/hospital-shift-booking/internal/redis"
	"github.com/hackgods/hospital-shift-booking/internal/shift"
)

// fakeShiftRepo is an in-memory shift.Repository with the same
// compare-and-set semantics as the Postgres one.
type fakeShiftRepo struct {
	mu     sync.Mutex
	shifts map[uuid.UUID]*shift.WorkShift
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: make(map[uuid.UUID]*shift.WorkShift)}
}

func (r *fakeShiftRepo) put(ws shift.WorkShift) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shifts[ws.ID] = &ws
}

func (r *fakeShiftRepo) Create(ctx context.Context, s *shift.WorkShift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.shifts {
		if existing.DoctorID == s.DoctorID && existing.Date.Equal(s.Date) && existing.TimeSlot == s.TimeSlot {
			return shift.ErrSlotTaken
		}
	}
	cp := *s
	r.shifts[s.ID] = &cp
	return nil
}

func (r *fakeShiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*shift.WorkShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.shifts[id]
	if !ok {
		return nil, shift.ErrShiftNotFound
	}
	cp := *ws
	return &cp, nil
}

func (r *fakeShiftRepo) List(ctx context.Context, f shift.Filter) ([]shift.WorkShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shift.WorkShift
	for _, ws := range r.shifts {
		out = append(out, *ws)
	}
	return out, nil
}

func (r *fakeShiftRepo) UpdateTiming(ctx context.Context, id uuid.UUID, date time.Time, timeSlot string) (*shift.WorkShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.shifts[id]
	if !ok {
		return nil, shift.ErrShiftNotFound
	}
	ws.Date = date
	ws.TimeSlot = timeSlot
	cp := *ws
	return &cp, nil
}

func (r *fakeShiftRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shifts[id]; !ok {
		return shift.ErrShiftNotFound
	}
	delete(r.shifts, id)
	return nil
}

func (r *fakeShiftRepo) Reserve(ctx context.Context, shiftID, appointmentID uuid.UUID) (*shift.WorkShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.shifts[shiftID]
	if !ok {
		return nil, shift.ErrShiftNotFound
	}
	if ws.IsReserved {
		return nil, shift.ErrShiftReserved
	}
	ws.IsReserved = true
	id := appointmentID
	ws.AppointmentID = &id
	cp := *ws
	return &cp, nil
}

func (r *fakeShiftRepo) Release(ctx context.Context, shiftID uuid.UUID) (*shift.WorkShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.shifts[shiftID]
	if !ok {
		return nil, shift.ErrShiftNotFound
	}
	if !ws.IsReserved {
		return nil, shift.ErrShiftNotReserved
	}
	ws.IsReserved = false
	ws.AppointmentID = nil
	cp := *ws
	return &cp, nil
}

func (r *fakeShiftRepo) Reaffirm(ctx context.Context, shiftID, appointmentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.shifts[shiftID]
	if !ok {
		return shift.ErrShiftNotFound
	}
	ws.IsReserved = true
	id := appointmentID
	ws.AppointmentID = &id
	return nil
}

// fakeApptRepo is an in-memory appointment.Repository.
type fakeApptRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*appointment.Appointment

	createErr error
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appts: make(map[uuid.UUID]*appointment.Appointment)}
}

func (r *fakeApptRepo) Create(ctx context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *a
	cp.RequestDate = time.Now()
	r.appts[a.ID] = &cp
	return nil
}

func (r *fakeApptRepo) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeApptRepo) List(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []appointment.Appointment
	for _, a := range r.appts {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeApptRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to appointment.Status) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return nil, appointment.ErrAppointmentNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (r *fakeApptRepo) DeleteIfStatus(ctx context.Context, id uuid.UUID, from appointment.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return appointment.ErrAppointmentNotFound
	}
	delete(r.appts, id)
	return nil
}

func (r *fakeApptRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appts)
}

// passLocker runs the critical section inline. The CAS in the repository is
// what the mutual-exclusion tests exercise.
type passLocker struct{}

func (passLocker) WithShiftLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// hookLocker runs a callback after acquiring, before the critical section.
type hookLocker struct {
	before func()
}

func (l hookLocker) WithShiftLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	if l.before != nil {
		l.before()
	}
	return fn(ctx)
}

// busyLocker always reports the lock as held elsewhere.
type busyLocker struct{}

func (busyLocker) WithShiftLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type fixture struct {
	svc    *Service
	shifts *fakeShiftRepo
	appts  *fakeApptRepo

	doctor  account.Actor
	patient account.Actor
	admin   account.Actor
	shiftID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	shifts := newFakeShiftRepo()
	appts := newFakeApptRepo()

	f := &fixture{
		svc:     NewService(shifts, appts, passLocker{}, zerolog.Nop()),
		shifts:  shifts,
		appts:   appts,
		doctor:  account.Actor{ID: uuid.New(), Role: account.RoleDoctor},
		patient: account.Actor{ID: uuid.New(), Role: account.RolePatient},
		admin:   account.Actor{ID: uuid.New(), Role: account.RoleAdmin},
		shiftID: uuid.New(),
	}

	shifts.put(shift.WorkShift{
		ID:        f.shiftID,
		DoctorID:  f.doctor.ID,
		Date:      shift.DateOnly(time.Now()),
		TimeSlot:  "08:00-08:30",
		CreatedAt: time.Now(),
	})

	return f
}

func (f *fixture) mustBook(t *testing.T) *appointment.Appointment {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), f.shiftID, nil, f.patient)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	return appt
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	f := newFixture(t)

	appt := f.mustBook(t)

	if appt.Status != appointment.StatusPending {
		t.Errorf("status = %s, want %s", appt.Status, appointment.StatusPending)
	}
	if appt.WorkShiftID != f.shiftID {
		t.Errorf("workShiftID = %s, want %s", appt.WorkShiftID, f.shiftID)
	}
	if appt.PatientID != f.patient.ID {
		t.Errorf("patientID = %s, want %s", appt.PatientID, f.patient.ID)
	}

	ws, _ := f.shifts.GetByID(context.Background(), f.shiftID)
	if !ws.IsReserved {
		t.Error("shift not marked reserved after booking")
	}
	if ws.AppointmentID == nil || *ws.AppointmentID != appt.ID {
		t.Error("shift does not reference the created appointment")
	}
}

func TestBookSecondPatientConflicts(t *testing.T) {
	f := newFixture(t)
	f.mustBook(t)

	other := account.Actor{ID: uuid.New(), Role: account.RolePatient}
	_, err := f.svc.Book(context.Background(), f.shiftID, nil, other)
	if !errors.Is(err, shift.ErrShiftReserved) {
		t.Fatalf("second book err = %v, want %v", err, shift.ErrShiftReserved)
	}
	if f.appts.count() != 1 {
		t.Errorf("appointment count = %d, want 1", f.appts.count())
	}
}

func TestBookRequiresPatientRole(t *testing.T) {
	f := newFixture(t)

	for _, actor := range []account.Actor{f.doctor, f.admin} {
		if _, err := f.svc.Book(context.Background(), f.shiftID, nil, actor); !errors.Is(err, ErrNotPatient) {
			t.Errorf("Book as %s: err = %v, want %v", actor.Role, err, ErrNotPatient)
		}
	}
}

func TestBookUnknownShift(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), uuid.New(), nil, f.patient)
	if !errors.Is(err, shift.ErrShiftNotFound) {
		t.Fatalf("err = %v, want %v", err, shift.ErrShiftNotFound)
	}
}

func TestBookLockHeldElsewhere(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.shifts, f.appts, busyLocker{}, zerolog.Nop())

	_, err := svc.Book(context.Background(), f.shiftID, nil, f.patient)
	if !errors.Is(err, ErrShiftBeingBooked) {
		t.Fatalf("err = %v, want %v", err, ErrShiftBeingBooked)
	}
}

func TestBookReleasesReservationWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	f.appts.createErr = errors.New("insert failed")

	if _, err := f.svc.Book(context.Background(), f.shiftID, nil, f.patient); err == nil {
		t.Fatal("expected error from failed appointment insert")
	}

	ws, _ := f.shifts.GetByID(context.Background(), f.shiftID)
	if ws.IsReserved {
		t.Error("shift still reserved after failed booking")
	}
	if ws.AppointmentID != nil {
		t.Error("shift still references an appointment after failed booking")
	}
}

func TestConcurrentBooksExactlyOneWins(t *testing.T) {
	f := newFixture(t)

	const racers = 32
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := account.Actor{ID: uuid.New(), Role: account.RolePatient}
			_, errs[i] = f.svc.Book(context.Background(), f.shiftID, nil, p)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, shift.ErrShiftReserved):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
	if f.appts.count() != 1 {
		t.Fatalf("appointment count = %d, want 1", f.appts.count())
	}
}

func TestAdvanceStatusHappyPath(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	updated, err := f.svc.AdvanceStatus(context.Background(), appt.ID, appointment.StatusAccepted, f.doctor)
	if err != nil {
		t.Fatalf("Pending->Accepted: %v", err)
	}
	if updated.Status != appointment.StatusAccepted {
		t.Fatalf("status = %s, want %s", updated.Status, appointment.StatusAccepted)
	}

	updated, err = f.svc.AdvanceStatus(context.Background(), appt.ID, appointment.StatusDone, f.doctor)
	if err != nil {
		t.Fatalf("Accepted->Done: %v", err)
	}
	if updated.Status != appointment.StatusDone {
		t.Fatalf("status = %s, want %s", updated.Status, appointment.StatusDone)
	}

	// Completing keeps the shift reserved.
	ws, _ := f.shifts.GetByID(context.Background(), f.shiftID)
	if !ws.IsReserved {
		t.Error("shift lost its reservation on completion")
	}
}

func TestAdvanceStatusReject(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	updated, err := f.svc.AdvanceStatus(context.Background(), appt.ID, appointment.StatusRejected, f.doctor)
	if err != nil {
		t.Fatalf("Pending->Rejected: %v", err)
	}
	if updated.Status != appointment.StatusRejected {
		t.Fatalf("status = %s, want %s", updated.Status, appointment.StatusRejected)
	}
}

func TestAdvanceStatusIllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		path []appointment.Status // applied in order before the illegal attempt
		to   appointment.Status
	}{
		{"pending to done", nil, appointment.StatusDone},
		{"pending to pending", nil, appointment.StatusPending},
		{"accepted to pending", []appointment.Status{appointment.StatusAccepted}, appointment.StatusPending},
		{"accepted to rejected", []appointment.Status{appointment.StatusAccepted}, appointment.StatusRejected},
		{"rejected to accepted", []appointment.Status{appointment.StatusRejected}, appointment.StatusAccepted},
		{"done to pending", []appointment.Status{appointment.StatusAccepted, appointment.StatusDone}, appointment.StatusPending},
		{"done to accepted", []appointment.Status{appointment.StatusAccepted, appointment.StatusDone}, appointment.StatusAccepted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			appt := f.mustBook(t)

			for _, step := range tc.path {
				if _, err := f.svc.AdvanceStatus(context.Background(), appt.ID, step, f.doctor); err != nil {
					t.Fatalf("setup transition to %s: %v", step, err)
				}
			}

			_, err := f.svc.AdvanceStatus(context.Background(), appt.ID, tc.to, f.doctor)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("err = %v, want %v", err, ErrInvalidTransition)
			}
		})
	}
}

func TestAdvanceStatusRequiresShiftDoctor(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	otherDoctor := account.Actor{ID: uuid.New(), Role: account.RoleDoctor}
	for _, actor := range []account.Actor{otherDoctor, f.patient, f.admin} {
		_, err := f.svc.AdvanceStatus(context.Background(), appt.ID, appointment.StatusAccepted, actor)
		if !errors.Is(err, ErrNotShiftDoctor) {
			t.Errorf("AdvanceStatus as %s %s: err = %v, want %v", actor.Role, actor.ID, err, ErrNotShiftDoctor)
		}
	}
}

func TestAdvanceStatusLostRace(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	// Another request advanced the appointment between our read and write.
	if _, err := f.appts.UpdateStatus(context.Background(), appt.ID, appointment.StatusPending, appointment.StatusRejected); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := f.svc.AdvanceStatus(context.Background(), appt.ID, appointment.StatusAccepted, f.doctor)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestCancelReleasesShift(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	if err := f.svc.Cancel(context.Background(), appt.ID, f.patient); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := f.appts.GetByID(context.Background(), appt.ID); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Error("appointment still exists after cancel")
	}

	ws, _ := f.shifts.GetByID(context.Background(), f.shiftID)
	if ws.IsReserved {
		t.Error("shift still reserved after cancel")
	}
	if ws.AppointmentID != nil {
		t.Error("shift still references an appointment after cancel")
	}

	// The freed shift is immediately bookable by someone else.
	other := account.Actor{ID: uuid.New(), Role: account.RolePatient}
	if _, err := f.svc.Book(context.Background(), f.shiftID, nil, other); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestCancelOnlyOwningPatient(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	other := account.Actor{ID: uuid.New(), Role: account.RolePatient}
	if err := f.svc.Cancel(context.Background(), appt.ID, other); !errors.Is(err, ErrNotAppointmentPatient) {
		t.Fatalf("err = %v, want %v", err, ErrNotAppointmentPatient)
	}
}

func TestCancelNonPending(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	if _, err := f.svc.AdvanceStatus(context.Background(), appt.ID, appointment.StatusAccepted, f.doctor); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := f.svc.Cancel(context.Background(), appt.ID, f.patient); !errors.Is(err, ErrNotPending) {
		t.Fatalf("err = %v, want %v", err, ErrNotPending)
	}

	ws, _ := f.shifts.GetByID(context.Background(), f.shiftID)
	if !ws.IsReserved {
		t.Error("shift lost its reservation on refused cancel")
	}
}

func TestCancelLosesRaceToDoctorAdvance(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	// The doctor's Pending->Accepted lands after Cancel's pre-lock status
	// check but before its critical section.
	locker := hookLocker{before: func() {
		if _, err := f.appts.UpdateStatus(context.Background(), appt.ID, appointment.StatusPending, appointment.StatusAccepted); err != nil {
			t.Errorf("concurrent advance: %v", err)
		}
	}}
	svc := NewService(f.shifts, f.appts, locker, zerolog.Nop())

	if err := svc.Cancel(context.Background(), appt.ID, f.patient); !errors.Is(err, ErrNotPending) {
		t.Fatalf("err = %v, want %v", err, ErrNotPending)
	}

	got, err := f.appts.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatal("accepted appointment was deleted by the losing cancel")
	}
	if got.Status != appointment.StatusAccepted {
		t.Errorf("status = %s, want %s", got.Status, appointment.StatusAccepted)
	}

	ws, _ := f.shifts.GetByID(context.Background(), f.shiftID)
	if !ws.IsReserved {
		t.Error("shift released despite the appointment no longer being Pending")
	}
}

func TestCancelAfterConcurrentDeletion(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	// The row vanishes entirely before the critical section runs.
	locker := hookLocker{before: func() {
		if err := f.appts.DeleteIfStatus(context.Background(), appt.ID, appointment.StatusPending); err != nil {
			t.Errorf("concurrent delete: %v", err)
		}
	}}
	svc := NewService(f.shifts, f.appts, locker, zerolog.Nop())

	if err := svc.Cancel(context.Background(), appt.ID, f.patient); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want %v", err, appointment.ErrAppointmentNotFound)
	}
}

func TestGetAppointmentVisibility(t *testing.T) {
	f := newFixture(t)
	appt := f.mustBook(t)

	for _, actor := range []account.Actor{f.patient, f.doctor, f.admin} {
		if _, err := f.svc.GetAppointment(context.Background(), appt.ID, actor); err != nil {
			t.Errorf("GetAppointment as %s: %v", actor.Role, err)
		}
	}

	stranger := account.Actor{ID: uuid.New(), Role: account.RolePatient}
	if _, err := f.svc.GetAppointment(context.Background(), appt.ID, stranger); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("GetAppointment as stranger: err = %v, want %v", err, ErrNotAuthorized)
	}
}

func TestListForActorScoping(t *testing.T) {
	f := newFixture(t)
	f.mustBook(t)

	// A second shift booked by a different patient.
	otherShiftID := uuid.New()
	f.shifts.put(shift.WorkShift{
		ID:        otherShiftID,
		DoctorID:  f.doctor.ID,
		Date:      shift.DateOnly(time.Now()),
		TimeSlot:  "09:00-09:30",
		CreatedAt: time.Now(),
	})
	other := account.Actor{ID: uuid.New(), Role: account.RolePatient}
	if _, err := f.svc.Book(context.Background(), otherShiftID, nil, other); err != nil {
		t.Fatalf("setup: %v", err)
	}

	mine, err := f.svc.ListForActor(context.Background(), f.patient, appointment.Filter{})
	if err != nil {
		t.Fatalf("ListForActor patient: %v", err)
	}
	if len(mine) != 1 || mine[0].PatientID != f.patient.ID {
		t.Errorf("patient sees %d appointments, want only their own 1", len(mine))
	}

	all, err := f.svc.ListForActor(context.Background(), f.admin, appointment.Filter{})
	if err != nil {
		t.Fatalf("ListForActor admin: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin sees %d appointments, want 2", len(all))
	}

	if _, err := f.svc.ListForActor(context.Background(), account.Actor{ID: uuid.New(), Role: "Ghost"}, appointment.Filter{}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("unknown role err = %v, want %v", err, ErrNotAuthorized)
	}
}
