package shift

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-shift-booking/internal/account"
)

type memRepo struct {
	shifts map[uuid.UUID]*WorkShift
}

func newMemRepo() *memRepo {
	return &memRepo{shifts: make(map[uuid.UUID]*WorkShift)}
}

func (r *memRepo) Create(ctx context.Context, s *WorkShift) error {
	for _, existing := range r.shifts {
		if existing.DoctorID == s.DoctorID && existing.Date.Equal(s.Date) && existing.TimeSlot == s.TimeSlot {
			return ErrSlotTaken
		}
	}
	cp := *s
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.shifts[s.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*WorkShift, error) {
	ws, ok := r.shifts[id]
	if !ok {
		return nil, ErrShiftNotFound
	}
	cp := *ws
	return &cp, nil
}

func (r *memRepo) List(ctx context.Context, f Filter) ([]WorkShift, error) {
	var out []WorkShift
	for _, ws := range r.shifts {
		out = append(out, *ws)
	}
	return out, nil
}

func (r *memRepo) UpdateTiming(ctx context.Context, id uuid.UUID, date time.Time, timeSlot string) (*WorkShift, error) {
	ws, ok := r.shifts[id]
	if !ok {
		return nil, ErrShiftNotFound
	}
	ws.Date = date
	ws.TimeSlot = timeSlot
	cp := *ws
	return &cp, nil
}

func (r *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.shifts[id]; !ok {
		return ErrShiftNotFound
	}
	delete(r.shifts, id)
	return nil
}

func (r *memRepo) Reserve(ctx context.Context, shiftID, appointmentID uuid.UUID) (*WorkShift, error) {
	ws, ok := r.shifts[shiftID]
	if !ok {
		return nil, ErrShiftNotFound
	}
	if ws.IsReserved {
		return nil, ErrShiftReserved
	}
	ws.IsReserved = true
	id := appointmentID
	ws.AppointmentID = &id
	cp := *ws
	return &cp, nil
}

func (r *memRepo) Release(ctx context.Context, shiftID uuid.UUID) (*WorkShift, error) {
	ws, ok := r.shifts[shiftID]
	if !ok {
		return nil, ErrShiftNotFound
	}
	if !ws.IsReserved {
		return nil, ErrShiftNotReserved
	}
	ws.IsReserved = false
	ws.AppointmentID = nil
	cp := *ws
	return &cp, nil
}

func (r *memRepo) Reaffirm(ctx context.Context, shiftID, appointmentID uuid.UUID) error {
	ws, ok := r.shifts[shiftID]
	if !ok {
		return ErrShiftNotFound
	}
	ws.IsReserved = true
	id := appointmentID
	ws.AppointmentID = &id
	return nil
}

type memDirectory struct {
	accounts map[uuid.UUID]*account.Account
}

func (d *memDirectory) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := d.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return a, nil
}

type svcFixture struct {
	svc  *Service
	repo *memRepo

	admin    account.Actor
	doctorID uuid.UUID
}

func newSvcFixture(t *testing.T) *svcFixture {
	t.Helper()

	repo := newMemRepo()
	doctorID := uuid.New()
	dir := &memDirectory{accounts: map[uuid.UUID]*account.Account{
		doctorID: {ID: doctorID, Role: account.RoleDoctor},
	}}

	return &svcFixture{
		svc:      NewService(repo, dir, 15*time.Minute, zerolog.Nop()),
		repo:     repo,
		admin:    account.Actor{ID: uuid.New(), Role: account.RoleAdmin},
		doctorID: doctorID,
	}
}

func TestCreateShift(t *testing.T) {
	f := newSvcFixture(t)

	when := time.Date(2026, 5, 1, 13, 45, 0, 0, time.Local)
	ws, err := f.svc.CreateShift(context.Background(), f.admin, f.doctorID, when, "08:00-08:30")
	if err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	if !ws.Date.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, want day-truncated UTC date", ws.Date)
	}
	if ws.IsReserved {
		t.Error("new shift must start unreserved")
	}
}

func TestCreateShiftValidation(t *testing.T) {
	f := newSvcFixture(t)
	when := time.Now()

	patientID := uuid.New()
	dirRepo := f.svc.accounts.(*memDirectory)
	dirRepo.accounts[patientID] = &account.Account{ID: patientID, Role: account.RolePatient}

	cases := []struct {
		name     string
		actor    account.Actor
		doctorID uuid.UUID
		date     time.Time
		slot     string
		want     error
	}{
		{"not admin", account.Actor{ID: uuid.New(), Role: account.RoleDoctor}, f.doctorID, when, "08:00-08:30", ErrNotAdmin},
		{"zero date", f.admin, f.doctorID, time.Time{}, "08:00-08:30", ErrInvalidDate},
		{"bad slot", f.admin, f.doctorID, when, "25:00-26:00", ErrInvalidTimeSlot},
		{"unknown doctor", f.admin, uuid.New(), when, "08:00-08:30", ErrDoctorNotFound},
		{"account is not a doctor", f.admin, patientID, when, "08:00-08:30", ErrDoctorNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateShift(context.Background(), tc.actor, tc.doctorID, tc.date, tc.slot)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateShiftDuplicateSlot(t *testing.T) {
	f := newSvcFixture(t)
	when := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	if _, err := f.svc.CreateShift(context.Background(), f.admin, f.doctorID, when, "08:00-08:30"); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Same calendar day at a different wall-clock time still collides.
	_, err := f.svc.CreateShift(context.Background(), f.admin, f.doctorID, when.Add(5*time.Hour), "08:00-08:30")
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("duplicate err = %v, want %v", err, ErrSlotTaken)
	}

	// A different slot on the same day is fine.
	if _, err := f.svc.CreateShift(context.Background(), f.admin, f.doctorID, when, "08:30-09:00"); err != nil {
		t.Fatalf("different slot: %v", err)
	}
}

func TestUpdateShiftTiming(t *testing.T) {
	f := newSvcFixture(t)

	ws, err := f.svc.CreateShift(context.Background(), f.admin, f.doctorID, time.Now(), "08:00-08:30")
	if err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	newSlot := "10:00-10:30"
	updated, err := f.svc.UpdateShiftTiming(context.Background(), f.admin, ws.ID, nil, &newSlot)
	if err != nil {
		t.Fatalf("UpdateShiftTiming: %v", err)
	}
	if updated.TimeSlot != newSlot {
		t.Errorf("timeSlot = %s, want %s", updated.TimeSlot, newSlot)
	}
	if !updated.Date.Equal(ws.Date) {
		t.Errorf("date changed to %v with a nil date argument", updated.Date)
	}

	badSlot := "nope"
	if _, err := f.svc.UpdateShiftTiming(context.Background(), f.admin, ws.ID, nil, &badSlot); !errors.Is(err, ErrInvalidTimeSlot) {
		t.Errorf("bad slot err = %v, want %v", err, ErrInvalidTimeSlot)
	}

	notAdmin := account.Actor{ID: uuid.New(), Role: account.RolePatient}
	if _, err := f.svc.UpdateShiftTiming(context.Background(), notAdmin, ws.ID, nil, &newSlot); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("non-admin err = %v, want %v", err, ErrNotAdmin)
	}
}

func TestEditWindowBoundary(t *testing.T) {
	f := newSvcFixture(t)

	createdAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ws := &WorkShift{
		ID:        uuid.New(),
		DoctorID:  f.doctorID,
		Date:      createdAt,
		TimeSlot:  "08:00-08:30",
		CreatedAt: createdAt,
	}
	if err := f.repo.Create(context.Background(), ws); err != nil {
		t.Fatalf("setup: %v", err)
	}

	slot := "09:00-09:30"

	// Exactly at the window boundary the edit still succeeds.
	f.svc.now = func() time.Time { return createdAt.Add(15 * time.Minute) }
	if _, err := f.svc.UpdateShiftTiming(context.Background(), f.admin, ws.ID, nil, &slot); err != nil {
		t.Fatalf("edit at boundary: %v", err)
	}

	// One millisecond later it does not.
	f.svc.now = func() time.Time { return createdAt.Add(15*time.Minute + time.Millisecond) }
	if _, err := f.svc.UpdateShiftTiming(context.Background(), f.admin, ws.ID, nil, &slot); !errors.Is(err, ErrEditWindowClosed) {
		t.Fatalf("edit past boundary err = %v, want %v", err, ErrEditWindowClosed)
	}
	if err := f.svc.DeleteShift(context.Background(), f.admin, ws.ID); !errors.Is(err, ErrEditWindowClosed) {
		t.Fatalf("delete past boundary err = %v, want %v", err, ErrEditWindowClosed)
	}
}

func TestDeleteShift(t *testing.T) {
	f := newSvcFixture(t)

	ws, err := f.svc.CreateShift(context.Background(), f.admin, f.doctorID, time.Now(), "08:00-08:30")
	if err != nil {
		t.Fatalf("CreateShift: %v", err)
	}

	if err := f.svc.DeleteShift(context.Background(), f.admin, ws.ID); err != nil {
		t.Fatalf("DeleteShift: %v", err)
	}
	if _, err := f.repo.GetByID(context.Background(), ws.ID); !errors.Is(err, ErrShiftNotFound) {
		t.Error("shift still present after delete")
	}
}

func TestDeleteShiftRefusesWhileReserved(t *testing.T) {
	f := newSvcFixture(t)

	ws, err := f.svc.CreateShift(context.Background(), f.admin, f.doctorID, time.Now(), "08:00-08:30")
	if err != nil {
		t.Fatalf("CreateShift: %v", err)
	}
	if _, err := f.repo.Reserve(context.Background(), ws.ID, uuid.New()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := f.svc.DeleteShift(context.Background(), f.admin, ws.ID); !errors.Is(err, ErrShiftReserved) {
		t.Fatalf("err = %v, want %v", err, ErrShiftReserved)
	}
}

func TestTimeSlotCatalog(t *testing.T) {
	if len(TimeSlots) != 20 {
		t.Fatalf("catalog size = %d, want 20 half-hour slots between 08:00 and 18:00", len(TimeSlots))
	}
	if TimeSlots[0] != "08:00-08:30" {
		t.Errorf("first slot = %s", TimeSlots[0])
	}
	if TimeSlots[len(TimeSlots)-1] != "17:30-18:00" {
		t.Errorf("last slot = %s", TimeSlots[len(TimeSlots)-1])
	}
	if ValidTimeSlot("18:00-18:30") {
		t.Error("slot past closing accepted")
	}
}
