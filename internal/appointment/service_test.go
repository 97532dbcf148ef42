package appointment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-backend/internal/auth"
	redisclient "github.com/medagenda/clinic-backend/internal/redis"
)

// ---------- fakes ----------

type fakeRepo struct {
	appts     map[int]*Appointment
	slots     map[int]*SlotInfo
	patients  map[string]string // rut -> email
	reminders []Reminder
	createErr error
	nextID    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		appts:    make(map[int]*Appointment),
		slots:    make(map[int]*SlotInfo),
		patients: make(map[string]string),
		nextID:   1,
	}
}

func (f *fakeRepo) GetAppointment(_ context.Context, id int) (*Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) ListByPatient(_ context.Context, rut string) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appts {
		if a.PatientRut == rut {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByMedic(_ context.Context, rut string) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appts {
		if f.slots[a.TimeSlotID].MedicRut == rut {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetSlotInfo(_ context.Context, slotID int) (*SlotInfo, error) {
	s, ok := f.slots[slotID]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) ListBookedOnDate(_ context.Context, date, patientRut, medicRut string, excludeID int) ([]Booked, error) {
	var out []Booked
	for _, a := range f.appts {
		if a.Date != date || a.ID == excludeID {
			continue
		}
		slot := f.slots[a.TimeSlotID]
		if a.PatientRut != patientRut && slot.MedicRut != medicRut {
			continue
		}
		out = append(out, Booked{
			AppointmentID: a.ID,
			PatientRut:    a.PatientRut,
			MedicRut:      slot.MedicRut,
			Start:         slot.Start,
			End:           slot.End,
		})
	}
	return out, nil
}

func (f *fakeRepo) CreateAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.appts {
		// The UNIQUE(time_slot_id, date) constraint.
		if existing.TimeSlotID == a.TimeSlotID && existing.Date == a.Date {
			return nil, ErrSlotDateTaken
		}
	}
	a.ID = f.nextID
	f.nextID++
	f.appts[a.ID] = &a
	cp := a
	return &cp, nil
}

func (f *fakeRepo) UpdateAppointment(_ context.Context, a Appointment) (int64, error) {
	stored, ok := f.appts[a.ID]
	if !ok {
		return 0, nil
	}
	if *stored == a {
		return 0, nil
	}
	f.appts[a.ID] = &a
	return 1, nil
}

func (f *fakeRepo) DeleteAppointment(_ context.Context, id int) error {
	delete(f.appts, id)
	return nil
}

func (f *fakeRepo) GetPatientContact(_ context.Context, rut string) (string, string, error) {
	email, ok := f.patients[rut]
	if !ok {
		return "", "", ErrPatientNotFound
	}
	return email, "Patient " + rut, nil
}

func (f *fakeRepo) ListConfirmedOnDate(_ context.Context, date string) ([]Reminder, error) {
	var out []Reminder
	for _, r := range f.reminders {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

type passLocker struct{}

func (passLocker) WithBookingLock(ctx context.Context, _ int, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

type busyLocker struct{}

func (busyLocker) WithBookingLock(context.Context, int, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string // "recipient|subject"
}

func (n *recordingNotifier) Notify(recipient, subject, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recipient+"|"+subject)
}

// ---------- fixtures ----------

const (
	patientAna  = "12345678-5"
	patientLuis = "11111111-1"
	medicSoto   = "18972631-7"
	medicRojas  = "20416699-4"
	adminRut    = "14000000-0"
)

// The test clock is pinned to Wednesday 2026-01-14 10:00.
var testNow = time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)

const nextMonday = "2026-01-19"

func asPatient(rut string) auth.Identity {
	return auth.Identity{SubjectID: rut, Role: auth.RolePatient}
}
func asMedic(rut string) auth.Identity { return auth.Identity{SubjectID: rut, Role: auth.RoleMedic} }
func asAdmin() auth.Identity           { return auth.Identity{SubjectID: adminRut, Role: auth.RoleAdmin} }

func newTestService(t *testing.T) (*Service, *fakeRepo, *recordingNotifier) {
	t.Helper()
	repo := newFakeRepo()
	repo.patients[patientAna] = "ana@example.cl"
	repo.patients[patientLuis] = "luis@example.cl"
	// Soto: two overlapping-window slots on Monday plus one touching; Rojas:
	// a Monday slot overlapping Soto's first in wall-clock terms.
	repo.slots[1] = &SlotInfo{ID: 1, Day: "mo", Start: "08:00", End: "08:30", Active: true, MedicRut: medicSoto}
	repo.slots[2] = &SlotInfo{ID: 2, Day: "mo", Start: "08:15", End: "08:45", Active: true, MedicRut: medicSoto}
	repo.slots[3] = &SlotInfo{ID: 3, Day: "mo", Start: "08:30", End: "09:00", Active: true, MedicRut: medicSoto}
	repo.slots[4] = &SlotInfo{ID: 4, Day: "mo", Start: "08:00", End: "08:30", Active: true, MedicRut: medicRojas}
	repo.slots[5] = &SlotInfo{ID: 5, Day: "tu", Start: "08:00", End: "08:30", Active: true, MedicRut: medicSoto}
	repo.slots[6] = &SlotInfo{ID: 6, Day: "we", Start: "09:00", End: "09:30", Active: true, MedicRut: medicSoto}
	repo.slots[7] = &SlotInfo{ID: 7, Day: "we", Start: "10:01", End: "10:31", Active: true, MedicRut: medicSoto}
	repo.slots[8] = &SlotInfo{ID: 8, Day: "mo", Start: "09:00", End: "09:30", Active: false, MedicRut: medicSoto}

	notifier := &recordingNotifier{}
	svc := NewService(repo, passLocker{}, notifier, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc, repo, notifier
}

// ---------- booking ----------

func TestBook(t *testing.T) {
	ctx := context.Background()

	t.Run("patient books own appointment", func(t *testing.T) {
		svc, _, notifier := newTestService(t)
		appt, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 1, Date: nextMonday, Description: "checkup",
		})
		if err != nil {
			t.Fatalf("book: %v", err)
		}
		if appt.Confirmed {
			t.Error("new appointment must start unconfirmed")
		}
		if len(notifier.sent) != 1 || !strings.HasPrefix(notifier.sent[0], "ana@example.cl|") {
			t.Errorf("notifications = %v, want one to the patient", notifier.sent)
		}
	})

	t.Run("same medic overlapping time conflicts", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		mustBook(t, svc, patientAna, 1, nextMonday)
		_, err := svc.Book(ctx, asPatient(patientLuis), BookRequest{
			PatientRut: patientLuis, TimeSlotID: 2, Date: nextMonday,
		})
		if !errors.Is(err, ErrOverlap) {
			t.Errorf("err = %v, want ErrOverlap", err)
		}
	})

	t.Run("same patient overlapping time conflicts across medics", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		mustBook(t, svc, patientAna, 1, nextMonday)
		_, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 4, Date: nextMonday,
		})
		if !errors.Is(err, ErrOverlap) {
			t.Errorf("err = %v, want ErrOverlap", err)
		}
	})

	t.Run("different patient and medic may overlap", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		mustBook(t, svc, patientAna, 1, nextMonday)
		if _, err := svc.Book(ctx, asPatient(patientLuis), BookRequest{
			PatientRut: patientLuis, TimeSlotID: 4, Date: nextMonday,
		}); err != nil {
			t.Errorf("independent booking rejected: %v", err)
		}
	})

	t.Run("touching slots do not conflict", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		mustBook(t, svc, patientAna, 1, nextMonday)
		if _, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 3, Date: nextMonday,
		}); err != nil {
			t.Errorf("back-to-back booking rejected: %v", err)
		}
	})

	t.Run("same slot twice on a date conflicts", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		mustBook(t, svc, patientAna, 1, nextMonday)
		// Same slot on another date is free.
		if _, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 1, Date: "2026-01-26",
		}); err != nil {
			t.Errorf("same slot next week rejected: %v", err)
		}
	})

	t.Run("day mismatch", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 5, Date: nextMonday, // tu slot, mo date
		})
		if !errors.Is(err, ErrDayMismatch) {
			t.Errorf("err = %v, want ErrDayMismatch", err)
		}
	})

	t.Run("slot already started today", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		// Slot 6 starts 09:00, the clock reads Wednesday 10:00.
		_, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 6, Date: "2026-01-14",
		})
		if !errors.Is(err, ErrSlotStarted) {
			t.Errorf("err = %v, want ErrSlotStarted", err)
		}
		// Slot 7 starts 10:01, still bookable today.
		if _, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 7, Date: "2026-01-14",
		}); err != nil {
			t.Errorf("future slot today rejected: %v", err)
		}
	})

	t.Run("inactive slot", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 8, Date: nextMonday,
		})
		if !errors.Is(err, ErrSlotInactive) {
			t.Errorf("err = %v, want ErrSlotInactive", err)
		}
	})

	t.Run("patient cannot book for someone else", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Book(ctx, asPatient(patientLuis), BookRequest{
			PatientRut: patientAna, TimeSlotID: 1, Date: nextMonday,
		})
		if !errors.Is(err, ErrNotOwner) {
			t.Errorf("err = %v, want ErrNotOwner", err)
		}
	})

	t.Run("medic books on the patient's behalf", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		if _, err := svc.Book(ctx, asMedic(medicSoto), BookRequest{
			PatientRut: patientAna, TimeSlotID: 1, Date: nextMonday,
		}); err != nil {
			t.Errorf("medic booking rejected: %v", err)
		}
	})

	t.Run("unknown patient", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Book(ctx, asAdmin(), BookRequest{
			PatientRut: "30686957-4", TimeSlotID: 1, Date: nextMonday,
		})
		if !errors.Is(err, ErrPatientNotFound) {
			t.Errorf("err = %v, want ErrPatientNotFound", err)
		}
	})

	t.Run("unknown slot", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 999, Date: nextMonday,
		})
		if !errors.Is(err, ErrSlotNotFound) {
			t.Errorf("err = %v, want ErrSlotNotFound", err)
		}
	})

	t.Run("busy lock surfaces as booking in progress", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		svc.locker = busyLocker{}
		_, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 1, Date: nextMonday,
		})
		if !errors.Is(err, ErrBookingInProgress) {
			t.Errorf("err = %v, want ErrBookingInProgress", err)
		}
	})

	t.Run("store constraint decides the race", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.createErr = ErrSlotDateTaken
		_, err := svc.Book(ctx, asPatient(patientAna), BookRequest{
			PatientRut: patientAna, TimeSlotID: 1, Date: nextMonday,
		})
		if !errors.Is(err, ErrSlotDateTaken) {
			t.Errorf("err = %v, want ErrSlotDateTaken", err)
		}
	})
}

func mustBook(t *testing.T, svc *Service, patientRut string, slotID int, date string) *Appointment {
	t.Helper()
	appt, err := svc.Book(context.Background(), asPatient(patientRut), BookRequest{
		PatientRut: patientRut, TimeSlotID: slotID, Date: date, Description: "checkup",
	})
	if err != nil {
		t.Fatalf("seed booking (slot %d, %s): %v", slotID, date, err)
	}
	return appt
}

// ---------- updates ----------

func boolp(b bool) *bool    { return &b }
func intp(n int) *int       { return &n }
func strp(s string) *string { return &s }

func TestUpdateConfirmation(t *testing.T) {
	ctx := context.Background()
	svc, _, notifier := newTestService(t)
	appt := mustBook(t, svc, patientAna, 1, nextMonday)

	updated, err := svc.Update(ctx, asPatient(patientAna), appt.ID, Patch{Confirmed: boolp(true)})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !updated.Confirmed {
		t.Fatal("appointment not confirmed")
	}
	if len(notifier.sent) != 2 || !strings.HasSuffix(notifier.sent[1], "|Appointment confirmed") {
		t.Errorf("notifications = %v, want a confirmation email", notifier.sent)
	}

	// Confirming again is a conflict, not a no-op.
	if _, err := svc.Update(ctx, asPatient(patientAna), appt.ID, Patch{Confirmed: boolp(true)}); !errors.Is(err, ErrConfirmationFinal) {
		t.Errorf("re-confirm err = %v, want ErrConfirmationFinal", err)
	}
	// Rolling back is a conflict.
	if _, err := svc.Update(ctx, asPatient(patientAna), appt.ID, Patch{Confirmed: boolp(false)}); !errors.Is(err, ErrConfirmationFinal) {
		t.Errorf("rollback err = %v, want ErrConfirmationFinal", err)
	}
}

func TestUpdateExplicitFalseWhileUnconfirmed(t *testing.T) {
	svc, _, _ := newTestService(t)
	appt := mustBook(t, svc, patientAna, 1, nextMonday)
	if _, err := svc.Update(context.Background(), asPatient(patientAna), appt.ID, Patch{Confirmed: boolp(false)}); !errors.Is(err, ErrConfirmationFinal) {
		t.Errorf("err = %v, want ErrConfirmationFinal", err)
	}
}

func TestUpdateMedicImmutable(t *testing.T) {
	svc, _, _ := newTestService(t)
	appt := mustBook(t, svc, patientAna, 1, nextMonday)

	// Slot 4 belongs to a different medic: rejected even though the target
	// range itself is free.
	if _, err := svc.Update(context.Background(), asPatient(patientAna), appt.ID, Patch{TimeSlotID: intp(4)}); !errors.Is(err, ErrMedicReassignment) {
		t.Errorf("err = %v, want ErrMedicReassignment", err)
	}
}

func TestUpdateReschedule(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	appt := mustBook(t, svc, patientAna, 1, nextMonday)

	// Moving to a same-medic touching slot succeeds.
	updated, err := svc.Update(ctx, asPatient(patientAna), appt.ID, Patch{TimeSlotID: intp(3)})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if updated.TimeSlotID != 3 {
		t.Errorf("slot = %d, want 3", updated.TimeSlotID)
	}

	// A second patient takes the freed 08:00 slot; moving back now conflicts.
	mustBook(t, svc, patientLuis, 1, nextMonday)
	if _, err := svc.Update(ctx, asPatient(patientAna), appt.ID, Patch{TimeSlotID: intp(2)}); !errors.Is(err, ErrOverlap) {
		t.Errorf("err = %v, want ErrOverlap", err)
	}

	// Day-mismatch applies to updates as well.
	if _, err := svc.Update(ctx, asPatient(patientAna), appt.ID, Patch{Date: strp("2026-01-20")}); !errors.Is(err, ErrDayMismatch) {
		t.Errorf("err = %v, want ErrDayMismatch", err)
	}
}

func TestUpdateExcludesItselfFromOverlap(t *testing.T) {
	// Changing only the description must not self-collide.
	svc, _, _ := newTestService(t)
	appt := mustBook(t, svc, patientAna, 1, nextMonday)
	updated, err := svc.Update(context.Background(), asPatient(patientAna), appt.ID, Patch{Description: strp("bring previous exams")})
	if err != nil {
		t.Fatalf("update description: %v", err)
	}
	if updated.Description != "bring previous exams" {
		t.Errorf("description = %q", updated.Description)
	}
}

func TestUpdateIdenticalPayloadIsNoChange(t *testing.T) {
	svc, _, _ := newTestService(t)
	appt := mustBook(t, svc, patientAna, 1, nextMonday)

	if _, err := svc.Update(context.Background(), asPatient(patientAna), appt.ID, Patch{Description: strp("updated")}); err != nil {
		t.Fatalf("first patch: %v", err)
	}
	// Submitting the identical payload again changes nothing.
	if _, err := svc.Update(context.Background(), asPatient(patientAna), appt.ID, Patch{Description: strp("updated")}); !errors.Is(err, ErrNoChange) {
		t.Errorf("second patch err = %v, want ErrNoChange", err)
	}
}

func TestUpdateAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	appt := mustBook(t, svc, patientAna, 1, nextMonday)

	patch := Patch{Description: strp("x")}
	if _, err := svc.Update(ctx, asPatient(patientLuis), appt.ID, patch); !errors.Is(err, ErrNotOwner) {
		t.Errorf("stranger patient err = %v, want ErrNotOwner", err)
	}
	if _, err := svc.Update(ctx, asMedic(medicRojas), appt.ID, patch); !errors.Is(err, ErrNotOwner) {
		t.Errorf("unrelated medic err = %v, want ErrNotOwner", err)
	}
	if _, err := svc.Update(ctx, asMedic(medicSoto), appt.ID, patch); err != nil {
		t.Errorf("slot medic err = %v", err)
	}
	if _, err := svc.Update(ctx, asAdmin(), appt.ID, Patch{Description: strp("y")}); err != nil {
		t.Errorf("admin err = %v", err)
	}
}

// ---------- cancel / read ----------

func TestCancel(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	appt := mustBook(t, svc, patientAna, 1, nextMonday)

	if err := svc.Cancel(ctx, asPatient(patientLuis), appt.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("stranger cancel err = %v, want ErrNotOwner", err)
	}
	if err := svc.Cancel(ctx, asPatient(patientAna), appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, ok := repo.appts[appt.ID]; ok {
		t.Error("appointment still stored after cancel")
	}
	// The freed (slot, date) is bookable again.
	mustBook(t, svc, patientLuis, 1, nextMonday)
}

func TestListForPatient(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	mustBook(t, svc, patientAna, 1, nextMonday)
	mustBook(t, svc, patientLuis, 4, nextMonday)

	own, err := svc.ListForPatient(ctx, asPatient(patientAna), patientAna)
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own) != 1 {
		t.Errorf("own appointments = %d, want 1", len(own))
	}

	if _, err := svc.ListForPatient(ctx, asPatient(patientAna), patientLuis); !errors.Is(err, ErrNotOwner) {
		t.Errorf("foreign list err = %v, want ErrNotOwner", err)
	}
	if _, err := svc.ListForPatient(ctx, asAdmin(), patientLuis); err != nil {
		t.Errorf("admin list err = %v", err)
	}
}

// ---------- reminders ----------

func TestRemindUpcoming(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	repo.reminders = []Reminder{
		{AppointmentID: 1, PatientEmail: "ana@example.cl", PatientName: "Ana", MedicName: "Dr. Soto", Date: "2026-01-15", Start: "08:00"},
		{AppointmentID: 2, PatientEmail: "luis@example.cl", PatientName: "Luis", MedicName: "Dr. Rojas", Date: "2026-01-16", Start: "09:00"},
	}

	if err := svc.RemindUpcoming(context.Background()); err != nil {
		t.Fatalf("remind: %v", err)
	}
	// Only the 2026-01-15 row is "tomorrow" for the pinned clock.
	if len(notifier.sent) != 1 || notifier.sent[0] != "ana@example.cl|Appointment reminder" {
		t.Errorf("notifications = %v", notifier.sent)
	}
}
