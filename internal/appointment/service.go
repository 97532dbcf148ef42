package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-backend/internal/auth"
	"github.com/medagenda/clinic-backend/internal/notify"
	redisclient "github.com/medagenda/clinic-backend/internal/redis"
	"github.com/medagenda/clinic-backend/internal/schedule"
)

const dateLayout = "2006-01-02"

var dayCodes = map[time.Weekday]string{
	time.Monday:    "mo",
	time.Tuesday:   "tu",
	time.Wednesday: "we",
	time.Thursday:  "th",
	time.Friday:    "fr",
	time.Saturday:  "sa",
	time.Sunday:    "su",
}

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, notifier notify.Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Book reserves a slot for a patient on a date. Patients book for themselves;
// medics and admins may book on a patient's behalf. The conflict check runs
// inside a per-(slot,date) lock so concurrent bookers for the same pairing
// get a clean answer; the store's uniqueness constraint decides any race the
// lock cannot see.
func (s *Service) Book(ctx context.Context, actor auth.Identity, req BookRequest) (*Appointment, error) {
	if actor.Role == auth.RolePatient && req.PatientRut != actor.SubjectID {
		return nil, ErrNotOwner
	}

	email, _, err := s.repo.GetPatientContact(ctx, req.PatientRut)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	slot, err := s.repo.GetSlotInfo(ctx, req.TimeSlotID)
	if err != nil {
		return nil, err
	}
	if !slot.Active {
		return nil, ErrSlotInactive
	}
	if err := s.checkTiming(slot, req.Date); err != nil {
		return nil, err
	}

	var created *Appointment
	err = s.locker.WithBookingLock(ctx, slot.ID, req.Date, func(lockCtx context.Context) error {
		if err := s.checkOverlap(lockCtx, slot, req.Date, req.PatientRut, 0); err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			PatientRut:  req.PatientRut,
			TimeSlotID:  req.TimeSlotID,
			Date:        req.Date,
			Description: req.Description,
		})
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	s.notifier.Notify(email, "Appointment booked",
		fmt.Sprintf("Your appointment on %s at %s was registered. It is pending confirmation.", created.Date, slot.Start))

	return created, nil
}

// Update applies a partial update. Date, slot, and description changes re-run
// the same conflict checks as creation; the medic resolved through the slot
// is immutable once set; confirmation only ever moves false to true.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id int, patch Patch) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	curSlot, err := s.repo.GetSlotInfo(ctx, appt.TimeSlotID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, appt, curSlot.MedicRut); err != nil {
		return nil, err
	}

	if patch.Confirmed != nil {
		// Already-confirmed appointments accept no further value, and an
		// explicit false is never legal. This is a state conflict, not a
		// malformed request.
		if appt.Confirmed || !*patch.Confirmed {
			return nil, ErrConfirmationFinal
		}
	}

	next := *appt
	if patch.TimeSlotID != nil {
		next.TimeSlotID = *patch.TimeSlotID
	}
	if patch.Date != nil {
		next.Date = *patch.Date
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Confirmed != nil {
		next.Confirmed = *patch.Confirmed
	}

	targetSlot := curSlot
	if next.TimeSlotID != appt.TimeSlotID {
		targetSlot, err = s.repo.GetSlotInfo(ctx, next.TimeSlotID)
		if err != nil {
			return nil, err
		}
		if targetSlot.MedicRut != curSlot.MedicRut {
			return nil, ErrMedicReassignment
		}
		if !targetSlot.Active {
			return nil, ErrSlotInactive
		}
	}

	if next == *appt {
		return nil, ErrNoChange
	}

	rescheduled := next.TimeSlotID != appt.TimeSlotID || next.Date != appt.Date

	var rows int64
	if rescheduled {
		if err := s.checkTiming(targetSlot, next.Date); err != nil {
			return nil, err
		}
		err = s.locker.WithBookingLock(ctx, targetSlot.ID, next.Date, func(lockCtx context.Context) error {
			if err := s.checkOverlap(lockCtx, targetSlot, next.Date, next.PatientRut, appt.ID); err != nil {
				return err
			}
			rows, err = s.repo.UpdateAppointment(lockCtx, next)
			return err
		})
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
	} else {
		rows, err = s.repo.UpdateAppointment(ctx, next)
	}
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNoChange
	}

	if patch.Confirmed != nil && next.Confirmed {
		if email, _, err := s.repo.GetPatientContact(ctx, next.PatientRut); err == nil {
			s.notifier.Notify(email, "Appointment confirmed",
				fmt.Sprintf("Your appointment on %s at %s is confirmed.", next.Date, targetSlot.Start))
		}
	}

	return &next, nil
}

// Cancel removes the appointment. Either party may cancel; no conflict
// re-check is needed for a deletion.
func (s *Service) Cancel(ctx context.Context, actor auth.Identity, id int) error {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	slot, err := s.repo.GetSlotInfo(ctx, appt.TimeSlotID)
	if err != nil {
		return err
	}
	if err := authorize(actor, appt, slot.MedicRut); err != nil {
		return err
	}

	if err := s.repo.DeleteAppointment(ctx, appt.ID); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, actor auth.Identity, id int) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	slot, err := s.repo.GetSlotInfo(ctx, appt.TimeSlotID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, appt, slot.MedicRut); err != nil {
		return nil, err
	}
	return appt, nil
}

// ListForPatient returns the patient's appointments. Patients see only their
// own; admins see anyone's.
func (s *Service) ListForPatient(ctx context.Context, actor auth.Identity, patientRut string) ([]Appointment, error) {
	if actor.Role == auth.RolePatient && actor.SubjectID != patientRut {
		return nil, ErrNotOwner
	}
	appts, err := s.repo.ListByPatient(ctx, patientRut)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appts, nil
}

// ListForMedic returns the appointments booked into the medic's slots.
func (s *Service) ListForMedic(ctx context.Context, actor auth.Identity, medicRut string) ([]Appointment, error) {
	if actor.Role == auth.RoleMedic && actor.SubjectID != medicRut {
		return nil, ErrNotOwner
	}
	appts, err := s.repo.ListByMedic(ctx, medicRut)
	if err != nil {
		return nil, fmt.Errorf("list appointments by medic: %w", err)
	}
	return appts, nil
}

// RemindUpcoming emails patients about tomorrow's confirmed appointments.
// Called periodically by the reminder worker; delivery failures are logged by
// the notifier and never retried here.
func (s *Service) RemindUpcoming(ctx context.Context) error {
	tomorrow := s.now().AddDate(0, 0, 1).Format(dateLayout)
	reminders, err := s.repo.ListConfirmedOnDate(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("list confirmed appointments: %w", err)
	}

	for _, r := range reminders {
		s.notifier.Notify(r.PatientEmail, "Appointment reminder",
			fmt.Sprintf("Hello %s, this is a reminder of your appointment with %s tomorrow (%s) at %s.",
				r.PatientName, r.MedicName, r.Date, r.Start))
	}

	s.log.Info().Int("count", len(reminders)).Str("date", tomorrow).Msg("reminders dispatched")
	return nil
}

// checkTiming enforces the day-of-week match between the date and the slot,
// and rejects booking a slot whose start already passed today.
func (s *Service) checkTiming(slot *SlotInfo, date string) error {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", date, err)
	}
	if dayCodes[t.Weekday()] != slot.Day {
		return ErrDayMismatch
	}

	now := s.now()
	if date == now.Format(dateLayout) {
		if schedule.MinutesOf(slot.Start) <= now.Hour()*60+now.Minute() {
			return ErrSlotStarted
		}
	}
	return nil
}

// checkOverlap rejects the candidate when any existing appointment on the
// date shares the patient or the medic and its slot's range collides with
// the candidate slot's range.
func (s *Service) checkOverlap(ctx context.Context, slot *SlotInfo, date, patientRut string, excludeID int) error {
	booked, err := s.repo.ListBookedOnDate(ctx, date, patientRut, slot.MedicRut, excludeID)
	if err != nil {
		return fmt.Errorf("list booked on date: %w", err)
	}
	for _, b := range booked {
		if schedule.RangesConflict(slot.Start, slot.End, b.Start, b.End) {
			return ErrOverlap
		}
	}
	return nil
}

func authorize(actor auth.Identity, appt *Appointment, slotMedicRut string) error {
	switch actor.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RolePatient:
		if appt.PatientRut == actor.SubjectID {
			return nil
		}
	case auth.RoleMedic:
		if slotMedicRut == actor.SubjectID {
			return nil
		}
	}
	return ErrNotOwner
}
