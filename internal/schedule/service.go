package schedule

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ProvisionSchedule creates the slot container for a newly registered medic.
func (s *Service) ProvisionSchedule(ctx context.Context, medicRut string) error {
	if _, err := s.repo.CreateSchedule(ctx, medicRut); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// ListSlots returns every slot on the medic's schedule, active or not.
func (s *Service) ListSlots(ctx context.Context, medicRut string) ([]TimeSlot, error) {
	sched, err := s.repo.GetScheduleByMedic(ctx, medicRut)
	if err != nil {
		return nil, err
	}
	slots, err := s.repo.ListSlots(ctx, sched.ID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// CreateSlot adds availability to the medic's schedule after checking the
// candidate range against every other active slot on the same day.
func (s *Service) CreateSlot(ctx context.Context, medicRut string, req CreateSlotRequest) (*TimeSlot, error) {
	if MinutesOf(req.Start) >= MinutesOf(req.End) {
		return nil, ErrInvalidTimeRange
	}

	sched, err := s.repo.GetScheduleByMedic(ctx, medicRut)
	if err != nil {
		return nil, err
	}

	active := req.Active == nil || *req.Active

	// Inactive slots never collide, so only active creations are checked.
	if active {
		conflict, err := s.Conflicts(ctx, sched.ID, req.Day, req.Start, req.End, 0)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, ErrSlotOverlap
		}
	}

	slot, err := s.repo.CreateSlot(ctx, TimeSlot{
		ScheduleID: sched.ID,
		Day:        req.Day,
		Start:      req.Start,
		End:        req.End,
		Active:     active,
	})
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

// UpdateSlot applies a partial update. The time shape (day, start, end) is
// frozen once any appointment references the slot, and every shape change is
// re-checked for overlap against the schedule's other active slots.
// Reactivating a slot is also re-checked, since an inactive slot does not
// collide while it is off.
func (s *Service) UpdateSlot(ctx context.Context, medicRut string, slotID int, patch SlotPatch) (*TimeSlot, error) {
	slot, err := s.ownedSlot(ctx, medicRut, slotID)
	if err != nil {
		return nil, err
	}

	next := *slot
	if patch.Day != nil {
		next.Day = *patch.Day
	}
	if patch.Start != nil {
		next.Start = *patch.Start
	}
	if patch.End != nil {
		next.End = *patch.End
	}
	if patch.Active != nil {
		next.Active = *patch.Active
	}

	if next == *slot {
		return nil, ErrNoChange
	}

	if MinutesOf(next.Start) >= MinutesOf(next.End) {
		return nil, ErrInvalidTimeRange
	}

	shapeChanged := next.Day != slot.Day || next.Start != slot.Start || next.End != slot.End
	deactivating := slot.Active && !next.Active
	reactivating := !slot.Active && next.Active

	if shapeChanged || deactivating {
		count, err := s.repo.CountAppointmentsForSlot(ctx, slot.ID)
		if err != nil {
			return nil, fmt.Errorf("count slot appointments: %w", err)
		}
		if count > 0 {
			return nil, ErrSlotHasAppointments
		}
	}

	if next.Active && (shapeChanged || reactivating) {
		conflict, err := s.Conflicts(ctx, slot.ScheduleID, next.Day, next.Start, next.End, slot.ID)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, ErrSlotOverlap
		}
	}

	rows, err := s.repo.UpdateSlot(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("update slot: %w", err)
	}
	if rows == 0 {
		return nil, ErrNoChange
	}
	return &next, nil
}

// DeleteSlot removes a slot. Deletion is blocked while any appointment
// references it; cancelled bookings are hard-deleted and never block.
func (s *Service) DeleteSlot(ctx context.Context, medicRut string, slotID int) error {
	slot, err := s.ownedSlot(ctx, medicRut, slotID)
	if err != nil {
		return err
	}

	count, err := s.repo.CountAppointmentsForSlot(ctx, slot.ID)
	if err != nil {
		return fmt.Errorf("count slot appointments: %w", err)
	}
	if count > 0 {
		return ErrSlotHasAppointments
	}

	if err := s.repo.DeleteSlot(ctx, slot.ID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// Conflicts reports whether the candidate range collides with any other
// active slot on the same schedule and day. excludeSlotID skips the slot
// being updated; pass 0 for creations.
func (s *Service) Conflicts(ctx context.Context, scheduleID int, day, start, end string, excludeSlotID int) (bool, error) {
	others, err := s.repo.ListActiveSlotsOnDay(ctx, scheduleID, day)
	if err != nil {
		return false, fmt.Errorf("list slots on day: %w", err)
	}
	for _, other := range others {
		if other.ID == excludeSlotID {
			continue
		}
		if RangesConflict(start, end, other.Start, other.End) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) ownedSlot(ctx context.Context, medicRut string, slotID int) (*TimeSlot, error) {
	sched, err := s.repo.GetScheduleByMedic(ctx, medicRut)
	if err != nil {
		return nil, err
	}
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.ScheduleID != sched.ID {
		// Hide other medics' slots rather than acknowledging them.
		return nil, ErrSlotNotFound
	}
	return slot, nil
}
