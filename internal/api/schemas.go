package api

import (
	"context"

	"github.com/medagenda/clinic-backend/internal/validate"
)

// ReferenceChecker answers the existence lookups behind foreign-key
// validation. Implemented by the clinic repository.
type ReferenceChecker interface {
	SpecialtyExists(ctx context.Context, id int) (bool, error)
	BloodTypeExists(ctx context.Context, id int) (bool, error)
	InsuranceTypeExists(ctx context.Context, id int) (bool, error)
	TimeSlotExists(ctx context.Context, id int) (bool, error)
}

// Schemas holds the per-entity validation schemas. Create handlers run
// Validate, patch handlers run ValidatePartial over the same schema.
type Schemas struct {
	Login       validate.Schema
	Patient     validate.Schema
	Medic       validate.Schema
	Slot        validate.Schema
	Appointment validate.Schema
}

func NewSchemas(ref ReferenceChecker) *Schemas {
	return &Schemas{
		Login: validate.Schema{
			Fields: []validate.Field{
				{Key: "rut", Required: true, Check: validate.Rut()},
				{Key: "password", Required: true, Check: validate.NonEmptyString()},
			},
		},
		Patient: validate.Schema{
			Fields: []validate.Field{
				{Key: "rut", Required: true, Check: validate.Rut()},
				{Key: "first_name", Required: true, Check: validate.NonEmptyString()},
				{Key: "last_name", Required: true, Check: validate.NonEmptyString()},
				{Key: "email", Required: true, Check: validate.Email()},
				{Key: "phone", Required: true, Check: validate.Phone()},
				{Key: "birth_date", Required: true, Check: validate.Date()},
				{Key: "blood_type_id", Required: true, Check: validate.ForeignKey("blood type", ref.BloodTypeExists)},
				{Key: "insurance_type_id", Required: true, Check: validate.ForeignKey("insurance type", ref.InsuranceTypeExists)},
				{Key: "rhesus", Required: true, Check: validate.Rhesus()},
				{Key: "password", Required: true, Check: validate.Password()},
			},
		},
		Medic: validate.Schema{
			Fields: []validate.Field{
				{Key: "rut", Required: true, Check: validate.Rut()},
				{Key: "first_name", Required: true, Check: validate.NonEmptyString()},
				{Key: "last_name", Required: true, Check: validate.NonEmptyString()},
				{Key: "email", Required: true, Check: validate.Email()},
				{Key: "phone", Required: true, Check: validate.Phone()},
				{Key: "specialty_id", Required: true, Check: validate.ForeignKey("specialty", ref.SpecialtyExists)},
				{Key: "password", Required: true, Check: validate.Password()},
			},
		},
		Slot: validate.Schema{
			Fields: []validate.Field{
				{Key: "day", Required: true, Check: validate.DayOfWeek()},
				{Key: "start", Required: true, Check: validate.TimeOfDay()},
				{Key: "end", Required: true, Check: validate.TimeOfDay()},
				{Key: "active", Check: validate.Bool()},
			},
		},
		Appointment: validate.Schema{
			Fields: []validate.Field{
				{Key: "patient_rut", Required: true, Check: validate.Rut()},
				{Key: "time_slot_id", Required: true, Check: validate.ForeignKey("time slot", ref.TimeSlotExists)},
				{Key: "date", Required: true, Check: validate.Date()},
				{Key: "description", Check: validate.NonEmptyString()},
				{Key: "confirmed", Check: validate.Bool()},
			},
		},
	}
}

// The sanitized maps hold JSON-decoded values, so numbers arrive as float64.

func strField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func strPtrField(m map[string]any, key string) *string {
	if _, ok := m[key]; !ok {
		return nil
	}
	s := strField(m, key)
	return &s
}

func intPtrField(m map[string]any, key string) *int {
	if _, ok := m[key]; !ok {
		return nil
	}
	n := intField(m, key)
	return &n
}

func boolPtrField(m map[string]any, key string) *bool {
	if _, ok := m[key]; !ok {
		return nil
	}
	b := boolField(m, key)
	return &b
}
