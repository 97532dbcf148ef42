package api

import (
	"github.com/medagenda/clinic-backend/internal/appointment"
	"github.com/medagenda/clinic-backend/internal/clinic"
	"github.com/medagenda/clinic-backend/internal/schedule"
)

type TokenResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type PatientResponse struct {
	Rut             string `json:"rut"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           int    `json:"phone"`
	BirthDate       string `json:"birth_date"`
	BloodTypeID     int    `json:"blood_type_id"`
	InsuranceTypeID int    `json:"insurance_type_id"`
	Rhesus          string `json:"rhesus"`
}

func toPatientResponse(p *clinic.Patient) PatientResponse {
	return PatientResponse{
		Rut:             p.Rut,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		BirthDate:       p.BirthDate,
		BloodTypeID:     p.BloodTypeID,
		InsuranceTypeID: p.InsuranceTypeID,
		Rhesus:          p.Rhesus,
	}
}

// MedicResponse is the public directory entry; contact details stay private.
type MedicResponse struct {
	Rut         string `json:"rut"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	SpecialtyID *int   `json:"specialty_id"`
}

func toMedicResponse(e *clinic.Employee) MedicResponse {
	return MedicResponse{
		Rut:         e.Rut,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		SpecialtyID: e.SpecialtyID,
	}
}

type SlotResponse struct {
	ID     int    `json:"id"`
	Day    string `json:"day"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Active bool   `json:"active"`
}

func toSlotResponse(s *schedule.TimeSlot) SlotResponse {
	return SlotResponse{
		ID:     s.ID,
		Day:    s.Day,
		Start:  s.Start,
		End:    s.End,
		Active: s.Active,
	}
}

type AppointmentResponse struct {
	ID          int    `json:"id"`
	PatientRut  string `json:"patient_rut"`
	TimeSlotID  int    `json:"time_slot_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Confirmed   bool   `json:"confirmed"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientRut:  a.PatientRut,
		TimeSlotID:  a.TimeSlotID,
		Date:        a.Date,
		Description: a.Description,
		Confirmed:   a.Confirmed,
	}
}
