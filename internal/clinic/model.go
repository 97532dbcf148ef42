package clinic

import "github.com/medagenda/clinic-backend/internal/auth"

// Patient is a registered patient account, keyed by rut.
type Patient struct {
	Rut             string
	FirstName       string
	LastName        string
	Email           string
	Phone           int
	BirthDate       string // YYYY-MM-DD
	BloodTypeID     int
	InsuranceTypeID int
	Rhesus          string // "+" or "-"
	PasswordHash    string
}

// Employee is a medic or admin account, keyed by rut. SpecialtyID is set for
// medics only.
type Employee struct {
	Rut          string
	FirstName    string
	LastName     string
	Email        string
	Phone        int
	Role         auth.Role
	SpecialtyID  *int
	PasswordHash string
}

// PatientPatch carries a partial patient update; nil means untouched. The
// rut is immutable and has no slot here.
type PatientPatch struct {
	FirstName       *string
	LastName        *string
	Email           *string
	Phone           *int
	BirthDate       *string
	BloodTypeID     *int
	InsuranceTypeID *int
	Rhesus          *string
	Password        *string
}

// EmployeePatch carries a partial medic/admin update. Role is immutable.
type EmployeePatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *int
	SpecialtyID *int
	Password    *string
}
