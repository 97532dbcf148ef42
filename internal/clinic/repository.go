package clinic

import "context"

// Repository contains all DB interactions needed by the account service.
type Repository interface {
	GetPatient(ctx context.Context, rut string) (*Patient, error)
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	UpdatePatient(ctx context.Context, p Patient) (int64, error)
	DeletePatient(ctx context.Context, rut string) error

	GetEmployee(ctx context.Context, rut string) (*Employee, error)
	ListMedics(ctx context.Context) ([]Employee, error)
	CreateEmployee(ctx context.Context, e Employee) (*Employee, error)
	UpdateEmployee(ctx context.Context, e Employee) (int64, error)

	// Reference-table existence checks backing the foreign-key validators.
	SpecialtyExists(ctx context.Context, id int) (bool, error)
	BloodTypeExists(ctx context.Context, id int) (bool, error)
	InsuranceTypeExists(ctx context.Context, id int) (bool, error)
	TimeSlotExists(ctx context.Context, id int) (bool, error)
}
