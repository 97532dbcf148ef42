package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medagenda/clinic-backend/internal/auth"
	"github.com/medagenda/clinic-backend/internal/session"
)

// ScheduleCreator provisions the empty schedule every new medic gets.
// Implemented by the schedule service.
type ScheduleCreator interface {
	ProvisionSchedule(ctx context.Context, medicRut string) error
}

type Service struct {
	repo      Repository
	registry  *session.Registry
	schedules ScheduleCreator
	log       zerolog.Logger
}

func NewService(repo Repository, registry *session.Registry, schedules ScheduleCreator, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		registry:  registry,
		schedules: schedules,
		log:       log,
	}
}

// Login verifies the password against either subject store and issues a
// session token. The patient store is tried first; employee ruts that also
// exist as patients use the employee login path via their employee password.
func (s *Service) Login(ctx context.Context, rut, password string) (string, auth.Role, error) {
	if p, err := s.repo.GetPatient(ctx, rut); err == nil {
		if checkPassword(p.PasswordHash, password) {
			token, err := s.registry.Issue(ctx, p.Rut, auth.RolePatient)
			return token, auth.RolePatient, err
		}
	} else if !errors.Is(err, ErrPatientNotFound) {
		return "", "", fmt.Errorf("load patient: %w", err)
	}

	if e, err := s.repo.GetEmployee(ctx, rut); err == nil {
		if checkPassword(e.PasswordHash, password) {
			token, err := s.registry.Issue(ctx, e.Rut, e.Role)
			return token, e.Role, err
		}
	} else if !errors.Is(err, ErrEmployeeNotFound) {
		return "", "", fmt.Errorf("load employee: %w", err)
	}

	return "", "", ErrBadCredentials
}

// Logout revokes the session token. Unknown tokens are a no-op, matching the
// registry semantics.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.registry.Revoke(ctx, token)
}

// RegisterPatient creates a patient account. Open to the public, so the
// handler validates the body fully before this runs.
func (s *Service) RegisterPatient(ctx context.Context, p Patient, password string) (*Patient, error) {
	if _, err := s.repo.GetPatient(ctx, p.Rut); err == nil {
		return nil, ErrDuplicateRut
	} else if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("check patient: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	p.PasswordHash = hash

	created, err := s.repo.CreatePatient(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return created, nil
}

func (s *Service) GetPatient(ctx context.Context, rut string) (*Patient, error) {
	return s.repo.GetPatient(ctx, rut)
}

// UpdatePatient applies a partial update to the patient's own record.
func (s *Service) UpdatePatient(ctx context.Context, rut string, patch PatientPatch) (*Patient, error) {
	p, err := s.repo.GetPatient(ctx, rut)
	if err != nil {
		return nil, err
	}

	next := *p
	applyString(&next.FirstName, patch.FirstName)
	applyString(&next.LastName, patch.LastName)
	applyString(&next.Email, patch.Email)
	applyInt(&next.Phone, patch.Phone)
	applyString(&next.BirthDate, patch.BirthDate)
	applyInt(&next.BloodTypeID, patch.BloodTypeID)
	applyInt(&next.InsuranceTypeID, patch.InsuranceTypeID)
	applyString(&next.Rhesus, patch.Rhesus)
	if patch.Password != nil {
		hash, err := hashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		next.PasswordHash = hash
	}

	if next == *p {
		return nil, ErrNoChange
	}

	rows, err := s.repo.UpdatePatient(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	if rows == 0 {
		return nil, ErrNoChange
	}
	return &next, nil
}

// DeletePatient removes the account; the schema cascades their appointments.
func (s *Service) DeletePatient(ctx context.Context, rut string) error {
	if _, err := s.repo.GetPatient(ctx, rut); err != nil {
		return err
	}
	if err := s.repo.DeletePatient(ctx, rut); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

// CreateMedic registers a medic account and provisions its empty schedule.
// Admin only; the handler enforces the role.
func (s *Service) CreateMedic(ctx context.Context, e Employee, password string) (*Employee, error) {
	if _, err := s.repo.GetEmployee(ctx, e.Rut); err == nil {
		return nil, ErrDuplicateRut
	} else if !errors.Is(err, ErrEmployeeNotFound) {
		return nil, fmt.Errorf("check employee: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	e.PasswordHash = hash
	e.Role = auth.RoleMedic

	created, err := s.repo.CreateEmployee(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("create medic: %w", err)
	}
	if err := s.schedules.ProvisionSchedule(ctx, created.Rut); err != nil {
		return nil, fmt.Errorf("create medic schedule: %w", err)
	}
	return created, nil
}

func (s *Service) GetMedic(ctx context.Context, rut string) (*Employee, error) {
	e, err := s.repo.GetEmployee(ctx, rut)
	if err != nil {
		return nil, err
	}
	if e.Role != auth.RoleMedic {
		return nil, ErrEmployeeNotFound
	}
	return e, nil
}

func (s *Service) ListMedics(ctx context.Context) ([]Employee, error) {
	medics, err := s.repo.ListMedics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list medics: %w", err)
	}
	return medics, nil
}

// UpdateMedic applies a partial update to a medic record.
func (s *Service) UpdateMedic(ctx context.Context, rut string, patch EmployeePatch) (*Employee, error) {
	e, err := s.GetMedic(ctx, rut)
	if err != nil {
		return nil, err
	}

	next := *e
	applyString(&next.FirstName, patch.FirstName)
	applyString(&next.LastName, patch.LastName)
	applyString(&next.Email, patch.Email)
	applyInt(&next.Phone, patch.Phone)
	if patch.SpecialtyID != nil {
		next.SpecialtyID = patch.SpecialtyID
	}
	if patch.Password != nil {
		hash, err := hashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		next.PasswordHash = hash
	}

	if equalEmployees(next, *e) {
		return nil, ErrNoChange
	}

	rows, err := s.repo.UpdateEmployee(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("update medic: %w", err)
	}
	if rows == 0 {
		return nil, ErrNoChange
	}
	return &next, nil
}

func equalEmployees(a, b Employee) bool {
	sameSpecialty := (a.SpecialtyID == nil && b.SpecialtyID == nil) ||
		(a.SpecialtyID != nil && b.SpecialtyID != nil && *a.SpecialtyID == *b.SpecialtyID)
	a.SpecialtyID, b.SpecialtyID = nil, nil
	return sameSpecialty && a == b
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
