package clinic

import "errors"

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrDuplicateRut     = errors.New("an account with this rut already exists")
	ErrBadCredentials   = errors.New("rut or password do not match")
	ErrNoChange         = errors.New("update changes nothing")
)
