package session

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medagenda/clinic-backend/internal/auth"
)

// PgStore persists session tokens on the patient and employee rows
// themselves (one current token per subject).
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// LoadAll scans the session_token columns of both subject tables. The role is
// classified by which table the token came from and, for employees, by the
// row's role column.
func (s *PgStore) LoadAll(ctx context.Context) ([]PersistedToken, error) {
	var out []PersistedToken

	rows, err := s.pool.Query(ctx, `
		SELECT rut, session_token
		FROM patients
		WHERE session_token IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("scan patient tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p PersistedToken
		if err := rows.Scan(&p.SubjectID, &p.Token); err != nil {
			return nil, err
		}
		p.Role = auth.RolePatient
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	rows, err = s.pool.Query(ctx, `
		SELECT rut, session_token, role
		FROM employees
		WHERE session_token IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("scan employee tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p PersistedToken
		var role string
		if err := rows.Scan(&p.SubjectID, &p.Token, &role); err != nil {
			return nil, err
		}
		p.Role = auth.Role(role)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *PgStore) SaveToken(ctx context.Context, subjectID string, role auth.Role, token string) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET session_token = $1
		WHERE rut = $2
	`, tableFor(role)), token, subjectID)
	if err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

func (s *PgStore) ClearToken(ctx context.Context, subjectID string, role auth.Role) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET session_token = NULL
		WHERE rut = $1
	`, tableFor(role)), subjectID)
	if err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

func tableFor(role auth.Role) string {
	if role == auth.RolePatient {
		return "patients"
	}
	return "employees"
}
