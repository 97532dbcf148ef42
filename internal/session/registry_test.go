package session

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/medagenda/clinic-backend/internal/auth"
)

type fakeStore struct {
	persisted map[subjectKey]string
	loadErr   error
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{persisted: make(map[subjectKey]string)}
}

func (f *fakeStore) LoadAll(context.Context) ([]PersistedToken, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var out []PersistedToken
	for k, token := range f.persisted {
		out = append(out, PersistedToken{Token: token, SubjectID: k.subjectID, Role: k.role})
	}
	return out, nil
}

func (f *fakeStore) SaveToken(_ context.Context, subjectID string, role auth.Role, token string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.persisted[subjectKey{subjectID, role}] = token
	return nil
}

func (f *fakeStore) ClearToken(_ context.Context, subjectID string, role auth.Role) error {
	delete(f.persisted, subjectKey{subjectID, role})
	return nil
}

var tokenShape = regexp.MustCompile(`^[A-Za-z0-9_-]{86}$`)

func TestIssueLookupRevoke(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(newFakeStore())

	token, err := reg.Issue(ctx, "12345678-5", auth.RoleMedic)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !tokenShape.MatchString(token) {
		t.Fatalf("token %q does not match the 86-char base64url shape", token)
	}

	id, ok := reg.Lookup(token)
	if !ok {
		t.Fatal("lookup after issue: token not found")
	}
	if id.SubjectID != "12345678-5" || id.Role != auth.RoleMedic {
		t.Errorf("lookup = %+v, want subject 12345678-5 role medic", id)
	}

	if err := reg.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, ok := reg.Lookup(token); ok {
		t.Error("lookup after revoke: token still present")
	}

	// Revoking an unknown token is a no-op.
	if err := reg.Revoke(ctx, token); err != nil {
		t.Errorf("revoke unknown token: %v", err)
	}
}

func TestReissueDropsPreviousToken(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	reg := NewRegistry(store)

	first, err := reg.Issue(ctx, "12345678-5", auth.RolePatient)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := reg.Issue(ctx, "12345678-5", auth.RolePatient)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if first == second {
		t.Fatal("re-issue returned the same token")
	}

	if _, ok := reg.Lookup(first); ok {
		t.Error("previous token still resolvable after re-issue")
	}
	if _, ok := reg.Lookup(second); !ok {
		t.Error("current token not resolvable")
	}
	if got := store.persisted[subjectKey{"12345678-5", auth.RolePatient}]; got != second {
		t.Errorf("persisted token = %q, want the re-issued one", got)
	}
}

func TestConcurrentSessionsPerSubjectAcrossRoles(t *testing.T) {
	// The same natural person may hold a patient session and a medic session
	// at once; only same-role re-issue replaces.
	ctx := context.Background()
	reg := NewRegistry(newFakeStore())

	asPatient, _ := reg.Issue(ctx, "12345678-5", auth.RolePatient)
	asMedic, _ := reg.Issue(ctx, "12345678-5", auth.RoleMedic)

	if _, ok := reg.Lookup(asPatient); !ok {
		t.Error("patient session dropped by medic login")
	}
	if _, ok := reg.Lookup(asMedic); !ok {
		t.Error("medic session not resolvable")
	}
}

func TestInitRebuildsFromStore(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	first := NewRegistry(store)
	token, err := first.Issue(ctx, "14000006-K", auth.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Simulate a restart: fresh registry, same store.
	second := NewRegistry(store)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	id, ok := second.Lookup(token)
	if !ok {
		t.Fatal("token not recovered after restart")
	}
	if id.Role != auth.RoleAdmin || id.SubjectID != "14000006-K" {
		t.Errorf("recovered identity = %+v", id)
	}
}

func TestIssuePropagatesStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("connection refused")
	reg := NewRegistry(store)

	if _, err := reg.Issue(context.Background(), "12345678-5", auth.RolePatient); err == nil {
		t.Fatal("expected persistence error to propagate")
	}
	// Nothing must be registered when persistence failed.
	if len(reg.byToken) != 0 {
		t.Error("registry entry created despite persistence failure")
	}
}
