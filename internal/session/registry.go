// Package session maintains the mapping of opaque bearer tokens to
// authenticated identities. The map lives in memory for O(1) lookups on every
// request and is rebuilt from the persistent store at startup.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/medagenda/clinic-backend/internal/auth"
)

const tokenBytes = 64

// PersistedToken is one session token row recovered from the store.
type PersistedToken struct {
	Token     string
	SubjectID string
	Role      auth.Role
}

// Store persists the current session token per subject so sessions survive
// restarts.
type Store interface {
	LoadAll(ctx context.Context) ([]PersistedToken, error)
	SaveToken(ctx context.Context, subjectID string, role auth.Role, token string) error
	ClearToken(ctx context.Context, subjectID string, role auth.Role) error
}

type subjectKey struct {
	subjectID string
	role      auth.Role
}

type Registry struct {
	mu        sync.RWMutex
	byToken   map[string]auth.Identity
	bySubject map[subjectKey]string
	store     Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{
		byToken:   make(map[string]auth.Identity),
		bySubject: make(map[subjectKey]string),
		store:     store,
	}
}

// Init loads every persisted session token into the registry. Call once
// before serving requests.
func (r *Registry) Init(ctx context.Context) error {
	persisted, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load session tokens: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range persisted {
		r.byToken[p.Token] = auth.Identity{Token: p.Token, SubjectID: p.SubjectID, Role: p.Role}
		r.bySubject[subjectKey{p.SubjectID, p.Role}] = p.Token
	}
	return nil
}

// Issue creates a fresh registry-unique token for the subject, persists it as
// the subject's current session token, and registers the mapping. A previous
// token for the same subject is dropped from the registry so re-login cannot
// leave orphaned entries behind.
func (r *Registry) Issue(ctx context.Context, subjectID string, role auth.Role) (string, error) {
	token, err := r.generateUnique()
	if err != nil {
		return "", err
	}

	if err := r.store.SaveToken(ctx, subjectID, role, token); err != nil {
		return "", fmt.Errorf("persist session token: %w", err)
	}

	key := subjectKey{subjectID, role}

	r.mu.Lock()
	if prev, ok := r.bySubject[key]; ok {
		delete(r.byToken, prev)
	}
	r.byToken[token] = auth.Identity{Token: token, SubjectID: subjectID, Role: role}
	r.bySubject[key] = token
	r.mu.Unlock()

	return token, nil
}

// Lookup resolves a token to its identity.
func (r *Registry) Lookup(token string) (auth.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[token]
	return id, ok
}

// Revoke clears the subject's persisted token and removes the registry entry.
// Unknown tokens are a no-op.
func (r *Registry) Revoke(ctx context.Context, token string) error {
	r.mu.RLock()
	id, ok := r.byToken[token]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	if err := r.store.ClearToken(ctx, id.SubjectID, id.Role); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}

	r.mu.Lock()
	delete(r.byToken, token)
	key := subjectKey{id.SubjectID, id.Role}
	if r.bySubject[key] == token {
		delete(r.bySubject, key)
	}
	r.mu.Unlock()

	return nil
}

// generateUnique draws 64 random bytes and encodes them as 86 base64url
// characters, retrying on the (negligible) chance of a registry collision.
func (r *Registry) generateUnique() (string, error) {
	for {
		buf := make([]byte, tokenBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate session token: %w", err)
		}
		token := base64.RawURLEncoding.EncodeToString(buf)

		r.mu.RLock()
		_, taken := r.byToken[token]
		r.mu.RUnlock()
		if !taken {
			return token, nil
		}
	}
}
