// Package registry holds the advisor's clients and their encrypted delegation credentials.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned for missing, inactive, or credential-less clients alike.
var ErrNotFound = errors.New("registry: client not found")

// NormalizeEmail returns the registry key for a client email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ActiveClient is what dispatch needs to act for a client.
type ActiveClient struct {
	ClientEmail         string
	BrokerEmail         string
	EncryptedCredential string
}

// Store persists client records.
type Store interface {
	Register(ctx context.Context, name, clientEmail, brokerEmail string) error
	AttachCredential(ctx context.Context, clientEmail, encrypted string) (bool, error)
	LookupActive(ctx context.Context, clientEmail string) (ActiveClient, error)
	Deactivate(ctx context.Context, clientEmail string) (bool, error)
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*Memory)(nil)
)

// PGStore implements Store on the clients table.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Register inserts the client unless the email is already known.
func (s *PGStore) Register(ctx context.Context, name, clientEmail, brokerEmail string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into clients(client_name, client_email, broker_email) values($1,$2,$3)
		 on conflict (client_email) do nothing`,
		name, clientEmail, brokerEmail,
	)
	if err != nil {
		return fmt.Errorf("register client: %w", err)
	}
	return nil
}

// AttachCredential stores the encrypted credential and reactivates the client.
// It reports false when no client matched.
func (s *PGStore) AttachCredential(ctx context.Context, clientEmail, encrypted string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`update clients set encrypted_refresh_token=$1, is_active=true, updated_at=now() where client_email=$2`,
		encrypted, clientEmail,
	)
	if err != nil {
		return false, fmt.Errorf("attach credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("attach credential: %w", err)
	}
	return n > 0, nil
}

func (s *PGStore) LookupActive(ctx context.Context, clientEmail string) (ActiveClient, error) {
	c := ActiveClient{ClientEmail: clientEmail}
	err := s.db.QueryRowContext(ctx,
		`select broker_email, encrypted_refresh_token from clients
		 where client_email=$1 and is_active = true and encrypted_refresh_token is not null`,
		clientEmail,
	).Scan(&c.BrokerEmail, &c.EncryptedCredential)
	if errors.Is(err, sql.ErrNoRows) {
		return ActiveClient{}, ErrNotFound
	}
	if err != nil {
		return ActiveClient{}, fmt.Errorf("lookup client: %w", err)
	}
	return c, nil
}

func (s *PGStore) Deactivate(ctx context.Context, clientEmail string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`update clients set is_active=false, updated_at=now() where client_email=$1`, clientEmail)
	if err != nil {
		return false, fmt.Errorf("deactivate client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate client: %w", err)
	}
	return n > 0, nil
}

type record struct {
	name        string
	brokerEmail string
	credential  string
	active      bool
	createdAt   time.Time
	updatedAt   time.Time
}

// Memory keeps clients in process memory.
type Memory struct {
	mu      sync.RWMutex
	clients map[string]*record
}

func NewMemory() *Memory {
	return &Memory{clients: make(map[string]*record)}
}

func (m *Memory) Register(ctx context.Context, name, clientEmail, brokerEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[clientEmail]; ok {
		return nil
	}
	now := time.Now().UTC()
	m.clients[clientEmail] = &record{name: name, brokerEmail: brokerEmail, active: true, createdAt: now, updatedAt: now}
	return nil
}

func (m *Memory) AttachCredential(ctx context.Context, clientEmail, encrypted string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.clients[clientEmail]
	if !ok {
		return false, nil
	}
	r.credential = encrypted
	r.active = true
	r.updatedAt = time.Now().UTC()
	return true, nil
}

func (m *Memory) LookupActive(ctx context.Context, clientEmail string) (ActiveClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.clients[clientEmail]
	if !ok || !r.active || strings.TrimSpace(r.credential) == "" {
		return ActiveClient{}, ErrNotFound
	}
	return ActiveClient{ClientEmail: clientEmail, BrokerEmail: r.brokerEmail, EncryptedCredential: r.credential}, nil
}

func (m *Memory) Deactivate(ctx context.Context, clientEmail string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.clients[clientEmail]
	if !ok {
		return false, nil
	}
	r.active = false
	r.updatedAt = time.Now().UTC()
	return true, nil
}
