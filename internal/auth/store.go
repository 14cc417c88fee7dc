package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"tradedesk.app/internal/store/pg"
)

// AdvisorStore persists advisor accounts.
type AdvisorStore interface {
	Create(ctx context.Context, a *Advisor) error
	FindByEmail(ctx context.Context, email string) (*Advisor, error)
}

var (
	_ AdvisorStore = (*PGAdvisorStore)(nil)
	_ AdvisorStore = (*MemoryAdvisorStore)(nil)
)

// PGAdvisorStore implements AdvisorStore on the advisors table.
type PGAdvisorStore struct {
	db *sql.DB
}

func NewPGAdvisorStore(db *sql.DB) *PGAdvisorStore {
	return &PGAdvisorStore{db: db}
}

func (s *PGAdvisorStore) Create(ctx context.Context, a *Advisor) error {
	err := s.db.QueryRowContext(ctx,
		`insert into advisors(id, email, password_hash, full_name) values($1,$2,$3,$4) returning created_at`,
		a.ID, a.Email, a.PasswordHash, a.FullName,
	).Scan(&a.CreatedAt)
	if pg.IsUniqueViolation(err) {
		return ErrAdvisorExists
	}
	return err
}

func (s *PGAdvisorStore) FindByEmail(ctx context.Context, email string) (*Advisor, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, password_hash, full_name, created_at from advisors where email=$1`, email)
	var a Advisor
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// MemoryAdvisorStore keeps advisors in process memory. Used by tests and local runs.
type MemoryAdvisorStore struct {
	mu       sync.RWMutex
	advisors map[string]Advisor
}

func NewMemoryAdvisorStore() *MemoryAdvisorStore {
	return &MemoryAdvisorStore{advisors: make(map[string]Advisor)}
}

func (s *MemoryAdvisorStore) Create(ctx context.Context, a *Advisor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(a.Email)
	if _, ok := s.advisors[key]; ok {
		return ErrAdvisorExists
	}
	a.CreatedAt = time.Now().UTC()
	s.advisors[key] = *a
	return nil
}

func (s *MemoryAdvisorStore) FindByEmail(ctx context.Context, email string) (*Advisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.advisors[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}
