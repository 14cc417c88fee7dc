package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

const maxListLimit = 500

// Entry is one confirmed trade dispatch. Entries are append-only.
type Entry struct {
	ID                string    `json:"id"`
	AdvisorIdentifier string    `json:"advisorIdentifier"`
	ClientEmail       string    `json:"clientEmail"`
	BrokerEmail       string    `json:"brokerEmail"`
	MessageID         string    `json:"gmailMessageId"`
	TradeDetails      string    `json:"tradeDetails"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Store persists audit entries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	ListByAdvisor(ctx context.Context, advisor string, limit int) ([]Entry, error)
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*Memory)(nil)
)

func validate(e Entry) error {
	switch {
	case strings.TrimSpace(e.ID) == "":
		return errors.New("audit: id is required")
	case strings.TrimSpace(e.AdvisorIdentifier) == "":
		return errors.New("audit: advisor identifier is required")
	case strings.TrimSpace(e.MessageID) == "":
		return errors.New("audit: message id is required")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// PGStore writes to the audit_logs table.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Append(ctx context.Context, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`insert into audit_logs(id, advisor_identifier, client_email, broker_email, gmail_message_id, trade_details, created_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.AdvisorIdentifier, e.ClientEmail, e.BrokerEmail, e.MessageID, e.TradeDetails, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *PGStore) ListByAdvisor(ctx context.Context, advisor string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, advisor_identifier, client_email, broker_email, gmail_message_id, trade_details, created_at
		 from audit_logs where advisor_identifier=$1 order by created_at desc, id desc limit $2`,
		advisor, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AdvisorIdentifier, &e.ClientEmail, &e.BrokerEmail, &e.MessageID, &e.TradeDetails, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Memory keeps entries in process memory.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(ctx context.Context, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.entries {
		if existing.ID == e.ID {
			return fmt.Errorf("audit: duplicate id %s", e.ID)
		}
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) ListByAdvisor(ctx context.Context, advisor string, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0)
	for _, e := range m.entries {
		if e.AdvisorIdentifier == advisor {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Len reports how many entries are held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
