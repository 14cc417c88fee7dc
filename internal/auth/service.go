package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tradedesk.app/internal/ids"
)

var validate = validator.New()

// bcrypt rejects longer inputs; the validator's max counts runes.
const maxPasswordBytes = 72

// Service provisions advisors and exchanges their credentials for session tokens.
type Service struct {
	store    AdvisorStore
	sessions *Sessions
	hasher   Hasher
}

// NewService wires the advisor store to session issuance.
func NewService(store AdvisorStore, sessions *Sessions, hasher Hasher) *Service {
	return &Service{store: store, sessions: sessions, hasher: hasher}
}

// Sessions exposes the token verifier used by the session guard.
func (s *Service) Sessions() *Sessions { return s.sessions }

// CreateAdvisor stores a new advisor with a bcrypt-hashed password.
func (s *Service) CreateAdvisor(ctx context.Context, in NewAdvisor) (Advisor, error) {
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validate.Struct(in); err != nil {
		return Advisor{}, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}
	if len(in.Password) > maxPasswordBytes {
		return Advisor{}, fmt.Errorf("%w: password exceeds %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Advisor{}, fmt.Errorf("hash password: %w", err)
	}
	a := Advisor{
		ID:           ids.New(),
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
	}
	if err := s.store.Create(ctx, &a); err != nil {
		return Advisor{}, err
	}
	return a, nil
}

// Login verifies the advisor's password and issues a session token.
// Unknown email and wrong password are both reported as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", time.Time{}, ErrInvalidCredentials
	}
	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}
	if err := s.hasher.Verify(a.PasswordHash, password); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return s.sessions.Issue(*a)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, ", ")
}
