// Package oauthflow links clients to the advisor's desk through delegated
// mail-send authorization.
package oauthflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tradedesk.app/internal/audit"
	"tradedesk.app/internal/auth"
	"tradedesk.app/internal/obs"
	"tradedesk.app/internal/registry"
)

var (
	ErrInvalidInput = errors.New("oauthflow: invalid input")
	// ErrCallback reports a callback without a code or state.
	ErrCallback = errors.New("oauthflow: invalid callback")
	// ErrExchange reports that the provider rejected or failed the code exchange.
	ErrExchange = errors.New("oauthflow: code exchange failed")
)

// Outcome is the result of a callback that did not fail.
type Outcome string

const (
	OutcomeLinked         Outcome = "linked"
	OutcomeNoRefreshToken Outcome = "no_refresh_token"
	OutcomeUnknownClient  Outcome = "unknown_client"
)

// Grant is the token set returned by a code exchange.
type Grant struct {
	RefreshToken string
}

// Provider is the external authorization server.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Grant, error)
}

// Sealer encrypts credentials before they are stored.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
}

// LinkRequest names the client an advisor wants to onboard.
type LinkRequest struct {
	Name        string `json:"clientName" validate:"required,max=255"`
	ClientEmail string `json:"clientEmail" validate:"required,email,max=254"`
	BrokerEmail string `json:"brokerEmail" validate:"required,email,max=254"`
}

var validate = validator.New()

// Coordinator drives link issuance and callback handling.
type Coordinator struct {
	provider Provider
	clients  registry.Store
	sealer   Sealer
	logger   *zap.Logger
}

func NewCoordinator(provider Provider, clients registry.Store, sealer Sealer, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{provider: provider, clients: clients, sealer: sealer, logger: logger}
}

// GenerateAuthLink registers the client if it is new and returns the consent
// URL whose state is the client email.
func (c *Coordinator) GenerateAuthLink(ctx context.Context, advisor auth.Identity, req LinkRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ClientEmail = registry.NormalizeEmail(req.ClientEmail)
	req.BrokerEmail = strings.TrimSpace(req.BrokerEmail)
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: clientName, clientEmail and brokerEmail are required", ErrInvalidInput)
	}
	if err := c.clients.Register(ctx, req.Name, req.ClientEmail, req.BrokerEmail); err != nil {
		return "", err
	}
	link := c.provider.AuthCodeURL(req.ClientEmail)
	_ = audit.LogEvent(ctx, c.logger, "oauth.link.issued",
		zap.String("advisor_email", advisor.Email),
		zap.String("client_email", req.ClientEmail),
	)
	return link, nil
}

// HandleCallback exchanges code and stores the encrypted refresh token on the
// client named by state.
func (c *Coordinator) HandleCallback(ctx context.Context, code, state string) (Outcome, error) {
	code = strings.TrimSpace(code)
	state = strings.TrimSpace(state)
	if code == "" || state == "" {
		obs.RecordAuthorization("invalid")
		return "", ErrCallback
	}

	grant, err := c.provider.Exchange(ctx, code)
	if err != nil {
		c.logger.Error("oauth code exchange failed", zap.String("client_email", state), zap.Error(err))
		obs.RecordAuthorization("exchange_failed")
		return "", fmt.Errorf("%w: %v", ErrExchange, err)
	}
	if grant.RefreshToken == "" {
		c.logger.Warn("oauth grant without refresh token", zap.String("client_email", state))
		obs.RecordAuthorization(string(OutcomeNoRefreshToken))
		return OutcomeNoRefreshToken, nil
	}

	sealed, err := c.sealer.Encrypt(grant.RefreshToken)
	if err != nil {
		obs.RecordAuthorization("error")
		return "", fmt.Errorf("encrypt refresh token: %w", err)
	}
	attached, err := c.clients.AttachCredential(ctx, state, sealed)
	if err != nil {
		obs.RecordAuthorization("error")
		return "", err
	}
	if !attached {
		c.logger.Warn("oauth callback for unknown client", zap.String("client_email", state))
		obs.RecordAuthorization(string(OutcomeUnknownClient))
		return OutcomeUnknownClient, nil
	}

	obs.RecordAuthorization(string(OutcomeLinked))
	_ = audit.LogEvent(ctx, c.logger, "oauth.client.linked", zap.String("client_email", state))
	return OutcomeLinked, nil
}
