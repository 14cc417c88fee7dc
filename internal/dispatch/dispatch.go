// Package dispatch sends trade instructions on a client's behalf and records
// each confirmed send in the audit log.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tradedesk.app/internal/audit"
	"tradedesk.app/internal/auth"
	"tradedesk.app/internal/ids"
	"tradedesk.app/internal/obs"
	"tradedesk.app/internal/registry"
)

var (
	ErrInvalidInput      = errors.New("dispatch: clientEmail and tradeDetails are required")
	ErrClientNotFound    = errors.New("dispatch: client not found or not authorized")
	ErrCredentialCorrupt = errors.New("dispatch: stored credential cannot be decrypted")
	ErrDispatch          = errors.New("dispatch: sending trade instruction failed")
	ErrSentNotLogged     = errors.New("dispatch: trade sent but audit log write failed")
)

const auditWriteTimeout = 10 * time.Second

// SentNotLoggedError is returned when the provider confirmed the send but the
// audit entry could not be written.
type SentNotLoggedError struct {
	MessageID string
	Broker    string
	Err       error
}

func (e *SentNotLoggedError) Error() string {
	return fmt.Sprintf("%s (message %s): %v", ErrSentNotLogged, e.MessageID, e.Err)
}

func (e *SentNotLoggedError) Is(target error) bool { return target == ErrSentNotLogged }

func (e *SentNotLoggedError) Unwrap() error { return e.Err }

// Mailer delivers a raw message using a client's refresh token.
type Mailer interface {
	Send(ctx context.Context, refreshToken, raw string) (string, error)
}

// Opener decrypts stored credentials.
type Opener interface {
	Decrypt(envelope string) (string, error)
}

// Receipt identifies a confirmed and logged send.
type Receipt struct {
	MessageID string
	Broker    string
}

// Pipeline is the trade dispatch pipeline.
type Pipeline struct {
	clients registry.Store
	opener  Opener
	mailer  Mailer
	log     audit.Store
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source used for audit timestamps.
func WithClock(fn func() time.Time) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.now = fn
		}
	}
}

func NewPipeline(clients registry.Store, opener Opener, mailer Mailer, log audit.Store, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{clients: clients, opener: opener, mailer: mailer, log: log, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dispatch sends tradeDetails to the client's broker and appends an audit entry
// attributed to the advisor. An entry exists if and only if the send was confirmed.
func (p *Pipeline) Dispatch(ctx context.Context, advisor auth.Identity, clientEmail, tradeDetails string) (Receipt, error) {
	clientEmail = registry.NormalizeEmail(clientEmail)
	if clientEmail == "" || strings.TrimSpace(tradeDetails) == "" {
		obs.RecordTrade("invalid")
		return Receipt{}, ErrInvalidInput
	}
	if strings.TrimSpace(advisor.Email) == "" {
		return Receipt{}, auth.ErrAuthMissing
	}

	client, err := p.clients.LookupActive(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			obs.RecordTrade("client_not_found")
			return Receipt{}, ErrClientNotFound
		}
		obs.RecordTrade("error")
		return Receipt{}, fmt.Errorf("lookup client: %w", err)
	}

	refreshToken, err := p.opener.Decrypt(client.EncryptedCredential)
	if err != nil {
		p.logger.Error("stored credential failed to decrypt", zap.String("client_email", clientEmail), zap.Error(err))
		obs.RecordTrade("credential_corrupt")
		return Receipt{}, fmt.Errorf("%w: %v", ErrCredentialCorrupt, err)
	}

	raw := EncodeRaw(BuildMessage(client.BrokerEmail, tradeDetails))
	messageID, err := p.mailer.Send(ctx, refreshToken, raw)
	if err != nil {
		p.logger.Error("trade send failed", zap.String("client_email", clientEmail), zap.Error(err))
		obs.RecordTrade("send_failed")
		return Receipt{}, fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	receipt := Receipt{MessageID: messageID, Broker: client.BrokerEmail}
	now := p.now().UTC()
	entry := audit.Entry{
		ID:                ids.At(now),
		AdvisorIdentifier: advisor.Email,
		ClientEmail:       clientEmail,
		BrokerEmail:       client.BrokerEmail,
		MessageID:         messageID,
		TradeDetails:      tradeDetails,
		CreatedAt:         now,
	}
	// The send is confirmed; the caller going away must not lose the entry.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if err := p.log.Append(auditCtx, entry); err != nil {
		p.logger.Error("trade sent but audit write failed",
			zap.String("message_id", messageID),
			zap.String("client_email", clientEmail),
			zap.String("advisor_email", advisor.Email),
			zap.Error(err),
		)
		obs.RecordTrade("sent_not_logged")
		return receipt, &SentNotLoggedError{MessageID: messageID, Broker: client.BrokerEmail, Err: err}
	}

	obs.RecordTrade("sent")
	_ = audit.LogEvent(ctx, p.logger, "trade.sent",
		zap.String("audit_id", entry.ID),
		zap.String("message_id", messageID),
		zap.String("client_email", clientEmail),
	)
	return receipt, nil
}
