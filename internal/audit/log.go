package audit

import (
	"context"
	"errors"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tradedesk.app/internal/auth"
)

// LogEvent writes a structured audit event enriched with request and advisor context.
func LogEvent(ctx context.Context, logger *zap.Logger, event string, fields ...zap.Field) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	if logger == nil {
		return nil
	}
	out := make([]zap.Field, 0, len(fields)+4)
	out = append(out, zap.String("type", "audit"), zap.String("event", event))
	if rid := middleware.GetReqID(ctx); rid != "" {
		out = append(out, zap.String("request_id", rid))
	}
	if id, ok := auth.IdentityFromContext(ctx); ok {
		out = append(out, zap.String("advisor_id", id.AdvisorID))
	}
	out = append(out, fields...)
	logger.Info("audit", out...)
	return nil
}
