package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tradedesk.app/internal/audit"
	"tradedesk.app/internal/auth"
	"tradedesk.app/internal/dispatch"
)

const (
	auditLogged    = "Logged Successfully"
	auditNotLogged = "NOT LOGGED"
)

type sendTradeRequest struct {
	ClientEmail  string `json:"clientEmail"`
	TradeDetails string `json:"tradeDetails"`
}

type sendTradeResponse struct {
	Success     bool   `json:"success"`
	MessageID   string `json:"messageId"`
	Broker      string `json:"broker"`
	AuditStatus string `json:"auditStatus"`
	Error       string `json:"error,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

func (a *API) handleSendTrade(w http.ResponseWriter, r *http.Request) {
	advisor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req sendTradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := a.trades.Dispatch(r.Context(), advisor, req.ClientEmail, req.TradeDetails)
	if err != nil {
		a.handleDispatchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendTradeResponse{
		Success:     true,
		MessageID:   receipt.MessageID,
		Broker:      receipt.Broker,
		AuditStatus: auditLogged,
	})
}

func (a *API) handleDispatchError(w http.ResponseWriter, r *http.Request, err error) {
	var notLogged *dispatch.SentNotLoggedError
	switch {
	case errors.As(err, &notLogged):
		writeJSON(w, http.StatusInternalServerError, sendTradeResponse{
			Success:     false,
			MessageID:   notLogged.MessageID,
			Broker:      notLogged.Broker,
			AuditStatus: auditNotLogged,
			Error:       "Trade was sent but could not be logged. Contact support.",
			RequestID:   middleware.GetReqID(r.Context()),
		})
	case errors.Is(err, dispatch.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "clientEmail and tradeDetails are required")
	case errors.Is(err, dispatch.ErrClientNotFound):
		writeError(w, r, http.StatusNotFound, "Client not found or inactive.")
	case errors.Is(err, dispatch.ErrCredentialCorrupt):
		writeError(w, r, http.StatusInternalServerError, "Client authorization is unusable. Ask the client to authorize again.")
	case errors.Is(err, auth.ErrAuthMissing):
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
	default:
		if !errors.Is(err, dispatch.ErrDispatch) {
			a.logger.Error("send trade failed", zap.Error(err))
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to send trade.")
	}
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	advisor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), audit.DefaultListLimit, 1, 500)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
		return
	}

	entries, err := a.auditLog.ListByAdvisor(r.Context(), advisor.Email, limit)
	if err != nil {
		a.logger.Error("list audit logs failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to load audit logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": entries,
	})
}
