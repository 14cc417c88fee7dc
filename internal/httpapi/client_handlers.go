package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tradedesk.app/internal/auth"
	"tradedesk.app/internal/oauthflow"
)

func (a *API) handleGenerateAuthLink(w http.ResponseWriter, r *http.Request) {
	advisor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req oauthflow.LinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	link, err := a.links.GenerateAuthLink(r.Context(), advisor, req)
	if err != nil {
		if errors.Is(err, oauthflow.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, strings.TrimPrefix(err.Error(), oauthflow.ErrInvalidInput.Error()+": "))
			return
		}
		a.logger.Error("generate auth link failed", zap.String("client_email", req.ClientEmail), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to generate authorization link")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authUrl": link,
	})
}

func (a *API) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	outcome, err := a.links.HandleCallback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		switch {
		case errors.Is(err, oauthflow.ErrCallback):
			if reason := q.Get("error"); reason != "" {
				a.logger.Info("authorization declined", zap.String("reason", reason))
			}
			writePage(w, http.StatusBadRequest, pageBadCallback)
		default:
			a.logger.Error("oauth callback failed", zap.Error(err))
			writePage(w, http.StatusInternalServerError, pageFailed)
		}
		return
	}

	switch outcome {
	case oauthflow.OutcomeLinked:
		writePage(w, http.StatusOK, pageLinked)
	case oauthflow.OutcomeNoRefreshToken:
		writePage(w, http.StatusOK, pageNoRefreshToken)
	case oauthflow.OutcomeUnknownClient:
		writePage(w, http.StatusNotFound, pageUnknownClient)
	default:
		writePage(w, http.StatusInternalServerError, pageFailed)
	}
}
