package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tradedesk.app/internal/audit"
	"tradedesk.app/internal/auth"
)

type createAdvisorRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (a *API) handleCreateAdvisor(w http.ResponseWriter, r *http.Request) {
	var req createAdvisorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	advisor, err := a.accounts.CreateAdvisor(r.Context(), auth.NewAdvisor{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, strings.TrimPrefix(err.Error(), auth.ErrInvalidInput.Error()+": "))
		return
	case errors.Is(err, auth.ErrAdvisorExists):
		writeError(w, r, http.StatusConflict, "advisor already exists")
		return
	default:
		a.logger.Error("create advisor failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to create advisor")
		return
	}

	_ = audit.LogEvent(r.Context(), a.logger, "advisor.created",
		zap.String("advisor_id", advisor.ID),
		zap.String("advisor_email", advisor.Email),
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Advisor Created Successfully",
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, _, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusBadRequest, "invalid email or password")
			return
		}
		a.logger.Error("login failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   token,
	})
}
