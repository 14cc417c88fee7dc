package auth

import "time"

// Advisor is an account allowed to issue trade instructions.
type Advisor struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewAdvisor carries provisioning input.
type NewAdvisor struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
	FullName string `validate:"required,max=255"`
}
