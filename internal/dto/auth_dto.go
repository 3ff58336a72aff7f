package dto

import (
	"time"

	"github.com/google/uuid"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// LoginRequest accepts either the username or the e-mail in Username.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegistroRequest struct {
	Nombre   string `json:"nombre"   validate:"required,min=2,max=100"`
	Apellido string `json:"apellido" validate:"required,min=2,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

// Actor identifies who performs an operation, for the audit log.
// UsuarioID is nil for anonymous requests such as login.
type Actor struct {
	UsuarioID *uuid.UUID
	IP        string
	UserAgent string
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	UUIDUsuario string     `json:"uuid_usuario"`
	Nombre      string     `json:"nombre"`
	Apellido    string     `json:"apellido"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"is_active"`
	LastLogin   *time.Time `json:"last_login"`
	CreatedOn   time.Time  `json:"created_on"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"` // seconds
	User        UsuarioResponse `json:"user"`
}

type MensajeResponse struct {
	Message string `json:"message"`
}
