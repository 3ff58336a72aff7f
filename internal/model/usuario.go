package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/MioNatsuki/sistema-emision/internal/lockout"
)

// Usuario is an operator of the administrative client. Users are never
// hard-deleted; IsDeleted hides them.
type Usuario struct {
	IDUsuario  int       `gorm:"column:id_usuario;primaryKey;autoIncrement"`
	UUID       uuid.UUID `gorm:"column:uuid_usuario;type:uuid;uniqueIndex;not null;default:gen_random_uuid()"`
	Nombre     string    `gorm:"not null"`
	Apellido   string    `gorm:"not null"`
	Username   string    `gorm:"uniqueIndex;not null"`
	Email      string    `gorm:"uniqueIndex;not null"`
	Contrasena string    `gorm:"not null"` // bcrypt hash
	IsActive   bool      `gorm:"not null"`
	IsDeleted  bool      `gorm:"not null"`

	IntentosLoginFallidos int `gorm:"not null"`
	UltimoIntentoLogin    *time.Time
	BloqueadoHasta        *time.Time
	LastLogin             *time.Time

	CreatedOn time.Time `gorm:"column:created_on;autoCreateTime"`
	UpdatedOn time.Time `gorm:"column:updated_on;autoUpdateTime"`
}

func (Usuario) TableName() string { return "usuarios" }

// Bloqueo returns the lockout state stored on the user.
func (u *Usuario) Bloqueo() lockout.Estado {
	return lockout.Estado{
		IntentosFallidos: u.IntentosLoginFallidos,
		UltimoIntento:    u.UltimoIntentoLogin,
		BloqueadoHasta:   u.BloqueadoHasta,
	}
}

// AplicarBloqueo writes a lockout state back onto the user.
func (u *Usuario) AplicarBloqueo(e lockout.Estado) {
	u.IntentosLoginFallidos = e.IntentosFallidos
	u.UltimoIntentoLogin = e.UltimoIntento
	u.BloqueadoHasta = e.BloqueadoHasta
}
