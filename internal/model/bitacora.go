package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Acciones registradas en la bitácora.
const (
	AccionLoginExitoso      = "LOGIN_EXITOSO"
	AccionLoginFallido      = "LOGIN_FALLIDO"
	AccionLogout            = "LOGOUT"
	AccionRegistroUsuario   = "REGISTRO_USUARIO"
	AccionCrearProyecto     = "CREAR_PROYECTO"
	AccionEditarProyecto    = "EDITAR_PROYECTO"
	AccionEliminarProyecto  = "ELIMINAR_PROYECTO"
	AccionSubirLogo         = "SUBIR_LOGO"
	AccionCrearPlantilla    = "CREAR_PLANTILLA"
	AccionEditarPlantilla   = "EDITAR_PLANTILLA"
	AccionEliminarPlantilla = "ELIMINAR_PLANTILLA"
)

const (
	EntidadUsuario   = "USUARIO"
	EntidadProyecto  = "PROYECTO"
	EntidadPlantilla = "PLANTILLA"
)

// Bitacora is an append-only audit row.
type Bitacora struct {
	IDBitacora   int        `gorm:"column:id_bitacora;primaryKey;autoIncrement"`
	UUIDUsuario  *uuid.UUID `gorm:"column:uuid_usuario;type:uuid;index"`
	Accion       string     `gorm:"not null;index"`
	Entidad      string     `gorm:"not null"`
	EntidadID    *string
	Detalles     datatypes.JSON `gorm:"type:jsonb"`
	IPAddress    *string
	UserAgent    *string
	FueExitoso   bool      `gorm:"not null"`
	MensajeError *string
	CreatedOn    time.Time `gorm:"column:created_on;autoCreateTime"`
}

func (Bitacora) TableName() string { return "bitacora" }
