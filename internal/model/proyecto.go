package model

import (
	"time"

	"github.com/google/uuid"
)

// Proyecto groups the templates issued over one padrón.
// While EnEmision is true the project is frozen.
type Proyecto struct {
	IDProyecto     int       `gorm:"column:id_proyecto;primaryKey;autoIncrement"`
	UUID           uuid.UUID `gorm:"column:uuid_proyecto;type:uuid;uniqueIndex;not null;default:gen_random_uuid()"`
	NombreProyecto string    `gorm:"not null"`
	Descripcion    *string
	LogoProyecto   *string
	UUIDPadron     uuid.UUID  `gorm:"column:uuid_padron;type:uuid;not null"`
	UsuarioCreador *uuid.UUID `gorm:"type:uuid"`
	EnEmision      bool       `gorm:"not null"`
	IsDeleted      bool       `gorm:"not null"`
	CreatedOn      time.Time  `gorm:"column:created_on;autoCreateTime"`
	UpdatedOn      time.Time  `gorm:"column:updated_on;autoUpdateTime"`
}

func (Proyecto) TableName() string { return "proyectos" }

// ProyectoDetalle is a project joined with its padrón name.
type ProyectoDetalle struct {
	Proyecto
	NombrePadron *string
}
