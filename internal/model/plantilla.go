package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MioNatsuki/sistema-emision/internal/canvas"
)

// Page size of a new plantilla, in centimetres.
var (
	AnchoCanvasDefecto = decimal.RequireFromString("21.59")
	AltoCanvasDefecto  = decimal.RequireFromString("34.01")
)

// Plantilla is a printable template. UUIDPadron is stored on its own and is
// not required to match the project's padrón.
type Plantilla struct {
	IDPlantilla     int       `gorm:"column:id_plantilla;primaryKey;autoIncrement"`
	UUID            uuid.UUID `gorm:"column:uuid_plantilla;type:uuid;uniqueIndex;not null;default:gen_random_uuid()"`
	NombrePlantilla string    `gorm:"not null"`
	Descripcion     *string
	UUIDProyecto    uuid.UUID       `gorm:"column:uuid_proyecto;type:uuid;not null;index"`
	UUIDPadron      uuid.UUID       `gorm:"column:uuid_padron;type:uuid;not null"`
	CanvasConfig    canvas.Config   `gorm:"type:jsonb;not null"`
	AnchoCanvas     decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	AltoCanvas      decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	ThumbnailPath   *string
	Version         int       `gorm:"not null"`
	IsDeleted       bool      `gorm:"not null"`
	CreatedOn       time.Time `gorm:"column:created_on;autoCreateTime"`
	UpdatedOn       time.Time `gorm:"column:updated_on;autoUpdateTime"`
}

func (Plantilla) TableName() string { return "plantillas" }

// PlantillaDetalle is a plantilla joined with its project and padrón names.
type PlantillaDetalle struct {
	Plantilla
	NombreProyecto *string
	NombrePadron   *string
}
