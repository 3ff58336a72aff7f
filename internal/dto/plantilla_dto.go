package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MioNatsuki/sistema-emision/internal/canvas"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PlantillaCreateRequest struct {
	NombrePlantilla string           `json:"nombre_plantilla" validate:"required,min=3,max=200"`
	Descripcion     *string          `json:"descripcion"`
	UUIDProyecto    string           `json:"uuid_proyecto"    validate:"required,uuid"`
	UUIDPadron      string           `json:"uuid_padron"      validate:"required,uuid"`
	CanvasConfig    json.RawMessage  `json:"canvas_config"    validate:"required"`
	AnchoCanvas     *decimal.Decimal `json:"ancho_canvas"`
	AltoCanvas      *decimal.Decimal `json:"alto_canvas"`
}

// PlantillaUpdateRequest has patch semantics: absent fields are left
// untouched. CanvasConfig is nil when absent and "null" when sent as null;
// an explicit null descripcion clears it.
type PlantillaUpdateRequest struct {
	NombrePlantilla *string          `json:"nombre_plantilla" validate:"omitempty,min=3,max=200"`
	Descripcion     Opcional[string] `json:"descripcion"      swaggertype:"string"`
	CanvasConfig    json.RawMessage  `json:"canvas_config"`
	AnchoCanvas     *decimal.Decimal `json:"ancho_canvas"`
	AltoCanvas      *decimal.Decimal `json:"alto_canvas"`
}

// Campos lists the JSON names of the fields present in the request.
func (r PlantillaUpdateRequest) Campos() []string {
	var out []string
	if r.NombrePlantilla != nil {
		out = append(out, "nombre_plantilla")
	}
	if r.Descripcion.Set {
		out = append(out, "descripcion")
	}
	if r.CanvasConfig != nil {
		out = append(out, "canvas_config")
	}
	if r.AnchoCanvas != nil {
		out = append(out, "ancho_canvas")
	}
	if r.AltoCanvas != nil {
		out = append(out, "alto_canvas")
	}
	return out
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PlantillaResponse struct {
	UUIDPlantilla   string          `json:"uuid_plantilla"`
	NombrePlantilla string          `json:"nombre_plantilla"`
	Descripcion     *string         `json:"descripcion"`
	UUIDProyecto    string          `json:"uuid_proyecto"`
	NombreProyecto  *string         `json:"nombre_proyecto"`
	UUIDPadron      string          `json:"uuid_padron"`
	NombrePadron    *string         `json:"nombre_padron"`
	CanvasConfig    canvas.Config   `json:"canvas_config"`
	AnchoCanvas     decimal.Decimal `json:"ancho_canvas"`
	AltoCanvas      decimal.Decimal `json:"alto_canvas"`
	ThumbnailPath   *string         `json:"thumbnail_path"`
	Version         int             `json:"version"`
	CreatedOn       time.Time       `json:"created_on"`
	UpdatedOn       time.Time       `json:"updated_on"`
}

type PreviewResponse struct {
	Datos   map[string]any `json:"datos"`
	Mensaje string         `json:"mensaje,omitempty"`
}
