package dto

import (
	"io"
	"time"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ProyectoCreateRequest struct {
	NombreProyecto string  `json:"nombre_proyecto" validate:"required,min=3,max=200"`
	Descripcion    *string `json:"descripcion"`
	UUIDPadron     string  `json:"uuid_padron"     validate:"required,uuid"`
}

// ProyectoUpdateRequest has patch semantics: absent fields are left
// untouched. An explicit null descripcion clears it.
type ProyectoUpdateRequest struct {
	NombreProyecto *string          `json:"nombre_proyecto" validate:"omitempty,min=3,max=200"`
	Descripcion    Opcional[string] `json:"descripcion"     swaggertype:"string"`
	UUIDPadron     *string          `json:"uuid_padron"     validate:"omitempty,uuid"`
}

// ArchivoLogo is an uploaded logo as received by the handler.
type ArchivoLogo struct {
	Nombre      string
	ContentType string
	Tamano      int64
	Contenido   io.Reader
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PadronResponse struct {
	UUIDPadron   string  `json:"uuid_padron"`
	NombrePadron string  `json:"nombre_padron"`
	Descripcion  *string `json:"descripcion"`
}

type ProyectoResponse struct {
	UUIDProyecto   string    `json:"uuid_proyecto"`
	NombreProyecto string    `json:"nombre_proyecto"`
	Descripcion    *string   `json:"descripcion"`
	LogoProyecto   *string   `json:"logo_proyecto"`
	UUIDPadron     string    `json:"uuid_padron"`
	NombrePadron   *string   `json:"nombre_padron"`
	UsuarioCreador *string   `json:"usuario_creador"`
	EnEmision      bool      `json:"en_emision"`
	CreatedOn      time.Time `json:"created_on"`
	UpdatedOn      time.Time `json:"updated_on"`
}
