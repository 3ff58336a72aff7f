package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/MioNatsuki/sistema-emision/internal/dto"
	"github.com/MioNatsuki/sistema-emision/internal/model"
	"github.com/MioNatsuki/sistema-emision/internal/repository"
)

// Entrada is one audit record before it is stored.
type Entrada struct {
	UsuarioID    *uuid.UUID
	Accion       string
	Entidad      string
	EntidadID    string
	Detalles     map[string]any
	IP           string
	UserAgent    string
	Exitoso      bool
	MensajeError string
}

type BitacoraService interface {
	// Registrar appends one row. Only storage errors are returned.
	Registrar(ctx context.Context, e Entrada) error
}

type bitacoraService struct {
	repo repository.BitacoraRepository
}

func NewBitacoraService(repo repository.BitacoraRepository) BitacoraService {
	return &bitacoraService{repo: repo}
}

func (s *bitacoraService) Registrar(ctx context.Context, e Entrada) error {
	row := &model.Bitacora{
		UUIDUsuario:  e.UsuarioID,
		Accion:       e.Accion,
		Entidad:      e.Entidad,
		EntidadID:    opcional(e.EntidadID),
		IPAddress:    opcional(e.IP),
		UserAgent:    opcional(e.UserAgent),
		FueExitoso:   e.Exitoso,
		MensajeError: opcional(e.MensajeError),
	}
	if e.Detalles != nil {
		b, err := json.Marshal(normalizarUUIDs(e.Detalles))
		if err != nil {
			return err
		}
		row.Detalles = datatypes.JSON(b)
	}
	return s.repo.Create(ctx, row)
}

// normalizarUUIDs replaces every uuid in v, at any depth, with its string form.
func normalizarUUIDs(v any) any {
	switch x := v.(type) {
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return nil
		}
		return x.String()
	case []uuid.UUID:
		out := make([]string, len(x))
		for i, id := range x {
			out[i] = id.String()
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalizarUUIDs(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalizarUUIDs(val)
		}
		return out
	default:
		return v
	}
}

func opcional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// auditar records e on behalf of actor. Failures are logged and swallowed so
// the business operation keeps its result.
func auditar(ctx context.Context, b BitacoraService, actor dto.Actor, e Entrada) {
	if b == nil {
		return
	}
	if e.UsuarioID == nil {
		e.UsuarioID = actor.UsuarioID
	}
	e.IP = actor.IP
	e.UserAgent = actor.UserAgent
	if err := b.Registrar(ctx, e); err != nil {
		log.Error().Err(err).Str("accion", e.Accion).Msg("bitacora: no se pudo registrar")
	}
}
