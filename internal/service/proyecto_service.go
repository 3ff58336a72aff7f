package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MioNatsuki/sistema-emision/internal/apierror"
	"github.com/MioNatsuki/sistema-emision/internal/dto"
	"github.com/MioNatsuki/sistema-emision/internal/infra"
	"github.com/MioNatsuki/sistema-emision/internal/model"
	"github.com/MioNatsuki/sistema-emision/internal/repository"
)

// LogoMaxBytesDefecto is the logo size limit when none is configured.
const LogoMaxBytesDefecto int64 = 2 << 20

var (
	errProyectoNoEncontrado = apierror.NotFound("Proyecto")
	errPadronNoEncontrado   = apierror.NotFound("Padron")
	errProyectoEnEmision    = apierror.Conflict("El proyecto esta en emision y no puede modificarse")
)

type ProyectoService interface {
	Listar(ctx context.Context) ([]dto.ProyectoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProyectoResponse, error)
	Crear(ctx context.Context, req dto.ProyectoCreateRequest, actor dto.Actor) (*dto.ProyectoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ProyectoUpdateRequest, actor dto.Actor) (*dto.ProyectoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID, actor dto.Actor) error
	ListarPadrones(ctx context.Context) ([]dto.PadronResponse, error)
	SubirLogo(ctx context.Context, id uuid.UUID, archivo dto.ArchivoLogo, actor dto.Actor) (*dto.ProyectoResponse, error)
}

type proyectoService struct {
	repo         repository.ProyectoRepository
	padrones     repository.PadronRepository
	store        infra.FileStore
	bitacora     BitacoraService
	logoMaxBytes int64
}

func NewProyectoService(
	repo repository.ProyectoRepository,
	padrones repository.PadronRepository,
	store infra.FileStore,
	bitacora BitacoraService,
	logoMaxBytes int64,
) ProyectoService {
	if logoMaxBytes <= 0 {
		logoMaxBytes = LogoMaxBytesDefecto
	}
	return &proyectoService{
		repo:         repo,
		padrones:     padrones,
		store:        store,
		bitacora:     bitacora,
		logoMaxBytes: logoMaxBytes,
	}
}

func (s *proyectoService) Listar(ctx context.Context) ([]dto.ProyectoResponse, error) {
	rows, err := s.repo.ListDetalle(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProyectoResponse, len(rows))
	for i := range rows {
		out[i] = proyectoResponse(&rows[i])
	}
	return out, nil
}

func (s *proyectoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProyectoResponse, error) {
	return s.detalle(ctx, id)
}

func (s *proyectoService) detalle(ctx context.Context, id uuid.UUID) (*dto.ProyectoResponse, error) {
	d, err := s.repo.FindDetalle(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errProyectoNoEncontrado
		}
		return nil, err
	}
	resp := proyectoResponse(d)
	return &resp, nil
}

func (s *proyectoService) padron(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.Validation("uuid_padron", "uuid invalido")
	}
	if _, err := s.padrones.FindByUUID(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return uuid.Nil, errPadronNoEncontrado
		}
		return uuid.Nil, err
	}
	return id, nil
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *proyectoService) Crear(ctx context.Context, req dto.ProyectoCreateRequest, actor dto.Actor) (*dto.ProyectoResponse, error) {
	padronID, err := s.padron(ctx, req.UUIDPadron)
	if err != nil {
		return nil, err
	}
	nombre := strings.TrimSpace(req.NombreProyecto)
	if nombre == "" {
		return nil, apierror.Validation("nombre_proyecto", "no puede estar vacio")
	}

	p := &model.Proyecto{
		UUID:           uuid.New(),
		NombreProyecto: nombre,
		Descripcion:    req.Descripcion,
		UUIDPadron:     padronID,
		UsuarioCreador: actor.UsuarioID,
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		existe, err := s.repo.ExisteNombreTx(tx, nombre, nil)
		if err != nil {
			return err
		}
		if existe {
			return apierror.Conflict("Ya existe un proyecto con ese nombre")
		}
		return s.repo.CreateTx(tx, p)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.Conflict("Ya existe un proyecto con ese nombre")
		}
		return nil, err
	}

	auditar(ctx, s.bitacora, actor, Entrada{
		Accion:    model.AccionCrearProyecto,
		Entidad:   model.EntidadProyecto,
		EntidadID: p.UUID.String(),
		Detalles:  map[string]any{"nombre_proyecto": p.NombreProyecto, "uuid_padron": p.UUIDPadron},
		Exitoso:   true,
	})
	return s.detalle(ctx, p.UUID)
}

// ── Update ────────────────────────────────────────────────────────────────────

func (s *proyectoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ProyectoUpdateRequest, actor dto.Actor) (*dto.ProyectoResponse, error) {
	var padronID *uuid.UUID
	if req.UUIDPadron != nil {
		pid, err := s.padron(ctx, *req.UUIDPadron)
		if err != nil {
			return nil, err
		}
		padronID = &pid
	}

	var cambios []string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return errProyectoNoEncontrado
			}
			return err
		}
		if p.EnEmision {
			return errProyectoEnEmision
		}

		if req.NombreProyecto != nil {
			nombre := strings.TrimSpace(*req.NombreProyecto)
			if nombre == "" {
				return apierror.Validation("nombre_proyecto", "no puede estar vacio")
			}
			if nombre != p.NombreProyecto {
				existe, err := s.repo.ExisteNombreTx(tx, nombre, &id)
				if err != nil {
					return err
				}
				if existe {
					return apierror.Conflict("Ya existe un proyecto con ese nombre")
				}
			}
			p.NombreProyecto = nombre
			cambios = append(cambios, "nombre_proyecto")
		}
		if req.Descripcion.Set {
			p.Descripcion = req.Descripcion.Valor
			cambios = append(cambios, "descripcion")
		}
		if padronID != nil {
			p.UUIDPadron = *padronID
			cambios = append(cambios, "uuid_padron")
		}
		return s.repo.UpdateTx(tx, p)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.Conflict("Ya existe un proyecto con ese nombre")
		}
		return nil, err
	}

	auditar(ctx, s.bitacora, actor, Entrada{
		Accion:    model.AccionEditarProyecto,
		Entidad:   model.EntidadProyecto,
		EntidadID: id.String(),
		Detalles:  map[string]any{"cambios": cambiosOVacio(cambios)},
		Exitoso:   true,
	})
	return s.detalle(ctx, id)
}

// ── Delete ────────────────────────────────────────────────────────────────────

func (s *proyectoService) Eliminar(ctx context.Context, id uuid.UUID, actor dto.Actor) error {
	var nombre string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return errProyectoNoEncontrado
			}
			return err
		}
		if p.EnEmision {
			return errProyectoEnEmision
		}
		nombre = p.NombreProyecto
		p.IsDeleted = true
		return s.repo.UpdateTx(tx, p)
	})
	if err != nil {
		return err
	}

	auditar(ctx, s.bitacora, actor, Entrada{
		Accion:    model.AccionEliminarProyecto,
		Entidad:   model.EntidadProyecto,
		EntidadID: id.String(),
		Detalles:  map[string]any{"nombre_proyecto": nombre},
		Exitoso:   true,
	})
	return nil
}

func (s *proyectoService) ListarPadrones(ctx context.Context) ([]dto.PadronResponse, error) {
	rows, err := s.padrones.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PadronResponse, len(rows))
	for i, p := range rows {
		out[i] = dto.PadronResponse{
			UUIDPadron:   p.UUID.String(),
			NombrePadron: p.NombrePadron,
			Descripcion:  p.Descripcion,
		}
	}
	return out, nil
}

// ── Logo upload ───────────────────────────────────────────────────────────────
// Every upload gets its own key, so the previous logo is never overwritten
// before commit. If the row update fails the new file is removed; the previous
// logo is removed only after commit.

var extensionesLogo = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

func (s *proyectoService) SubirLogo(ctx context.Context, id uuid.UUID, archivo dto.ArchivoLogo, actor dto.Actor) (*dto.ProyectoResponse, error) {
	ext := strings.ToLower(filepath.Ext(archivo.Nombre))
	tipo, ok := extensionesLogo[ext]
	if !ok {
		return nil, apierror.Validation("file", "Solo se permiten imagenes JPG o PNG")
	}
	if archivo.Tamano > s.logoMaxBytes {
		return nil, apierror.Validation("file", fmt.Sprintf("El archivo excede el tamaño maximo de %d MB", s.logoMaxBytes>>20))
	}
	if archivo.Contenido == nil {
		return nil, apierror.Validation("file", "archivo requerido")
	}
	contenido, err := io.ReadAll(io.LimitReader(archivo.Contenido, s.logoMaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(contenido)) > s.logoMaxBytes {
		return nil, apierror.Validation("file", fmt.Sprintf("El archivo excede el tamaño maximo de %d MB", s.logoMaxBytes>>20))
	}
	if len(contenido) == 0 || http.DetectContentType(contenido) != tipo {
		return nil, apierror.Validation("file", "El contenido no corresponde a una imagen JPG o PNG")
	}

	actual, err := s.repo.FindByUUID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errProyectoNoEncontrado
		}
		return nil, err
	}
	if actual.EnEmision {
		return nil, errProyectoEnEmision
	}

	key := logoKey(id, ext)
	if _, err := s.store.Save(ctx, key, bytes.NewReader(contenido)); err != nil {
		return nil, fmt.Errorf("guardar logo: %w", err)
	}

	var anterior *string
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return errProyectoNoEncontrado
			}
			return err
		}
		if p.EnEmision {
			return errProyectoEnEmision
		}
		anterior = p.LogoProyecto
		p.LogoProyecto = &key
		return s.repo.UpdateTx(tx, p)
	})
	if err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			log.Warn().Err(rmErr).Str("key", key).Msg("logo: no se pudo eliminar el archivo nuevo")
		}
		return nil, err
	}
	if anterior != nil {
		if rmErr := s.store.Remove(ctx, *anterior); rmErr != nil {
			log.Warn().Err(rmErr).Str("key", *anterior).Msg("logo: no se pudo eliminar el logo anterior")
		}
	}

	auditar(ctx, s.bitacora, actor, Entrada{
		Accion:    model.AccionSubirLogo,
		Entidad:   model.EntidadProyecto,
		EntidadID: id.String(),
		Detalles:  map[string]any{"archivo": archivo.Nombre, "ruta": key, "tamano": len(contenido)},
		Exitoso:   true,
	})
	return s.detalle(ctx, id)
}

// logoKey is proyectos/<proyecto>_<upload><ext>.
func logoKey(id uuid.UUID, ext string) string {
	return "proyectos/" + id.String() + "_" + uuid.NewString() + ext
}

func proyectoResponse(d *model.ProyectoDetalle) dto.ProyectoResponse {
	resp := dto.ProyectoResponse{
		UUIDProyecto:   d.UUID.String(),
		NombreProyecto: d.NombreProyecto,
		Descripcion:    d.Descripcion,
		LogoProyecto:   d.LogoProyecto,
		UUIDPadron:     d.UUIDPadron.String(),
		NombrePadron:   d.NombrePadron,
		EnEmision:      d.EnEmision,
		CreatedOn:      d.CreatedOn,
		UpdatedOn:      d.UpdatedOn,
	}
	if d.UsuarioCreador != nil {
		c := d.UsuarioCreador.String()
		resp.UsuarioCreador = &c
	}
	return resp
}

func cambiosOVacio(c []string) []string {
	if c == nil {
		return []string{}
	}
	return c
}
