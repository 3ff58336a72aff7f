package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MioNatsuki/sistema-emision/internal/apierror"
	"github.com/MioNatsuki/sistema-emision/internal/canvas"
	"github.com/MioNatsuki/sistema-emision/internal/dto"
	"github.com/MioNatsuki/sistema-emision/internal/infra"
	"github.com/MioNatsuki/sistema-emision/internal/model"
	"github.com/MioNatsuki/sistema-emision/internal/repository"
)

// MensajeSinDatos is returned by Preview when the project has no register rows.
const MensajeSinDatos = "No hay datos en el padrón para este proyecto"

var (
	errPlantillaNoEncontrada = apierror.NotFoundMsg("Plantilla", "Plantilla no encontrada")
	errNombrePlantilla       = apierror.Conflict("Ya existe una plantilla con ese nombre en el proyecto")

	// numeric(6,2)
	dimensionMaxima = decimal.RequireFromString("9999.99")
)

// ColumnasCache caches register column lists. *infra.ColumnasCache implements it.
type ColumnasCache interface {
	Get(ctx context.Context, padron string) ([]model.ColumnaPadron, bool)
	Set(ctx context.Context, padron string, cols []model.ColumnaPadron)
}

type PlantillaService interface {
	Crear(ctx context.Context, req dto.PlantillaCreateRequest, actor dto.Actor) (*dto.PlantillaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.PlantillaUpdateRequest, actor dto.Actor) (*dto.PlantillaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID, actor dto.Actor) error
	Obtener(ctx context.Context, id uuid.UUID) (*dto.PlantillaResponse, error)
	ListarPorProyecto(ctx context.Context, proyectoID uuid.UUID) ([]dto.PlantillaResponse, error)
	// ListarCampos lists the usable columns of a register by its name.
	ListarCampos(ctx context.Context, nombrePadron string) ([]model.ColumnaPadron, error)
	Preview(ctx context.Context, id uuid.UUID) (*dto.PreviewResponse, error)
	PreviewPDF(ctx context.Context, id uuid.UUID, w io.Writer) error
}

type plantillaService struct {
	repo      repository.PlantillaRepository
	proyectos repository.ProyectoRepository
	padrones  repository.PadronRepository
	datos     repository.PadronDatosRepository
	cache     ColumnasCache
	bitacora  BitacoraService
	imagenes  infra.ImagenResolver
}

type PlantillaOption func(*plantillaService)

// WithColumnasCache puts a read-through cache in front of ListarCampos.
func WithColumnasCache(c ColumnasCache) PlantillaOption {
	return func(s *plantillaService) { s.cache = c }
}

// WithImagenResolver lets PreviewPDF embed images stored by the file store.
func WithImagenResolver(r infra.ImagenResolver) PlantillaOption {
	return func(s *plantillaService) { s.imagenes = r }
}

func NewPlantillaService(
	repo repository.PlantillaRepository,
	proyectos repository.ProyectoRepository,
	padrones repository.PadronRepository,
	datos repository.PadronDatosRepository,
	bitacora BitacoraService,
	opts ...PlantillaOption,
) PlantillaService {
	s := &plantillaService{
		repo:      repo,
		proyectos: proyectos,
		padrones:  padrones,
		datos:     datos,
		bitacora:  bitacora,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func parseUUID(campo, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.Validation(campo, "uuid invalido")
	}
	return id, nil
}

func validarDimension(campo string, d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	if !d.IsPositive() {
		return apierror.Validation(campo, "debe ser mayor a 0")
	}
	if d.GreaterThan(dimensionMaxima) {
		return apierror.Validation(campo, "debe ser menor o igual a 9999.99")
	}
	return nil
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *plantillaService) Crear(ctx context.Context, req dto.PlantillaCreateRequest, actor dto.Actor) (*dto.PlantillaResponse, error) {
	proyectoID, err := parseUUID("uuid_proyecto", req.UUIDProyecto)
	if err != nil {
		return nil, err
	}
	padronID, err := parseUUID("uuid_padron", req.UUIDPadron)
	if err != nil {
		return nil, err
	}
	nombre := strings.TrimSpace(req.NombrePlantilla)
	if nombre == "" {
		return nil, apierror.Validation("nombre_plantilla", "no puede estar vacio")
	}
	if err := validarDimension("ancho_canvas", req.AnchoCanvas); err != nil {
		return nil, err
	}
	if err := validarDimension("alto_canvas", req.AltoCanvas); err != nil {
		return nil, err
	}
	cfg, err := canvas.Parse(req.CanvasConfig)
	if err != nil {
		return nil, err
	}

	if _, err := s.proyectos.FindByUUID(ctx, proyectoID); err != nil {
		if repository.IsNotFound(err) {
			return nil, errProyectoNoEncontrado
		}
		return nil, err
	}
	if _, err := s.padrones.FindByUUID(ctx, padronID); err != nil {
		if repository.IsNotFound(err) {
			return nil, errPadronNoEncontrado
		}
		return nil, err
	}

	p := &model.Plantilla{
		UUID:            uuid.New(),
		NombrePlantilla: nombre,
		Descripcion:     req.Descripcion,
		UUIDProyecto:    proyectoID,
		UUIDPadron:      padronID,
		CanvasConfig:    cfg,
		AnchoCanvas:     model.AnchoCanvasDefecto,
		AltoCanvas:      model.AltoCanvasDefecto,
		Version:         1,
	}
	if req.AnchoCanvas != nil {
		p.AnchoCanvas = *req.AnchoCanvas
	}
	if req.AltoCanvas != nil {
		p.AltoCanvas = *req.AltoCanvas
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		existe, err := s.repo.ExisteNombreTx(tx, proyectoID, nombre, nil)
		if err != nil {
			return err
		}
		if existe {
			return errNombrePlantilla
		}
		return s.repo.CreateTx(tx, p)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errNombrePlantilla
		}
		return nil, err
	}

	auditar(ctx, s.bitacora, actor, Entrada{
		Accion:    model.AccionCrearPlantilla,
		Entidad:   model.EntidadPlantilla,
		EntidadID: p.UUID.String(),
		Detalles: map[string]any{
			"nombre_plantilla": p.NombrePlantilla,
			"uuid_proyecto":    p.UUIDProyecto,
			"uuid_padron":      p.UUIDPadron,
			"elementos":        len(cfg.Elementos),
		},
		Exitoso: true,
	})
	return s.Obtener(ctx, p.UUID)
}

// ── Update ────────────────────────────────────────────────────────────────────
// Patch semantics. A canvas_config in the body replaces the stored document
// wholesale and bumps the version; no other field touches the version.

func (s *plantillaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.PlantillaUpdateRequest, actor dto.Actor) (*dto.PlantillaResponse, error) {
	var nuevoCanvas *canvas.Config
	if req.CanvasConfig != nil {
		if bytes.Equal(bytes.TrimSpace(req.CanvasConfig), []byte("null")) {
			return nil, apierror.Validation(canvas.Campo, "no puede ser nulo")
		}
		cfg, err := canvas.Parse(req.CanvasConfig)
		if err != nil {
			return nil, err
		}
		nuevoCanvas = &cfg
	}
	if err := validarDimension("ancho_canvas", req.AnchoCanvas); err != nil {
		return nil, err
	}
	if err := validarDimension("alto_canvas", req.AltoCanvas); err != nil {
		return nil, err
	}

	var version int
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return errPlantillaNoEncontrada
			}
			return err
		}

		if req.NombrePlantilla != nil {
			nombre := strings.TrimSpace(*req.NombrePlantilla)
			if nombre == "" {
				return apierror.Validation("nombre_plantilla", "no puede estar vacio")
			}
			if nombre != p.NombrePlantilla {
				existe, err := s.repo.ExisteNombreTx(tx, p.UUIDProyecto, nombre, &id)
				if err != nil {
					return err
				}
				if existe {
					return errNombrePlantilla
				}
			}
			p.NombrePlantilla = nombre
		}
		if req.Descripcion.Set {
			p.Descripcion = req.Descripcion.Valor
		}
		if req.AnchoCanvas != nil {
			p.AnchoCanvas = *req.AnchoCanvas
		}
		if req.AltoCanvas != nil {
			p.AltoCanvas = *req.AltoCanvas
		}
		if nuevoCanvas != nil {
			p.CanvasConfig = *nuevoCanvas
			p.Version++
		}
		version = p.Version
		return s.repo.UpdateTx(tx, p)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errNombrePlantilla
		}
		return nil, err
	}

	auditar(ctx, s.bitacora, actor, Entrada{
		Accion:    model.AccionEditarPlantilla,
		Entidad:   model.EntidadPlantilla,
		EntidadID: id.String(),
		Detalles:  map[string]any{"cambios": cambiosOVacio(req.Campos()), "version": version},
		Exitoso:   true,
	})
	return s.Obtener(ctx, id)
}

// ── Delete ────────────────────────────────────────────────────────────────────

func (s *plantillaService) Eliminar(ctx context.Context, id uuid.UUID, actor dto.Actor) error {
	var nombre string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return errPlantillaNoEncontrada
			}
			return err
		}
		nombre = p.NombrePlantilla
		p.IsDeleted = true
		return s.repo.UpdateTx(tx, p)
	})
	if err != nil {
		return err
	}

	auditar(ctx, s.bitacora, actor, Entrada{
		Accion:    model.AccionEliminarPlantilla,
		Entidad:   model.EntidadPlantilla,
		EntidadID: id.String(),
		Detalles:  map[string]any{"nombre_plantilla": nombre},
		Exitoso:   true,
	})
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *plantillaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.PlantillaResponse, error) {
	d, err := s.findDetalle(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := plantillaResponse(d)
	return &resp, nil
}

func (s *plantillaService) findDetalle(ctx context.Context, id uuid.UUID) (*model.PlantillaDetalle, error) {
	d, err := s.repo.FindDetalle(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errPlantillaNoEncontrada
		}
		return nil, err
	}
	return d, nil
}

func (s *plantillaService) ListarPorProyecto(ctx context.Context, proyectoID uuid.UUID) ([]dto.PlantillaResponse, error) {
	rows, err := s.repo.ListDetalleByProyecto(ctx, proyectoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PlantillaResponse, len(rows))
	for i := range rows {
		out[i] = plantillaResponse(&rows[i])
	}
	return out, nil
}

func (s *plantillaService) ListarCampos(ctx context.Context, nombrePadron string) ([]model.ColumnaPadron, error) {
	tabla, ok := model.TablaPadron(nombrePadron)
	if !ok {
		return nil, apierror.NotFoundMsg("Padron", fmt.Sprintf("Padron %s no encontrado", nombrePadron))
	}
	if s.cache != nil {
		if cols, ok := s.cache.Get(ctx, nombrePadron); ok {
			return cols, nil
		}
	}

	cols, err := s.datos.Columnas(ctx, tabla)
	if err != nil {
		return nil, err
	}
	if cols == nil {
		cols = []model.ColumnaPadron{}
	}
	if s.cache != nil {
		s.cache.Set(ctx, nombrePadron, cols)
	}
	return cols, nil
}

// ── Preview ───────────────────────────────────────────────────────────────────

func (s *plantillaService) Preview(ctx context.Context, id uuid.UUID) (*dto.PreviewResponse, error) {
	d, err := s.findDetalle(ctx, id)
	if err != nil {
		return nil, err
	}
	datos, err := s.registroAleatorio(ctx, d)
	if err != nil {
		return nil, err
	}
	if datos == nil {
		return &dto.PreviewResponse{Datos: map[string]any{}, Mensaje: MensajeSinDatos}, nil
	}
	return &dto.PreviewResponse{Datos: datos}, nil
}

func (s *plantillaService) PreviewPDF(ctx context.Context, id uuid.UUID, w io.Writer) error {
	d, err := s.findDetalle(ctx, id)
	if err != nil {
		return err
	}
	datos, err := s.registroAleatorio(ctx, d)
	if err != nil {
		return err
	}
	return infra.RenderPlantillaPDF(w, &d.Plantilla, datos, s.imagenes)
}

// registroAleatorio picks one random register row of the plantilla's project,
// with values converted to JSON-friendly scalars. It returns nil when the
// project has no rows.
func (s *plantillaService) registroAleatorio(ctx context.Context, d *model.PlantillaDetalle) (map[string]any, error) {
	if d.NombrePadron == nil {
		return nil, errPadronNoEncontrado
	}
	tabla, ok := model.TablaPadron(*d.NombrePadron)
	if !ok {
		return nil, fmt.Errorf("padron %q sin tabla asociada", *d.NombrePadron)
	}
	row, err := s.datos.RegistroAleatorio(ctx, tabla, d.UUIDProyecto)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = valorPreview(v)
	}
	return out, nil
}

func valorPreview(v any) any {
	switch x := v.(type) {
	case uuid.UUID:
		return x.String()
	case [16]byte:
		return uuid.UUID(x).String()
	case time.Time:
		return x.Format(time.RFC3339)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.Format(time.RFC3339)
	case []byte:
		return string(x)
	default:
		return v
	}
}

func plantillaResponse(d *model.PlantillaDetalle) dto.PlantillaResponse {
	return dto.PlantillaResponse{
		UUIDPlantilla:   d.UUID.String(),
		NombrePlantilla: d.NombrePlantilla,
		Descripcion:     d.Descripcion,
		UUIDProyecto:    d.UUIDProyecto.String(),
		NombreProyecto:  d.NombreProyecto,
		UUIDPadron:      d.UUIDPadron.String(),
		NombrePadron:    d.NombrePadron,
		CanvasConfig:    d.CanvasConfig,
		AnchoCanvas:     d.AnchoCanvas,
		AltoCanvas:      d.AltoCanvas,
		ThumbnailPath:   d.ThumbnailPath,
		Version:         d.Version,
		CreatedOn:       d.CreatedOn,
		UpdatedOn:       d.UpdatedOn,
	}
}
