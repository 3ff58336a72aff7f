package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MioNatsuki/sistema-emision/internal/apierror"
	"github.com/MioNatsuki/sistema-emision/internal/dto"
	"github.com/MioNatsuki/sistema-emision/internal/service"
)

type ProyectosHandler struct{ svc service.ProyectoService }

func NewProyectosHandler(svc service.ProyectoService) *ProyectosHandler {
	return &ProyectosHandler{svc: svc}
}

// Padrones godoc
// @Summary Listar padrones disponibles
// @Tags proyectos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PadronResponse
// @Router /v1/proyectos/padrones [get]
func (h *ProyectosHandler) Padrones(c *gin.Context) {
	resp, err := h.svc.ListarPadrones(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary Listar proyectos
// @Tags proyectos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ProyectoResponse
// @Router /v1/proyectos [get]
func (h *ProyectosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Obtener proyecto
// @Tags proyectos
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID del proyecto"
// @Success 200 {object} dto.ProyectoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/proyectos/{id} [get]
func (h *ProyectosHandler) Obtener(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Crear godoc
// @Summary Crear proyecto
// @Tags proyectos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ProyectoCreateRequest true "Proyecto"
// @Success 201 {object} dto.ProyectoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/proyectos [post]
func (h *ProyectosHandler) Crear(c *gin.Context) {
	var req dto.ProyectoCreateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Actualizar godoc
// @Summary Actualizar proyecto
// @Description Solo se modifican los campos enviados. Un proyecto en emision no puede modificarse.
// @Tags proyectos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID del proyecto"
// @Param body body dto.ProyectoUpdateRequest true "Cambios"
// @Success 200 {object} dto.ProyectoResponse
// @Router /v1/proyectos/{id} [put]
func (h *ProyectosHandler) Actualizar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ProyectoUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Eliminar proyecto (soft delete)
// @Tags proyectos
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID del proyecto"
// @Success 200 {object} dto.MensajeResponse
// @Router /v1/proyectos/{id} [delete]
func (h *ProyectosHandler) Eliminar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id, actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MensajeResponse{Message: "Proyecto eliminado exitosamente"})
}

// SubirLogo godoc
// @Summary Subir logo del proyecto
// @Description Formatos JPG o PNG, maximo 2 MB.
// @Tags proyectos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID del proyecto"
// @Param file formData file true "Logo"
// @Success 200 {object} dto.ProyectoResponse
// @Failure 400 {object} apierror.ValidationError
// @Router /v1/proyectos/{id}/logo [post]
func (h *ProyectosHandler) SubirLogo(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, apierror.Validation("file", "archivo requerido"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	resp, err := h.svc.SubirLogo(c.Request.Context(), id, dto.ArchivoLogo{
		Nombre:      fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Tamano:      fh.Size,
		Contenido:   f,
	}, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
