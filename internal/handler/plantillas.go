package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MioNatsuki/sistema-emision/internal/dto"
	"github.com/MioNatsuki/sistema-emision/internal/service"
)

type PlantillasHandler struct{ svc service.PlantillaService }

func NewPlantillasHandler(svc service.PlantillaService) *PlantillasHandler {
	return &PlantillasHandler{svc: svc}
}

// ListarPorProyecto godoc
// @Summary Listar plantillas de un proyecto
// @Tags plantillas
// @Produce json
// @Security BearerAuth
// @Param proyecto_id path string true "UUID del proyecto"
// @Success 200 {array} dto.PlantillaResponse
// @Router /v1/plantillas/proyecto/{proyecto_id} [get]
func (h *PlantillasHandler) ListarPorProyecto(c *gin.Context) {
	id, ok := paramUUID(c, "proyecto_id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarPorProyecto(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Obtener plantilla
// @Tags plantillas
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID de la plantilla"
// @Success 200 {object} dto.PlantillaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/plantillas/{id} [get]
func (h *PlantillasHandler) Obtener(c *gin.Context) {
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
// @Summary Crear plantilla
// @Tags plantillas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PlantillaCreateRequest true "Plantilla"
// @Success 201 {object} dto.PlantillaResponse
// @Failure 400 {object} apierror.ValidationError
// @Router /v1/plantillas [post]
func (h *PlantillasHandler) Crear(c *gin.Context) {
	var req dto.PlantillaCreateRequest
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
// @Summary Actualizar plantilla
// @Description Solo se modifican los campos enviados. Enviar canvas_config incrementa la version.
// @Tags plantillas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID de la plantilla"
// @Param body body dto.PlantillaUpdateRequest true "Cambios"
// @Success 200 {object} dto.PlantillaResponse
// @Router /v1/plantillas/{id} [put]
func (h *PlantillasHandler) Actualizar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.PlantillaUpdateRequest
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
// @Summary Eliminar plantilla (soft delete)
// @Tags plantillas
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID de la plantilla"
// @Success 200 {object} dto.MensajeResponse
// @Router /v1/plantillas/{id} [delete]
func (h *PlantillasHandler) Eliminar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id, actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MensajeResponse{Message: "Plantilla eliminada exitosamente"})
}

// Columnas godoc
// @Summary Columnas de un padron
// @Tags plantillas
// @Produce json
// @Security BearerAuth
// @Param nombre path string true "Nombre del padron" Enums(TLAJOMULCO_APA, TLAJOMULCO_PREDIAL, GUADALAJARA_PREDIAL, GUADALAJARA_LICENCIAS, PENSIONES)
// @Success 200 {array} model.ColumnaPadron
// @Failure 404 {object} apierror.APIError
// @Router /v1/plantillas/padron/{nombre}/columnas [get]
func (h *PlantillasHandler) Columnas(c *gin.Context) {
	resp, err := h.svc.ListarCampos(c.Request.Context(), c.Param("nombre"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Preview godoc
// @Summary Datos aleatorios del padron para la vista previa
// @Tags plantillas
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID de la plantilla"
// @Success 200 {object} dto.PreviewResponse
// @Router /v1/plantillas/{id}/preview [get]
func (h *PlantillasHandler) Preview(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Preview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PreviewPDF godoc
// @Summary Vista previa en PDF
// @Tags plantillas
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "UUID de la plantilla"
// @Success 200 {file} binary
// @Router /v1/plantillas/{id}/preview.pdf [get]
func (h *PlantillasHandler) PreviewPDF(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.PreviewPDF(c.Request.Context(), id, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="plantilla-`+id.String()+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
