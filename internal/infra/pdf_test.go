package infra

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MioNatsuki/sistema-emision/internal/canvas"
	"github.com/MioNatsuki/sistema-emision/internal/model"
)

func TestRenderPlantillaPDF(t *testing.T) {
	cfg, err := canvas.Parse([]byte(`{"elementos": [
		{"id":"t","tipo":"texto_plano","x":1,"y":1,"ancho":10,"alto":1,"contenido":"Año 2025","estilo":{"negrita":true,"alineacion":"center"}},
		{"id":"c","tipo":"campo_bd","x":1,"y":3,"ancho":10,"alto":1,"campo_nombre":"nombre","etiqueta":"Nombre:","estilo":{"color":"#336699"}},
		{"id":"i","tipo":"imagen","x":1,"y":5,"ancho":3,"alto":3,"ruta_imagen":"no-existe.png"},
		{"id":"b","tipo":"codigo_barras","x":1,"y":9,"ancho":8,"alto":1.5,"campo_nombre":"cuenta"}
	], "configuracion_global": {"color_fondo": "#FAFAFA"}}`))
	require.NoError(t, err)

	p := &model.Plantilla{
		NombrePlantilla: "Aviso",
		CanvasConfig:    cfg,
		AnchoCanvas:     model.AnchoCanvasDefecto,
		AltoCanvas:      model.AltoCanvasDefecto,
	}

	var buf bytes.Buffer
	err = RenderPlantillaPDF(&buf, p, map[string]any{"nombre": "José Pérez", "cuenta": 12345}, func(string) string { return "" })
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderPlantillaPDF_EmptyNamesAndZeroStyle(t *testing.T) {
	cfg, err := canvas.Parse([]byte(`{"elementos": [
		{"id":"t","tipo":"texto_plano","x":1,"y":1,"ancho":10,"alto":1,"contenido":"x","estilo":{"tamano":0,"color":""}},
		{"id":"c","tipo":"campo_bd","x":1,"y":3,"ancho":10,"alto":1,"campo_nombre":"","estilo":{}},
		{"id":"i","tipo":"imagen","x":1,"y":5,"ancho":3,"alto":3,"ruta_imagen":""},
		{"id":"b","tipo":"codigo_barras","x":1,"y":9,"ancho":8,"alto":1.5,"campo_nombre":""}
	]}`))
	require.NoError(t, err)

	p := &model.Plantilla{CanvasConfig: cfg, AnchoCanvas: model.AnchoCanvasDefecto, AltoCanvas: model.AltoCanvasDefecto}
	var buf bytes.Buffer
	require.NoError(t, RenderPlantillaPDF(&buf, p, nil, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderPlantillaPDF_InvalidSize(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPlantillaPDF(&buf, &model.Plantilla{}, nil, nil)
	assert.Error(t, err)
}

func TestHexColor(t *testing.T) {
	r, g, b, ok := hexColor("#336699")
	assert.True(t, ok)
	assert.Equal(t, []int{0x33, 0x66, 0x99}, []int{r, g, b})

	r, g, b, ok = hexColor("#fff")
	assert.True(t, ok)
	assert.Equal(t, []int{255, 255, 255}, []int{r, g, b})

	_, _, _, ok = hexColor("rojo")
	assert.False(t, ok)
}

func TestValorCampo(t *testing.T) {
	datos := map[string]any{"a": 1, "b": nil}
	assert.Equal(t, "1", valorCampo(datos, "a"))
	assert.Equal(t, "", valorCampo(datos, "b"))
	assert.Equal(t, "{c}", valorCampo(datos, "c"))
}
