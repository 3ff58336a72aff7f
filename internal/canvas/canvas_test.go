package canvas_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/MioNatsuki/sistema-emision/internal/apierror"
	"github.com/MioNatsuki/sistema-emision/internal/canvas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documento = `{
  "elementos": [
    {"id": "t1", "tipo": "texto_plano", "x": 1, "y": 2, "ancho": 5, "alto": 1,
     "contenido": "Estimado contribuyente", "estilo": {"negrita": true}},
    {"id": "c1", "tipo": "campo_bd", "x": 1, "y": 3.5, "ancho": 8, "alto": 1,
     "campo_nombre": "nombre_propietario", "etiqueta": "Nombre:", "estilo": {"tamano": 14}},
    {"id": "i1", "tipo": "imagen", "x": -2, "y": 40, "ancho": 3, "alto": 3, "ruta_imagen": "logos/escudo.png"},
    {"id": "b1", "tipo": "codigo_barras", "x": 1, "y": 30, "ancho": 10, "alto": 2, "campo_nombre": "cuenta"}
  ],
  "configuracion_global": {"margen_superior": 0}
}`

func validacion(t *testing.T, err error) *apierror.Error {
	t.Helper()
	require.Error(t, err)
	e, ok := apierror.As(err)
	require.True(t, ok, "se esperaba *apierror.Error, got %T", err)
	require.Equal(t, apierror.KindValidation, e.Kind)
	return e
}

func TestParse_AllVariantsWithDefaults(t *testing.T) {
	cfg, err := canvas.Parse([]byte(documento))
	require.NoError(t, err)
	require.Len(t, cfg.Elementos, 4)

	texto, ok := cfg.Elementos[0].(*canvas.TextoPlano)
	require.True(t, ok)
	assert.Equal(t, "Estimado contribuyente", texto.Contenido)
	assert.True(t, texto.Estilo.Negrita)
	assert.Equal(t, "Calibri", texto.Estilo.Fuente)
	assert.Equal(t, 11, texto.Estilo.Tamano)
	assert.Equal(t, "#000000", texto.Estilo.Color)
	assert.Equal(t, "left", texto.Estilo.Alineacion)

	campo, ok := cfg.Elementos[1].(*canvas.CampoBD)
	require.True(t, ok)
	assert.Equal(t, "nombre_propietario", campo.CampoNombre)
	require.NotNil(t, campo.Etiqueta)
	assert.Equal(t, "Nombre:", *campo.Etiqueta)
	assert.Equal(t, 14, campo.Estilo.Tamano)

	img, ok := cfg.Elementos[2].(*canvas.Imagen)
	require.True(t, ok)
	assert.True(t, img.MantenerAspecto)
	assert.Equal(t, -2.0, img.X)

	_, ok = cfg.Elementos[3].(*canvas.CodigoBarras)
	require.True(t, ok)

	g := cfg.Globales()
	assert.Equal(t, 0.0, *g.MargenSuperior)
	assert.Equal(t, 1.0, *g.MargenInferior)
	assert.Equal(t, "#FFFFFF", g.ColorFondo)
}

func TestRoundTrip_PreservesOrder(t *testing.T) {
	cfg, err := canvas.Parse([]byte(documento))
	require.NoError(t, err)

	b, err := json.Marshal(cfg)
	require.NoError(t, err)

	var again canvas.Config
	require.NoError(t, json.Unmarshal(b, &again))

	ids := make([]string, 0, len(again.Elementos))
	for _, el := range again.Elementos {
		ids = append(ids, el.ElementoID())
	}
	assert.Equal(t, []string{"t1", "c1", "i1", "b1"}, ids)

	b2, err := json.Marshal(again)
	require.NoError(t, err)
	assert.JSONEq(t, string(b), string(b2))

	var generic map[string]any
	require.NoError(t, json.Unmarshal(b, &generic))
	primero := generic["elementos"].([]any)[0].(map[string]any)
	assert.Equal(t, "texto_plano", primero["tipo"])
}

func TestValueScan(t *testing.T) {
	cfg, err := canvas.Parse([]byte(documento))
	require.NoError(t, err)

	v, err := cfg.Value()
	require.NoError(t, err)

	var scanned canvas.Config
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	assert.Len(t, scanned.Elementos, 4)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned.Elementos)
}

func TestParse_EmptyElementList(t *testing.T) {
	cfg, err := canvas.Parse([]byte(`{"elementos": []}`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Elementos)
	assert.Nil(t, cfg.Global)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name  string
		doc   string
		field string
	}{
		{"not an object", `[1,2]`, "canvas_config"},
		{"missing elementos", `{}`, "canvas_config.elementos"},
		{"unknown tipo", `{"elementos":[{"id":"a","tipo":"tabla","x":0,"y":0,"ancho":1,"alto":1}]}`,
			"canvas_config.elementos[0].tipo"},
		{"missing id", `{"elementos":[{"tipo":"imagen","x":0,"y":0,"ancho":1,"alto":1,"ruta_imagen":"a.png"}]}`,
			"canvas_config.elementos[0].id"},
		{"empty id", `{"elementos":[{"id":"","tipo":"imagen","x":0,"y":0,"ancho":1,"alto":1,"ruta_imagen":"a.png"}]}`,
			"canvas_config.elementos[0].id"},
		{"missing alto", `{"elementos":[{"id":"a","tipo":"imagen","x":0,"y":0,"ancho":1,"ruta_imagen":"a.png"}]}`,
			"canvas_config.elementos[0].alto"},
		{"string coordinate", `{"elementos":[{"id":"a","tipo":"imagen","x":"1","y":0,"ancho":1,"alto":1,"ruta_imagen":"a.png"}]}`,
			"canvas_config.elementos[0].x"},
		{"campo_bd without campo_nombre", `{"elementos":[
			{"id":"a","tipo":"imagen","x":0,"y":0,"ancho":1,"alto":1,"ruta_imagen":"a.png"},
			{"id":"b","tipo":"imagen","x":0,"y":0,"ancho":1,"alto":1,"ruta_imagen":"b.png"},
			{"id":"c","tipo":"campo_bd","x":0,"y":0,"ancho":1,"alto":1,"estilo":{}}]}`,
			"canvas_config.elementos[2].campo_nombre"},
		{"texto_plano without estilo", `{"elementos":[{"id":"a","tipo":"texto_plano","x":0,"y":0,"ancho":1,"alto":1,"contenido":"x"}]}`,
			"canvas_config.elementos[0].estilo"},
		{"texto_plano without contenido", `{"elementos":[{"id":"a","tipo":"texto_plano","x":0,"y":0,"ancho":1,"alto":1,"estilo":{}}]}`,
			"canvas_config.elementos[0].contenido"},
		{"duplicate id", `{"elementos":[
			{"id":"a","tipo":"imagen","x":0,"y":0,"ancho":1,"alto":1,"ruta_imagen":"a.png"},
			{"id":"a","tipo":"codigo_barras","x":0,"y":0,"ancho":1,"alto":1,"campo_nombre":"cuenta"}]}`,
			"canvas_config.elementos[1].id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := canvas.Parse([]byte(tc.doc))
			e := validacion(t, err)
			assert.Equal(t, tc.field, e.Field)
		})
	}
}

func TestValidate_NonFinite(t *testing.T) {
	cfg := canvas.Config{Elementos: []canvas.Element{
		&canvas.Imagen{Marco: canvas.Marco{ID: "a", X: math.Inf(1), Ancho: 1, Alto: 1}, RutaImagen: "a.png"},
	}}
	e := validacion(t, cfg.Validate())
	assert.Equal(t, "canvas_config.elementos[0].x", e.Field)

	cfg.Elementos[0] = &canvas.Imagen{Marco: canvas.Marco{ID: "a", Ancho: math.NaN(), Alto: 1}, RutaImagen: "a.png"}
	e = validacion(t, cfg.Validate())
	assert.Equal(t, "canvas_config.elementos[0].ancho", e.Field)
}

func TestUnmarshalJSON_Invalid(t *testing.T) {
	var cfg canvas.Config
	err := json.Unmarshal([]byte(`{"elementos":[{"id":"a"}]}`), &cfg)
	require.Error(t, err)
}

func TestParse_EmptyFieldNamesAccepted(t *testing.T) {
	doc := `{"elementos":[
		{"id":"c","tipo":"campo_bd","x":0,"y":0,"ancho":1,"alto":1,"campo_nombre":"","estilo":{}},
		{"id":"i","tipo":"imagen","x":0,"y":0,"ancho":1,"alto":1,"ruta_imagen":""},
		{"id":"b","tipo":"codigo_barras","x":0,"y":0,"ancho":1,"alto":1,"campo_nombre":""}]}`
	cfg, err := canvas.Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cfg.Elementos, 3)
	assert.Equal(t, "", cfg.Elementos[0].(*canvas.CampoBD).CampoNombre)
	assert.Equal(t, "", cfg.Elementos[1].(*canvas.Imagen).RutaImagen)

	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	var again canvas.Config
	require.NoError(t, json.Unmarshal(b, &again))
	require.Len(t, again.Elementos, 3)
	assert.Equal(t, "", again.Elementos[2].(*canvas.CodigoBarras).CampoNombre)

	// Stored rows with empty names must still load.
	v, err := cfg.Value()
	require.NoError(t, err)
	var scanned canvas.Config
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	assert.Len(t, scanned.Elementos, 3)
}

func TestParse_EstiloKeepsExplicitZeros(t *testing.T) {
	doc := `{"elementos":[{"id":"t","tipo":"texto_plano","x":0,"y":0,"ancho":1,"alto":1,
		"contenido":"x","estilo":{"tamano":0,"color":""}}]}`
	cfg, err := canvas.Parse([]byte(doc))
	require.NoError(t, err)

	e := cfg.Elementos[0].(*canvas.TextoPlano).Estilo
	assert.Equal(t, 0, e.Tamano)
	assert.Equal(t, "", e.Color)
	assert.Equal(t, "Calibri", e.Fuente)
	assert.Equal(t, "left", e.Alineacion)

	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	again, err := canvas.Parse(b)
	require.NoError(t, err)
	assert.Equal(t, e, again.Elementos[0].(*canvas.TextoPlano).Estilo)
}
