package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Padron identifies one of the civic registers whose rows feed the templates.
type Padron struct {
	UUID         uuid.UUID `gorm:"column:uuid_padron;type:uuid;primaryKey;default:gen_random_uuid()"`
	NombrePadron string    `gorm:"uniqueIndex;not null"`
	Descripcion  *string
	IsDeleted    bool      `gorm:"not null"`
	CreatedOn    time.Time `gorm:"column:created_on;autoCreateTime"`
}

func (Padron) TableName() string { return "identificador_padron" }

// Physical table of each register. The tables are loaded by an external
// process and are read-only here.
var tablasPadron = map[string]string{
	"TLAJOMULCO_APA":        "padron_completo_tlajomulco_apa",
	"TLAJOMULCO_PREDIAL":    "padron_completo_tlajomulco_predial",
	"GUADALAJARA_PREDIAL":   "padron_completo_guadalajara_predial_principal",
	"GUADALAJARA_LICENCIAS": "padron_completo_guadalajara_licencias_principal",
	"PENSIONES":             "padron_completo_pensiones",
}

// TablaPadron maps a register name to its physical table.
func TablaPadron(nombre string) (string, bool) {
	t, ok := tablasPadron[nombre]
	return t, ok
}

// NombresPadron lists the known register names in alphabetical order.
func NombresPadron() []string {
	out := make([]string, 0, len(tablasPadron))
	for k := range tablasPadron {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ColumnasVinculo are linkage columns hidden from the field list.
var ColumnasVinculo = []string{"uuid_padron", "uuid_proyecto", "id_proyecto"}

// ColumnaPadron describes one column of a register table.
type ColumnaPadron struct {
	NombreColumna string `json:"nombre_columna"`
	TipoDato      string `json:"tipo_dato"`
}
