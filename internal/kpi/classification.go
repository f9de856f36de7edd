// Package kpi calcula contactabilidad y penetración sobre gestiones filtradas.
package kpi

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Classification define qué códigos de resultado cuentan como gestión
// efectiva (hubo contacto) y como exitosa (hubo venta/conversión).
type Classification struct {
	Efectivas []int
	Exitosas  []int
}

// DefaultClassification son los códigos de gestiones_resultado usados por
// la operación: efectivas {1,2,8,10,11,14,16}, exitosas {1}.
var DefaultClassification = Classification{
	Efectivas: []int{1, 2, 8, 10, 11, 14, 16},
	Exitosas:  []int{1},
}

// NewClassification usa los valores por defecto para cualquier lista vacía.
func NewClassification(efectivas, exitosas []int) Classification {
	c := DefaultClassification
	if len(efectivas) > 0 {
		c.Efectivas = efectivas
	}
	if len(exitosas) > 0 {
		c.Exitosas = exitosas
	}
	return c
}

// CountColumns son las tres columnas de conteo (total, efectivas, exitosas)
// calculadas en una sola pasada sobre las mismas filas.
func (c Classification) CountColumns() []string {
	return []string{
		"COUNT(*) AS total",
		fmt.Sprintf("COALESCE(SUM(CASE WHEN g.id_resultado IN (%s) THEN 1 ELSE 0 END), 0) AS efectivas", inList(c.Efectivas)),
		fmt.Sprintf("COALESCE(SUM(CASE WHEN g.id_resultado IN (%s) THEN 1 ELSE 0 END), 0) AS exitosas", inList(c.Exitosas)),
	}
}

func inList(ids []int) string {
	if len(ids) == 0 {
		return "NULL"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// Counts son los conteos base de un conjunto de gestiones.
type Counts struct {
	Total     int64 `json:"gestiones"`
	Efectivas int64 `json:"efectivas"`
	Exitosas  int64 `json:"exitosas"`
}

// Rates son los tres KPIs en porcentaje, redondeados a dos decimales.
type Rates struct {
	Contactabilidad  float64 `json:"contactabilidad"`
	PenetracionBruta float64 `json:"penetracion_bruta"`
	PenetracionNeta  float64 `json:"penetracion_neta"`
}

// Compute calcula los KPIs. Un denominador en cero da 0.
func Compute(c Counts) Rates {
	return Rates{
		Contactabilidad:  percent(c.Efectivas, c.Total),
		PenetracionBruta: percent(c.Exitosas, c.Total),
		PenetracionNeta:  percent(c.Exitosas, c.Efectivas),
	}
}

func percent(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return round2(float64(num) / float64(den) * 100)
}

// round2 redondea a dos decimales alejándose de cero en los empates.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
