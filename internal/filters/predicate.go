// Package filters convierte los filtros de una consulta (rango de fechas,
// campaña, agente) en joins y condiciones SQL sobre la tabla gestiones g.
package filters

import (
	"slices"

	sq "github.com/Masterminds/squirrel"
)

// Joins que puede requerir un filtro de texto. Las consultas que necesiten
// la misma tabla deben usar estas constantes para que Join las deduplique.
const (
	JoinCampaigns = "campaigns c ON c.id = g.id_campaign"
	JoinUsers     = "users u ON u.id = g.id_broker"
)

// Predicate acumula joins (conjunto ordenado) y condiciones (lista ordenada)
// y los renderiza juntos, de modo que el texto y los argumentos no se desfasan.
type Predicate struct {
	joins []string
	conds []sq.Sqlizer
}

// Join agrega un JOIN si todavía no está.
func (p *Predicate) Join(clause string) {
	if !slices.Contains(p.joins, clause) {
		p.joins = append(p.joins, clause)
	}
}

// Where agrega una condición. Las condiciones se combinan con AND.
func (p *Predicate) Where(cond sq.Sqlizer) {
	p.conds = append(p.conds, cond)
}

// Joins devuelve los joins en el orden en que se agregaron.
func (p *Predicate) Joins() []string {
	return slices.Clone(p.joins)
}

// Empty indica que no hay ninguna condición.
func (p *Predicate) Empty() bool {
	return len(p.conds) == 0
}

// Clone devuelve una copia independiente.
func (p *Predicate) Clone() *Predicate {
	return &Predicate{
		joins: slices.Clone(p.joins),
		conds: slices.Clone(p.conds),
	}
}

// ToSql renderiza las condiciones como texto WHERE (sin la palabra clave)
// con placeholders y los argumentos en el mismo orden.
func (p *Predicate) ToSql() (string, []any, error) {
	if p.Empty() {
		return "", []any{}, nil
	}
	return sq.And(p.conds).ToSql()
}

// Apply agrega joins y condiciones a un SELECT.
func (p *Predicate) Apply(qb sq.SelectBuilder) sq.SelectBuilder {
	for _, j := range p.joins {
		qb = qb.Join(j)
	}
	for _, c := range p.conds {
		qb = qb.Where(c)
	}
	return qb
}
