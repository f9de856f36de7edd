package kpi

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"gestiondash/internal/database"
	"gestiondash/internal/filters"
)

// TopLimit es la cantidad de pares (campaña, agente) del resumen.
const TopLimit = 10

const joinResultados = "gestiones_resultado r ON r.id = g.id_resultado"

// Distribucion es la cantidad de gestiones por resultado.
type Distribucion struct {
	Resultado string `json:"resultado"`
	Cantidad  int64  `json:"cantidad"`
}

// ResumenRow es un par (campaña, agente) con su cantidad de gestiones.
type ResumenRow struct {
	Campana        string `json:"campaña"`
	AgenteNombre   string `json:"agente_nombre"`
	AgenteApellido string `json:"agente_apellido"`
	Gestiones      int64  `json:"gestiones"`
}

// Report es la respuesta de /api/kpis.
type Report struct {
	Totals       Counts         `json:"totals"`
	KPIs         Rates          `json:"kpis"`
	Distribution []Distribucion `json:"distribution"`
	TopResumen   []ResumenRow   `json:"top_resumen"`
	Filters      filters.Echo   `json:"filters"`
}

// Aggregator ejecuta las consultas de KPIs sobre una conexión.
type Aggregator struct {
	q     database.Querier
	class Classification
}

// NewAggregator crea un agregador con la clasificación dada.
func NewAggregator(q database.Querier, class Classification) *Aggregator {
	return &Aggregator{q: q, class: class}
}

// Report calcula conteos, KPIs, distribución y resumen para el filtro.
func (a *Aggregator) Report(ctx context.Context, f *filters.Resolved) (*Report, error) {
	counts, err := a.Counts(ctx, f)
	if err != nil {
		return nil, err
	}
	dist, err := a.Distribution(ctx, f)
	if err != nil {
		return nil, err
	}
	top, err := a.TopResumen(ctx, f)
	if err != nil {
		return nil, err
	}

	return &Report{
		Totals:       counts,
		KPIs:         Compute(counts),
		Distribution: dist,
		TopResumen:   top,
		Filters:      f.Echo(),
	}, nil
}

// Counts obtiene total, efectivas y exitosas en una única consulta, así los
// tres valores salen del mismo conjunto de filas.
func (a *Aggregator) Counts(ctx context.Context, f *filters.Resolved) (Counts, error) {
	qb := f.Predicate.Apply(sq.Select(a.class.CountColumns()...).From("gestiones g"))

	query, args, err := qb.ToSql()
	if err != nil {
		return Counts{}, eris.Wrap(err, "error armando consulta de totales")
	}

	var c Counts
	if err := a.q.QueryRowContext(ctx, query, args...).Scan(&c.Total, &c.Efectivas, &c.Exitosas); err != nil {
		return Counts{}, eris.Wrap(err, "error consultando totales")
	}
	return c, nil
}

// Distribution agrupa por resultado, de mayor a menor cantidad.
func (a *Aggregator) Distribution(ctx context.Context, f *filters.Resolved) ([]Distribucion, error) {
	p := f.Predicate.Clone()
	p.Join(joinResultados)

	qb := p.Apply(sq.Select("r.nombre AS resultado", "COUNT(*) AS cantidad").From("gestiones g")).
		GroupBy("r.id", "r.nombre").
		OrderBy("cantidad DESC")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando consulta de distribución")
	}

	rows, err := a.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "error consultando distribución")
	}
	defer func() { _ = rows.Close() }()

	dist := make([]Distribucion, 0)
	for rows.Next() {
		var d Distribucion
		var nombre sql.NullString
		if err := rows.Scan(&nombre, &d.Cantidad); err != nil {
			return nil, eris.Wrap(err, "error escaneando distribución")
		}
		d.Resultado = nombre.String
		dist = append(dist, d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "error iterando distribución")
	}
	return dist, nil
}

// TopResumen devuelve los TopLimit pares (campaña, agente) con más gestiones.
func (a *Aggregator) TopResumen(ctx context.Context, f *filters.Resolved) ([]ResumenRow, error) {
	p := f.Predicate.Clone()
	p.Join(filters.JoinCampaigns)
	p.Join(filters.JoinUsers)

	qb := p.Apply(sq.Select(
		"c.nombre AS campana",
		"u.nombre AS agente_nombre",
		"u.apellido AS agente_apellido",
		"COUNT(*) AS gestiones",
	).From("gestiones g")).
		GroupBy("c.id", "c.nombre", "u.id", "u.nombre", "u.apellido").
		OrderBy("gestiones DESC").
		Limit(TopLimit)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando consulta de resumen")
	}

	rows, err := a.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "error consultando resumen")
	}
	defer func() { _ = rows.Close() }()

	top := make([]ResumenRow, 0, TopLimit)
	for rows.Next() {
		var r ResumenRow
		var campana, nombre, apellido sql.NullString
		if err := rows.Scan(&campana, &nombre, &apellido, &r.Gestiones); err != nil {
			return nil, eris.Wrap(err, "error escaneando resumen")
		}
		r.Campana, r.AgenteNombre, r.AgenteApellido = campana.String, nombre.String, apellido.String
		top = append(top, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "error iterando resumen")
	}
	return top, nil
}
