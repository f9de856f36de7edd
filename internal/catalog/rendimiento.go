package catalog

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"gestiondash/internal/filters"
	"gestiondash/internal/kpi"
)

// RendimientoRow son los KPIs de un par (campaña, agente).
type RendimientoRow struct {
	CampaignID     int64  `json:"id_campaign"`
	Campana        string `json:"campaña"`
	AgentID        int64  `json:"id_broker"`
	AgenteNombre   string `json:"agente_nombre"`
	AgenteApellido string `json:"agente_apellido"`
	kpi.Counts
	kpi.Rates
}

// Rendimiento agrupa por campaña y agente y calcula los mismos KPIs que el
// tablero global, por grupo. Los grupos salen ordenados por cantidad de
// gestiones.
func (c *Catalog) Rendimiento(ctx context.Context, f *filters.Resolved) ([]RendimientoRow, error) {
	p := f.Predicate.Clone()
	p.Join(filters.JoinCampaigns)
	p.Join(filters.JoinUsers)

	cols := append([]string{
		"g.id_campaign", "c.nombre", "g.id_broker", "u.nombre", "u.apellido",
	}, c.class.CountColumns()...)

	qb := p.Apply(sq.Select(cols...).From("gestiones g")).
		GroupBy("g.id_campaign", "c.nombre", "g.id_broker", "u.nombre", "u.apellido").
		OrderBy("total DESC", "c.nombre", "u.nombre")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando consulta de rendimiento")
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "error consultando rendimiento")
	}
	defer func() { _ = rows.Close() }()

	out := make([]RendimientoRow, 0)
	for rows.Next() {
		var r RendimientoRow
		var campana, nombre, apellido sql.NullString
		if err := rows.Scan(
			&r.CampaignID, &campana, &r.AgentID, &nombre, &apellido,
			&r.Total, &r.Efectivas, &r.Exitosas,
		); err != nil {
			return nil, eris.Wrap(err, "error escaneando rendimiento")
		}
		r.Campana, r.AgenteNombre, r.AgenteApellido = campana.String, nombre.String, apellido.String
		r.Rates = kpi.Compute(r.Counts)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "error iterando rendimiento")
	}
	return out, nil
}
