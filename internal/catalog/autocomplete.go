package catalog

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"gestiondash/internal/database"
)

// Campaigns sugiere campañas por nombre o código. Sin texto devuelve las
// primeras alfabéticamente.
func (c *Catalog) Campaigns(ctx context.Context, text string, limit int) ([]database.Campaign, error) {
	qb := sq.Select("c.id", "c.codigo", "c.nombre").
		From("campaigns c").
		OrderBy("c.nombre").
		Limit(uint64(ClampLimit(limit))) // #nosec G115 -- acotado a [1, MaxLimit]

	if text = strings.TrimSpace(text); text != "" {
		pattern := "%" + text + "%"
		qb = qb.Where(sq.Or{sq.Like{"c.nombre": pattern}, sq.Like{"c.codigo": pattern}})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando consulta de campañas")
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "error consultando campañas")
	}
	defer func() { _ = rows.Close() }()

	out := make([]database.Campaign, 0)
	for rows.Next() {
		var camp database.Campaign
		var codigo, nombre sql.NullString
		if err := rows.Scan(&camp.ID, &codigo, &nombre); err != nil {
			return nil, eris.Wrap(err, "error escaneando campaña")
		}
		camp.Codigo, camp.Nombre = codigo.String, nombre.String
		out = append(out, camp)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "error iterando campañas")
	}
	return out, nil
}

// Agents sugiere agentes por usuario, nombre o apellido.
func (c *Catalog) Agents(ctx context.Context, text string, limit int) ([]database.Agent, error) {
	qb := sq.Select("u.id", "u.username", "u.nombre", "u.apellido").
		From("users u").
		OrderBy("u.nombre", "u.apellido").
		Limit(uint64(ClampLimit(limit))) // #nosec G115 -- acotado a [1, MaxLimit]

	if text = strings.TrimSpace(text); text != "" {
		pattern := "%" + text + "%"
		qb = qb.Where(sq.Or{
			sq.Like{"u.username": pattern},
			sq.Like{"u.nombre": pattern},
			sq.Like{"u.apellido": pattern},
		})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando consulta de agentes")
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "error consultando agentes")
	}
	defer func() { _ = rows.Close() }()

	out := make([]database.Agent, 0)
	for rows.Next() {
		var a database.Agent
		var username, nombre, apellido sql.NullString
		if err := rows.Scan(&a.ID, &username, &nombre, &apellido); err != nil {
			return nil, eris.Wrap(err, "error escaneando agente")
		}
		a.Username, a.Nombre, a.Apellido = username.String, nombre.String, apellido.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "error iterando agentes")
	}
	return out, nil
}
