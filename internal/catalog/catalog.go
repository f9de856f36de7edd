// Package catalog reúne las consultas fijas del tablero: historial por
// operador, contactos que no contestan, rendimiento por campaña y agente,
// búsqueda de contactos y autocompletado de campañas y agentes.
package catalog

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"gestiondash/internal/apperr"
	"gestiondash/internal/database"
	"gestiondash/internal/filters"
	"gestiondash/internal/kpi"
)

const (
	// DefaultLimit es el tamaño del autocompletado si no se indica.
	DefaultLimit = 10
	// MaxLimit acota el autocompletado.
	MaxLimit = 100

	// NoContestaResultado se compara sin distinguir mayúsculas.
	NoContestaResultado = "no contesta"
)

// Catalog ejecuta las consultas sobre una conexión.
type Catalog struct {
	q     database.Querier
	class kpi.Classification
}

// New crea un catálogo. class se usa en Rendimiento.
func New(q database.Querier, class kpi.Classification) *Catalog {
	return &Catalog{q: q, class: class}
}

// GestionesPorOperador devuelve las gestiones de un agente en un día
// (YYYYMMDD), de la más reciente a la más antigua. Las gestiones sin
// resultado también se incluyen.
func (c *Catalog) GestionesPorOperador(ctx context.Context, operatorID int64, date string) ([]database.Gestion, error) {
	if len(date) != 8 || !filters.IsDigits(date) {
		return nil, apperr.BadRequest("date debe tener formato YYYYMMDD")
	}

	qb := sq.Select(
		"g.id", "g.`timestamp`", "g.id_campaign", "g.id_broker", "g.id_contacto",
		"ct.ci", "ct.nombre", "ct.apellido",
		"g.id_resultado", "r.nombre", "g.observaciones",
	).
		From("gestiones g").
		Join("contactos ct ON ct.id = g.id_contacto").
		LeftJoin("gestiones_resultado r ON r.id = g.id_resultado").
		Where(sq.Eq{"g.id_broker": operatorID}).
		Where(sq.Expr(filters.TimestampColumn+" BETWEEN ? AND ?", date+"000000", date+"235959")).
		OrderBy(filters.TimestampColumn + " DESC")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando consulta de gestiones")
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "error consultando gestiones")
	}
	defer func() { _ = rows.Close() }()

	gestiones := make([]database.Gestion, 0)
	for rows.Next() {
		var g database.Gestion
		var ci, nombre, apellido, resultado, obs sql.NullString
		var resultadoID sql.NullInt64
		if err := rows.Scan(
			&g.ID, &g.Timestamp, &g.CampaignID, &g.BrokerID, &g.ContactoID,
			&ci, &nombre, &apellido,
			&resultadoID, &resultado, &obs,
		); err != nil {
			return nil, eris.Wrap(err, "error escaneando gestión")
		}
		g.ContactoCI, g.ContactoNombre, g.ContactoApellido = ci.String, nombre.String, apellido.String
		if resultadoID.Valid {
			id := resultadoID.Int64
			g.ResultadoID = &id
		}
		g.Resultado = database.NullableString(resultado.Valid, resultado.String)
		g.Observaciones = obs.String
		gestiones = append(gestiones, g)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "error iterando gestiones")
	}
	return gestiones, nil
}

// NoContesta devuelve los contactos distintos de una campaña con alguna
// gestión cuyo resultado es exactamente "No contesta" (sin distinguir
// mayúsculas), ordenados por apellido y nombre.
func (c *Catalog) NoContesta(ctx context.Context, campaignID int64) ([]database.Contacto, error) {
	qb := sq.Select("ct.id", "ct.ci", "ct.nombre", "ct.apellido").
		Distinct().
		From("gestiones g").
		Join("contactos ct ON ct.id = g.id_contacto").
		Join("gestiones_resultado r ON r.id = g.id_resultado").
		Where(sq.Eq{"g.id_campaign": campaignID}).
		Where(sq.Expr("LOWER(r.nombre) = ?", NoContestaResultado)).
		OrderBy("ct.apellido", "ct.nombre")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando consulta de no contesta")
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "error consultando no contesta")
	}
	defer func() { _ = rows.Close() }()

	contactos := make([]database.Contacto, 0)
	for rows.Next() {
		var ct database.Contacto
		var ci, nombre, apellido sql.NullString
		if err := rows.Scan(&ct.ID, &ci, &nombre, &apellido); err != nil {
			return nil, eris.Wrap(err, "error escaneando contacto")
		}
		ct.CI, ct.Nombre, ct.Apellido = ci.String, nombre.String, apellido.String
		contactos = append(contactos, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "error iterando contactos")
	}
	return contactos, nil
}

// BuscarContactos busca por teléfono (cualquiera de los cuatro) y/o por CI.
// Si llegan los dos, el contacto debe cumplir ambos.
func (c *Catalog) BuscarContactos(ctx context.Context, telefono, ci string) ([]database.Contacto, error) {
	telefono, ci = strings.TrimSpace(telefono), strings.TrimSpace(ci)
	if telefono == "" && ci == "" {
		return nil, apperr.BadRequest("se requiere telefono o ci")
	}

	qb := sq.Select(
		"ct.id", "ct.ci", "ct.nombre", "ct.apellido",
		"t1.numero", "t2.numero", "m1.numero", "m2.numero",
	).
		From("contactos ct").
		LeftJoin("telefonos t1 ON t1.id = ct.id_telefono_1").
		LeftJoin("telefonos t2 ON t2.id = ct.id_telefono_2").
		LeftJoin("telefonos m1 ON m1.id = ct.id_celular_1").
		LeftJoin("telefonos m2 ON m2.id = ct.id_celular_2").
		OrderBy("ct.apellido", "ct.nombre")

	if telefono != "" {
		qb = qb.Where(sq.Or{
			sq.Eq{"t1.numero": telefono},
			sq.Eq{"t2.numero": telefono},
			sq.Eq{"m1.numero": telefono},
			sq.Eq{"m2.numero": telefono},
		})
	}
	if ci != "" {
		qb = qb.Where(sq.Eq{"ct.ci": ci})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando búsqueda de contactos")
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "error buscando contactos")
	}
	defer func() { _ = rows.Close() }()

	contactos := make([]database.Contacto, 0)
	for rows.Next() {
		var ct database.Contacto
		var ciCol, nombre, apellido, t1, t2, m1, m2 sql.NullString
		if err := rows.Scan(&ct.ID, &ciCol, &nombre, &apellido, &t1, &t2, &m1, &m2); err != nil {
			return nil, eris.Wrap(err, "error escaneando contacto")
		}
		ct.CI, ct.Nombre, ct.Apellido = ciCol.String, nombre.String, apellido.String
		ct.Telefono1 = database.NullableString(t1.Valid, t1.String)
		ct.Telefono2 = database.NullableString(t2.Valid, t2.String)
		ct.Celular1 = database.NullableString(m1.Valid, m1.String)
		ct.Celular2 = database.NullableString(m2.Valid, m2.String)
		contactos = append(contactos, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "error iterando contactos")
	}
	return contactos, nil
}

// ClampLimit aplica el valor por defecto y el máximo del autocompletado.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
