package filters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"gestiondash/internal/database"
)

// TimestampColumn es la columna de fecha de gestiones, en formato YYYYMMDDhhmmss.
const TimestampColumn = "g.`timestamp`"

// Params son los filtros tal como llegan del cliente. Todos opcionales.
// CampaignID y AgentID aceptan un id numérico o texto libre.
type Params struct {
	Start      string
	End        string
	CampaignID string
	AgentID    string
}

// Labels son los nombres legibles de los filtros de campaña y agente.
type Labels struct {
	Campaign *string `json:"campaign_label"`
	Agent    *string `json:"agent_label"`
}

// Resolved es el resultado de resolver unos Params.
type Resolved struct {
	Params    Params
	Predicate *Predicate
	Labels    Labels
}

// Echo es la forma en que los filtros vuelven al cliente y se guardan en
// los snapshots.
type Echo struct {
	Start         *string `json:"start"`
	End           *string `json:"end"`
	CampaignID    *string `json:"campaign_id"`
	AgentID       *string `json:"agent_id"`
	CampaignLabel *string `json:"campaign_label"`
	AgentLabel    *string `json:"agent_label"`
}

// Echo devuelve los filtros recibidos más las etiquetas resueltas.
func (r *Resolved) Echo() Echo {
	return Echo{
		Start:         optional(r.Params.Start),
		End:           optional(r.Params.End),
		CampaignID:    optional(r.Params.CampaignID),
		AgentID:       optional(r.Params.AgentID),
		CampaignLabel: r.Labels.Campaign,
		AgentLabel:    r.Labels.Agent,
	}
}

// dimension describe cómo filtrar y etiquetar por una tabla de referencia.
type dimension struct {
	column   string
	join     string
	from     string
	idColumn string
	display  string
	match    func(token string) sq.Sqlizer
}

var campaignDimension = dimension{
	column:   "g.id_campaign",
	join:     JoinCampaigns,
	from:     "campaigns c",
	idColumn: "c.id",
	display:  "c.nombre",
	match: func(token string) sq.Sqlizer {
		return sq.Or{
			sq.Expr("c.nombre LIKE BINARY ?", containsPattern(token)),
			sq.Eq{"c.codigo": token},
		}
	},
}

var agentDimension = dimension{
	column:   "g.id_broker",
	join:     JoinUsers,
	from:     "users u",
	idColumn: "u.id",
	display:  "CONCAT_WS(' ', u.nombre, u.apellido)",
	match: func(token string) sq.Sqlizer {
		return sq.Or{
			sq.Expr("CONCAT_WS(' ', u.nombre, u.apellido) LIKE BINARY ?", containsPattern(token)),
			sq.Eq{"u.username": token},
		}
	},
}

// Resolver traduce Params a un Resolved, consultando las tablas de
// referencia para obtener las etiquetas.
type Resolver struct {
	q database.Querier
}

// NewResolver crea un resolver sobre la conexión dada.
func NewResolver(q database.Querier) *Resolver {
	return &Resolver{q: q}
}

// Resolve arma el predicado y las etiquetas. Un id o texto sin coincidencias
// no es error: la etiqueta cae a "ID {token}" o al texto recibido. Sólo los
// errores de la base se propagan.
func (r *Resolver) Resolve(ctx context.Context, params Params) (*Resolved, error) {
	params = Params{
		Start:      strings.TrimSpace(params.Start),
		End:        strings.TrimSpace(params.End),
		CampaignID: strings.TrimSpace(params.CampaignID),
		AgentID:    strings.TrimSpace(params.AgentID),
	}

	res := &Resolved{Params: params, Predicate: &Predicate{}}

	if cond := DateRange(params.Start, params.End); cond != nil {
		res.Predicate.Where(cond)
	}

	var err error
	res.Labels.Campaign, err = r.resolveToken(ctx, res.Predicate, campaignDimension, params.CampaignID)
	if err != nil {
		return nil, eris.Wrap(err, "error resolviendo campaña")
	}
	res.Labels.Agent, err = r.resolveToken(ctx, res.Predicate, agentDimension, params.AgentID)
	if err != nil {
		return nil, eris.Wrap(err, "error resolviendo agente")
	}

	return res, nil
}

func (r *Resolver) resolveToken(ctx context.Context, p *Predicate, d dimension, token string) (*string, error) {
	if token == "" {
		return nil, nil
	}

	if id, ok := numericID(token); ok {
		p.Where(sq.Eq{d.column: id})
		label, err := r.labelByID(ctx, d, id, token)
		if err != nil {
			return nil, err
		}
		return &label, nil
	}

	cond := d.match(token)
	p.Join(d.join)
	p.Where(cond)
	label, err := r.labelByText(ctx, d, cond, token)
	if err != nil {
		return nil, err
	}
	return &label, nil
}

func (r *Resolver) labelByID(ctx context.Context, d dimension, id int64, token string) (string, error) {
	query, args, err := sq.Select(d.display).From(d.from).Where(sq.Eq{d.idColumn: id}).ToSql()
	if err != nil {
		return "", eris.Wrap(err, "error armando consulta de etiqueta")
	}

	var name sql.NullString
	err = r.q.QueryRowContext(ctx, query, args...).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Sprintf("ID %s", token), nil
	}
	if err != nil {
		return "", eris.Wrap(err, "error consultando etiqueta")
	}
	if label := strings.TrimSpace(name.String); label != "" {
		return label, nil
	}
	return fmt.Sprintf("ID %s", token), nil
}

func (r *Resolver) labelByText(ctx context.Context, d dimension, cond sq.Sqlizer, token string) (string, error) {
	query, args, err := sq.Select(d.display).Distinct().From(d.from).Where(cond).ToSql()
	if err != nil {
		return "", eris.Wrap(err, "error armando consulta de etiqueta")
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return "", eris.Wrap(err, "error consultando etiquetas")
	}
	defer func() { _ = rows.Close() }()

	seen := map[string]bool{}
	var names []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return "", eris.Wrap(err, "error escaneando etiqueta")
		}
		n := strings.TrimSpace(name.String)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return "", eris.Wrap(err, "error iterando etiquetas")
	}

	if len(names) == 0 {
		return token, nil
	}
	sort.Strings(names)
	return strings.Join(names, ", "), nil
}

// DateRange devuelve la condición de fecha sobre gestiones, o nil si no hay
// ninguna cota. Una fecha de 8 dígitos se extiende al día completo.
func DateRange(start, end string) sq.Sqlizer {
	start = ExpandDay(start, "000000")
	end = ExpandDay(end, "235959")

	switch {
	case start != "" && end != "":
		return sq.Expr(TimestampColumn+" BETWEEN ? AND ?", start, end)
	case start != "":
		return sq.GtOrEq{TimestampColumn: start}
	case end != "":
		return sq.LtOrEq{TimestampColumn: end}
	default:
		return nil
	}
}

// ExpandDay completa una fecha YYYYMMDD con la hora dada. Cualquier otro
// valor se devuelve sin cambios.
func ExpandDay(value, hhmmss string) string {
	if len(value) == 8 && IsDigits(value) {
		return value + hhmmss
	}
	return value
}

// IsDigits indica si s no está vacío y sólo tiene dígitos ASCII.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func numericID(token string) (int64, bool) {
	if !IsDigits(token) {
		return 0, false
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(token string) string {
	return "%" + likeEscaper.Replace(token) + "%"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
