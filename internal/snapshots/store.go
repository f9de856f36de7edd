// Package snapshots guarda copias inmutables de un resultado de KPIs.
// Los tres payloads se guardan y devuelven tal cual llegaron.
package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"gestiondash/internal/apperr"
	"gestiondash/internal/database"
)

const (
	// Table es la tabla de snapshots creada por provisioning.
	Table = "dashboard_snapshots"
	// ListLimit acota List.
	ListLimit = 100
)

// Input es el cuerpo de un snapshot nuevo.
type Input struct {
	Filters      json.RawMessage `json:"filters"`
	KPIs         json.RawMessage `json:"kpis"`
	Distribution json.RawMessage `json:"distribution"`
}

// Snapshot es un registro guardado. Distribution queda vacío en List.
type Snapshot struct {
	ID           int64           `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Filters      json.RawMessage `json:"filters"`
	KPIs         json.RawMessage `json:"kpis"`
	Distribution json.RawMessage `json:"distribution,omitempty"`
}

// Store lee y escribe snapshots.
type Store struct {
	q database.Querier
}

// NewStore crea un store sobre q.
func NewStore(q database.Querier) *Store {
	return &Store{q: q}
}

// Validate comprueba que los tres payloads estén presentes y sean JSON.
// No mira su contenido.
func (in Input) Validate() error {
	fields := []struct {
		name string
		raw  json.RawMessage
	}{
		{"filters", in.Filters},
		{"kpis", in.KPIs},
		{"distribution", in.Distribution},
	}
	for _, f := range fields {
		if len(f.raw) == 0 || string(f.raw) == "null" {
			return apperr.BadRequest(f.name + " es obligatorio")
		}
		if !json.Valid(f.raw) {
			return apperr.BadRequest(f.name + " no es JSON válido")
		}
	}
	return nil
}

// Create guarda un snapshot y devuelve su id. created_at lo asigna la base.
func (s *Store) Create(ctx context.Context, in Input) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	query, args, err := sq.Insert(Table).
		Columns("filters_json", "kpis_json", "distribution_json").
		Values(string(in.Filters), string(in.KPIs), string(in.Distribution)).
		ToSql()
	if err != nil {
		return 0, eris.Wrap(err, "error armando insert de snapshot")
	}

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrap(err, "error guardando snapshot")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "error obteniendo id de snapshot")
	}
	return id, nil
}

// List devuelve los últimos ListLimit snapshots, sin distribución.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	query, args, err := sq.Select("id", "created_at", "filters_json", "kpis_json").
		From(Table).
		OrderBy("created_at DESC", "id DESC").
		Limit(ListLimit).
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando consulta de snapshots")
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "error listando snapshots")
	}
	defer func() { _ = rows.Close() }()

	out := make([]Snapshot, 0)
	for rows.Next() {
		var snap Snapshot
		var filters, kpis []byte
		if err := rows.Scan(&snap.ID, &snap.CreatedAt, &filters, &kpis); err != nil {
			return nil, eris.Wrap(err, "error escaneando snapshot")
		}
		snap.Filters, snap.KPIs = rawOrNull(filters), rawOrNull(kpis)
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "error iterando snapshots")
	}
	return out, nil
}

// Get devuelve el snapshot completo o apperr.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Snapshot, error) {
	query, args, err := sq.Select("id", "created_at", "filters_json", "kpis_json", "distribution_json").
		From(Table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "error armando consulta de snapshot")
	}

	var snap Snapshot
	var filters, kpis, dist []byte
	err = s.q.QueryRowContext(ctx, query, args...).Scan(&snap.ID, &snap.CreatedAt, &filters, &kpis, &dist)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Snapshot no encontrado")
	}
	if err != nil {
		return nil, eris.Wrapf(err, "error leyendo snapshot %d", id)
	}
	snap.Filters, snap.KPIs, snap.Distribution = rawOrNull(filters), rawOrNull(kpis), rawOrNull(dist)
	return &snap, nil
}

// rawOrNull evita devolver un RawMessage vacío, que no es JSON.
func rawOrNull(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}
