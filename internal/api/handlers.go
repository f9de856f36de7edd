package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gestiondash/internal/apperr"
	"gestiondash/internal/catalog"
	"gestiondash/internal/database"
	"gestiondash/internal/filters"
	"gestiondash/internal/kpi"
	"gestiondash/internal/snapshots"
	"gestiondash/internal/websocket"
)

func filterParams(r *http.Request) filters.Params {
	return filters.Params{
		Start:      queryParam(r, "start"),
		End:        queryParam(r, "end"),
		CampaignID: queryParam(r, "campaign_id"),
		AgentID:    queryParam(r, "agent_id"),
	}
}

// handleKPIs resuelve filtros y calcula el reporte en una sola conexión.
func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	params := filterParams(r)

	var report *kpi.Report
	err := database.WithConn(r.Context(), s.db, func(q database.Querier) error {
		resolved, err := filters.NewResolver(q).Resolve(r.Context(), params)
		if err != nil {
			return err
		}
		report, err = kpi.NewAggregator(q, s.class).Report(r.Context(), resolved)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSnapshotCreate(w http.ResponseWriter, r *http.Request) {
	var in snapshots.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		s.writeError(w, r, apperr.BadRequest("JSON inválido"))
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	var id int64
	err := database.WithConn(r.Context(), s.db, func(q database.Querier) error {
		var err error
		id, err = snapshots.NewStore(q).Create(r.Context(), in)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(websocket.EventSnapshotCreated, map[string]int64{"id": id})
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Server) handleSnapshotList(w http.ResponseWriter, r *http.Request) {
	var list []snapshots.Snapshot
	err := database.WithConn(r.Context(), s.db, func(q database.Querier) error {
		var err error
		list, err = snapshots.NewStore(q).List(r.Context())
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSnapshotGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, r, apperr.BadRequest("id inválido"))
		return
	}

	var snap *snapshots.Snapshot
	err = database.WithConn(r.Context(), s.db, func(q database.Querier) error {
		var err error
		snap, err = snapshots.NewStore(q).Get(r.Context(), id)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGestiones(w http.ResponseWriter, r *http.Request) {
	operatorID, err := requiredID(r, "operator_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date := queryParam(r, "date")
	if date == "" {
		s.writeError(w, r, apperr.BadRequest("date es obligatorio"))
		return
	}

	s.withCatalog(w, r, func(c *catalog.Catalog) (any, error) {
		return c.GestionesPorOperador(r.Context(), operatorID, date)
	})
}

func (s *Server) handleNoContesta(w http.ResponseWriter, r *http.Request) {
	campaignID, err := requiredID(r, "campaign_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.withCatalog(w, r, func(c *catalog.Catalog) (any, error) {
		return c.NoContesta(r.Context(), campaignID)
	})
}

func (s *Server) handleRendimiento(w http.ResponseWriter, r *http.Request) {
	params := filterParams(r)

	var rows []catalog.RendimientoRow
	err := database.WithConn(r.Context(), s.db, func(q database.Querier) error {
		resolved, err := filters.NewResolver(q).Resolve(r.Context(), params)
		if err != nil {
			return err
		}
		rows, err = catalog.New(q, s.class).Rendimiento(r.Context(), resolved)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleContactos(w http.ResponseWriter, r *http.Request) {
	telefono, ci := queryParam(r, "telefono"), queryParam(r, "ci")
	if telefono == "" && ci == "" {
		s.writeError(w, r, apperr.BadRequest("se requiere telefono o ci"))
		return
	}

	s.withCatalog(w, r, func(c *catalog.Catalog) (any, error) {
		return c.BuscarContactos(r.Context(), telefono, ci)
	})
}

func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	limit, err := optionalLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	text := queryParam(r, "q")

	s.withCatalog(w, r, func(c *catalog.Catalog) (any, error) {
		return c.Campaigns(r.Context(), text, limit)
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	limit, err := optionalLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	text := queryParam(r, "q")

	s.withCatalog(w, r, func(c *catalog.Catalog) (any, error) {
		return c.Agents(r.Context(), text, limit)
	})
}

// withCatalog corre fn con un catálogo sobre una conexión propia y responde.
func (s *Server) withCatalog(w http.ResponseWriter, r *http.Request, fn func(c *catalog.Catalog) (any, error)) {
	var out any
	err := database.WithConn(r.Context(), s.db, func(q database.Querier) error {
		var err error
		out, err = fn(catalog.New(q, s.class))
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
