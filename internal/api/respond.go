package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"gestiondash/internal/apperr"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError traduce err con apperr. Los 500 se registran con su contexto.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("error atendiendo solicitud",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorBody{Error: apperr.Message(err)})
}

func queryParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// requiredID lee un parámetro entero obligatorio.
func requiredID(r *http.Request, name string) (int64, error) {
	raw := queryParam(r, name)
	if raw == "" {
		return 0, apperr.BadRequest(name + " es obligatorio")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.BadRequest(name + " debe ser numérico")
	}
	return id, nil
}

// optionalLimit devuelve 0 si no viene, que el catálogo toma como el valor por defecto.
func optionalLimit(r *http.Request) (int, error) {
	raw := queryParam(r, "limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("limit debe ser numérico")
	}
	return n, nil
}
