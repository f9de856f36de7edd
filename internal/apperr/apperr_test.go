package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"bad request", BadRequest("date es obligatorio"), http.StatusBadRequest},
		{"not found", NotFound("Snapshot no encontrado"), http.StatusNotFound},
		{"envuelto", eris.Wrap(BadRequest("x"), "contexto"), http.StatusBadRequest},
		{"interno", errors.New("connection refused"), http.StatusInternalServerError},
		{"interno envuelto", eris.Wrap(errors.New("timeout"), "error consultando"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Snapshot no encontrado", Message(eris.Wrap(NotFound("Snapshot no encontrado"), "get")))
	assert.Contains(t, Message(eris.Wrap(errors.New("timeout"), "error consultando")), "timeout")
}

func TestKindsAreDistinct(t *testing.T) {
	assert.NotErrorIs(t, BadRequest("x"), ErrNotFound)
	assert.NotErrorIs(t, NotFound("x"), ErrBadRequest)
}
