// Package apperr define las clases de error que la API traduce a códigos HTTP.
package apperr

import (
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
)

var (
	// ErrBadRequest marca parámetros faltantes o malformados.
	ErrBadRequest = eris.New("solicitud inválida")
	// ErrNotFound marca un recurso inexistente.
	ErrNotFound = eris.New("no encontrado")
)

// BadRequest devuelve un error de cliente con un mensaje descriptivo.
func BadRequest(msg string) error {
	return &Error{kind: ErrBadRequest, msg: msg}
}

// NotFound devuelve un error de recurso inexistente.
func NotFound(msg string) error {
	return &Error{kind: ErrNotFound, msg: msg}
}

// Error es un error clasificado. Su mensaje es el que ve el cliente.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Is permite errors.Is contra ErrBadRequest y ErrNotFound.
func (e *Error) Is(target error) bool { return target == e.kind }

// Status traduce un error a código HTTP. Todo lo que no está clasificado es 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message devuelve el mensaje para el cliente: el propio en errores
// clasificados, el completo (con contexto) en los internos.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return err.Error()
}
