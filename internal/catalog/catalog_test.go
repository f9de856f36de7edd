package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestiondash/internal/apperr"
	"gestiondash/internal/filters"
	"gestiondash/internal/kpi"
)

func newCatalog(t *testing.T) (*Catalog, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, kpi.DefaultClassification), mock
}

var gestionCols = []string{
	"id", "timestamp", "id_campaign", "id_broker", "id_contacto",
	"ci", "nombre", "apellido", "id_resultado", "resultado", "observaciones",
}

func TestGestionesPorOperador_ExpandsDayAndKeepsCallsWithoutOutcome(t *testing.T) {
	c, mock := newCatalog(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"LEFT JOIN gestiones_resultado r ON r.id = g.id_resultado " +
			"WHERE g.id_broker = ? AND g.`timestamp` BETWEEN ? AND ? " +
			"ORDER BY g.`timestamp` DESC")).
		WithArgs(int64(12), "20240305000000", "20240305235959").
		WillReturnRows(sqlmock.NewRows(gestionCols).
			AddRow(2, "20240305173000", 3, 12, 99, "1234567", "Laura", "Díaz", nil, nil, "volver a llamar").
			AddRow(1, "20240305090000", 3, 12, 98, "7654321", "Juan", "Rey", 1, "Venta", ""))

	got, err := c.GestionesPorOperador(context.Background(), 12, "20240305")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(2), got[0].ID)
	assert.Nil(t, got[0].Resultado)
	assert.Nil(t, got[0].ResultadoID)
	assert.Equal(t, "volver a llamar", got[0].Observaciones)

	require.NotNil(t, got[1].Resultado)
	assert.Equal(t, "Venta", *got[1].Resultado)
	assert.Equal(t, int64(1), *got[1].ResultadoID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGestionesPorOperador_InvalidDate(t *testing.T) {
	c, mock := newCatalog(t)

	for _, date := range []string{"", "2024-03-05", "202403051", "2024030a"} {
		_, err := c.GestionesPorOperador(context.Background(), 1, date)
		require.Error(t, err, date)
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoContesta_CaseInsensitiveEquality(t *testing.T) {
	c, mock := newCatalog(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DISTINCT ct.id, ct.ci, ct.nombre, ct.apellido FROM gestiones g " +
			"JOIN contactos ct ON ct.id = g.id_contacto " +
			"JOIN gestiones_resultado r ON r.id = g.id_resultado " +
			"WHERE g.id_campaign = ? AND LOWER(r.nombre) = ? " +
			"ORDER BY ct.apellido, ct.nombre")).
		WithArgs(int64(4), "no contesta").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ci", "nombre", "apellido"}).
			AddRow(10, "111", "Ana", "Alvarez").
			AddRow(11, "222", "Bruno", "Benítez"))

	got, err := c.NoContesta(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alvarez", got[0].Apellido)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuscarContactos_RequiresPhoneOrCI(t *testing.T) {
	c, mock := newCatalog(t)

	_, err := c.BuscarContactos(context.Background(), "", "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Equal(t, "se requiere telefono o ci", apperr.Message(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuscarContactos_ByPhoneMatchesAnySlot(t *testing.T) {
	c, mock := newCatalog(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE (t1.numero = ? OR t2.numero = ? OR m1.numero = ? OR m2.numero = ?)")).
		WithArgs("099123456", "099123456", "099123456", "099123456").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ci", "nombre", "apellido", "t1", "t2", "m1", "m2"}).
			AddRow(5, "1234567", "Laura", "Díaz", nil, nil, "099123456", nil))

	got, err := c.BuscarContactos(context.Background(), "099123456", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Telefono1)
	require.NotNil(t, got[0].Celular1)
	assert.Equal(t, "099123456", *got[0].Celular1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuscarContactos_ByCI(t *testing.T) {
	c, mock := newCatalog(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE ct.ci = ?")).
		WithArgs("1234567").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ci", "nombre", "apellido", "t1", "t2", "m1", "m2"}))

	got, err := c.BuscarContactos(context.Background(), "", "1234567")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRendimiento_PerGroupKPIs(t *testing.T) {
	c, mock := newCatalog(t)

	p := &filters.Predicate{}
	p.Where(sq.Eq{"g.id_campaign": int64(3)})

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM gestiones g JOIN campaigns c ON c.id = g.id_campaign JOIN users u ON u.id = g.id_broker " +
			"WHERE g.id_campaign = ? " +
			"GROUP BY g.id_campaign, c.nombre, g.id_broker, u.nombre, u.apellido")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id_campaign", "campana", "id_broker", "nombre", "apellido", "total", "efectivas", "exitosas",
		}).
			AddRow(3, "Cobranzas", 8, "Ana", "Pérez", 200, 80, 20).
			AddRow(3, "Cobranzas", 9, "Luis", "Sosa", 0, 0, 0))

	got, err := c.Rendimiento(context.Background(), &filters.Resolved{Predicate: p})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, kpi.Rates{Contactabilidad: 40, PenetracionBruta: 10, PenetracionNeta: 25}, got[0].Rates)
	assert.Equal(t, kpi.Rates{}, got[1].Rates)
	assert.Equal(t, int64(200), got[0].Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRendimiento_QueryError(t *testing.T) {
	c, mock := newCatalog(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("db down"))

	_, err := c.Rendimiento(context.Background(), &filters.Resolved{Predicate: &filters.Predicate{}})
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, 500, apperr.Status(err))
}

func TestCampaigns_DefaultLimitWithoutText(t *testing.T) {
	c, mock := newCatalog(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.id, c.codigo, c.nombre FROM campaigns c ORDER BY c.nombre LIMIT 10")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "codigo", "nombre"}).AddRow(1, "COB", "Cobranzas"))

	got, err := c.Campaigns(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "COB", got[0].Codigo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgents_TextSearch(t *testing.T) {
	c, mock := newCatalog(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE (u.username LIKE ? OR u.nombre LIKE ? OR u.apellido LIKE ?) ORDER BY u.nombre, u.apellido LIMIT 100")).
		WithArgs("%ana%", "%ana%", "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "nombre", "apellido"}).AddRow(8, "aperez", "Ana", "Pérez"))

	got, err := c.Agents(context.Background(), "ana", 500)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "aperez", got[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-5))
	assert.Equal(t, 25, ClampLimit(25))
	assert.Equal(t, MaxLimit, ClampLimit(1000))
}
