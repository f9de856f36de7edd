package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestiondash/internal/apperr"
)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

var sampleInput = Input{
	Filters:      json.RawMessage(`{"start":"20240101000000","end":null,"campaign_id":"7","campaign_label":"Ventas Hogar"}`),
	KPIs:         json.RawMessage(`{"contactabilidad":40,"penetracion_bruta":10,"penetracion_neta":25}`),
	Distribution: json.RawMessage(`[{"resultado":"No contesta","cantidad":120},{"resultado":"Venta","cantidad":20}]`),
}

func TestCreateThenGet_ReturnsPayloadsUnchanged(t *testing.T) {
	s, mock := newStore(t)
	created := time.Date(2024, 3, 5, 17, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dashboard_snapshots")).
		WithArgs(string(sampleInput.Filters), string(sampleInput.KPIs), string(sampleInput.Distribution)).
		WillReturnResult(sqlmock.NewResult(42, 1))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, created_at, filters_json, kpis_json, distribution_json FROM dashboard_snapshots WHERE id = ?")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "filters_json", "kpis_json", "distribution_json"}).
			AddRow(42, created, []byte(sampleInput.Filters), []byte(sampleInput.KPIs), []byte(sampleInput.Distribution)))

	id, err := s.Create(context.Background(), sampleInput)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	snap, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, created, snap.CreatedAt)
	assert.Equal(t, string(sampleInput.Filters), string(snap.Filters))
	assert.Equal(t, string(sampleInput.KPIs), string(snap.KPIs))
	assert.Equal(t, string(sampleInput.Distribution), string(snap.Distribution))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RejectsMissingOrInvalidPayload(t *testing.T) {
	s, mock := newStore(t)

	cases := map[string]Input{
		"missing kpis":   {Filters: sampleInput.Filters, Distribution: sampleInput.Distribution},
		"null filters":   {Filters: json.RawMessage("null"), KPIs: sampleInput.KPIs, Distribution: sampleInput.Distribution},
		"broken payload": {Filters: sampleInput.Filters, KPIs: json.RawMessage(`{"a":`), Distribution: sampleInput.Distribution},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Create(context.Background(), in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrBadRequest)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_StoreError(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("disk full"))

	_, err := s.Create(context.Background(), sampleInput)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 500, apperr.Status(err))
}

func TestGet_NotFound(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery("FROM dashboard_snapshots").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "filters_json", "kpis_json", "distribution_json"}))

	_, err := s.Get(context.Background(), 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 404, apperr.Status(err))
	assert.Equal(t, "Snapshot no encontrado", apperr.Message(err))
}

func TestList_NewestFirstCappedWithoutDistribution(t *testing.T) {
	s, mock := newStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at", "filters_json", "kpis_json"})
	for i := ListLimit; i > 0; i-- {
		rows.AddRow(int64(i+5), base.Add(time.Duration(i)*time.Minute), []byte(`{}`), []byte(`{"contactabilidad":0}`))
	}

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, created_at, filters_json, kpis_json FROM dashboard_snapshots ORDER BY created_at DESC, id DESC LIMIT 100")).
		WillReturnRows(rows)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, ListLimit)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].CreatedAt.After(list[i].CreatedAt))
	}

	out, err := json.Marshal(list[0])
	require.NoError(t, err)
	assert.NotContains(t, string(out), "distribution")
	assert.JSONEq(t, `{"contactabilidad":0}`, string(list[0].KPIs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Empty(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery("FROM dashboard_snapshots").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "filters_json", "kpis_json"}))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
