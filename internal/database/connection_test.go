package database

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithConn_RunsOnSingleConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery("SELECT 2").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))

	var got []int
	err = WithConn(context.Background(), db, func(q Querier) error {
		for _, query := range []string{"SELECT 1", "SELECT 2"} {
			var n int
			if err := q.QueryRowContext(context.Background(), query).Scan(&n); err != nil {
				return err
			}
			got = append(got, n)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 0, db.Stats().InUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithConn_ReleasesOnError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	boom := errors.New("boom")
	err = WithConn(context.Background(), db, func(Querier) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestNullableString(t *testing.T) {
	assert.Nil(t, NullableString(false, "x"))
	v := NullableString(true, "x")
	require.NotNil(t, v)
	assert.Equal(t, "x", *v)
}
