package events

import (
	"context"
	"errors"
	"testing"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessedStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewProcessedStoreWithDB(mock)
	ctx := context.Background()

	mock.ExpectQuery("SELECT 1 FROM processed_events").WithArgs("twilio", "SM1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(1))
	seen, err := store.AlreadyProcessed(ctx, "Twilio", " SM1 ")
	require.NoError(t, err)
	assert.True(t, seen)

	mock.ExpectQuery("SELECT 1 FROM processed_events").WithArgs("twilio", "SM2").WillReturnError(pgx.ErrNoRows)
	seen, err = store.AlreadyProcessed(ctx, "twilio", "SM2")
	require.NoError(t, err)
	assert.False(t, seen)

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("twilio", "SM2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	claimed, err := store.MarkProcessed(ctx, "twilio", "SM2")
	require.NoError(t, err)
	assert.True(t, claimed)

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("twilio", "SM2").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	claimed, err = store.MarkProcessed(ctx, "twilio", "SM2")
	require.NoError(t, err)
	assert.False(t, claimed)

	mock.ExpectExec("DELETE FROM processed_events").WithArgs("twilio", "SM2").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, store.Forget(ctx, "twilio", "SM2"))

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("twilio", "SM3").WillReturnError(errors.New("db down"))
	_, err = store.MarkProcessed(ctx, "twilio", "SM3")
	assert.Error(t, err)

	_, err = store.MarkProcessed(ctx, "twilio", " ")
	assert.ErrorIs(t, err, ErrEventIDRequired)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryProcessedStore(t *testing.T) {
	store := NewMemoryProcessedStore()
	ctx := context.Background()

	claimed, err := store.MarkProcessed(ctx, "twilio", "SM1")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.MarkProcessed(ctx, "TWILIO", "SM1")
	require.NoError(t, err)
	assert.False(t, claimed)

	seen, err := store.AlreadyProcessed(ctx, "twilio", "SM1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, store.Forget(ctx, "twilio", "SM1"))
	seen, err = store.AlreadyProcessed(ctx, "twilio", "SM1")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = store.MarkProcessed(ctx, "", "SM1")
	assert.ErrorIs(t, err, ErrEventIDRequired)
}
