package activity

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	records := []Record{
		{ID: "1", Type: TypeMeetingScheduled, Timestamp: base, Payload: map[string]interface{}{"subject": "Sync", "duration_minutes": 30}},
		{ID: "2", Type: TypeNoAvailability, Timestamp: base.Add(time.Hour)},
		{ID: "3", Type: TypeUrgentEmail, Timestamp: base.Add(25 * time.Hour)},
	}
	for _, r := range records {
		require.NoError(t, store.Append(ctx, r))
	}

	t.Run("between", func(t *testing.T) {
		got, err := store.Between(ctx, base, base.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "1", got[0].ID)
		assert.Equal(t, TypeMeetingScheduled, got[0].Type)
		assert.Equal(t, base, got[0].Timestamp)
		assert.Equal(t, "Sync", got[0].Payload["subject"])
		assert.Equal(t, float64(30), got[0].Payload["duration_minutes"])
		assert.Nil(t, got[1].Payload)
	})

	t.Run("recent", func(t *testing.T) {
		got, err := store.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "3", got[0].ID)
		assert.Equal(t, "2", got[1].ID)
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		assert.Error(t, store.Append(ctx, Record{ID: "1", Type: TypeAutoResponse, Timestamp: base}))
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		assert.NoError(t, store.Migrate(ctx))
	})
}

func TestPostgresStore_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, Postgres)
	ts := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activities (id, type, ts_ms, payload) VALUES ($1, $2, $3, $4)")).
		WithArgs("abc", "meeting_scheduled", ts.UnixMilli(), `{"subject":"Sync"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Append(context.Background(), Record{
		ID:        "abc",
		Type:      TypeMeetingScheduled,
		Timestamp: ts,
		Payload:   map[string]interface{}{"subject": "Sync"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Between(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, Postgres)
	from := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "type", "ts_ms", "payload"}).
		AddRow("a", "urgent_email", from.Add(time.Hour).UnixMilli(), []byte(`{"sender":"ceo@example.com"}`)).
		AddRow("b", "auto_response", from.Add(2*time.Hour).UnixMilli(), nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, ts_ms, payload FROM activities WHERE ts_ms >= $1 AND ts_ms < $2 ORDER BY ts_ms ASC, id ASC")).
		WithArgs(from.UnixMilli(), to.UnixMilli()).
		WillReturnRows(rows)

	got, err := store.Between(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, TypeUrgentEmail, got[0].Type)
	assert.Equal(t, "ceo@example.com", got[0].Payload["sender"])
	assert.Equal(t, from.Add(2*time.Hour), got[1].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Errors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, Postgres)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY ts_ms DESC, id DESC LIMIT $1")).
		WithArgs(5).
		WillReturnError(errors.New("connection reset"))
	_, err = store.Recent(context.Background(), 5)
	assert.ErrorContains(t, err, "connection reset")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS activities").
		WillReturnError(errors.New("permission denied for schema public"))
	assert.Error(t, store.Migrate(context.Background()))

	mock.ExpectQuery("SELECT id, type, ts_ms, payload FROM activities").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "ts_ms", "payload"}).
			AddRow("x", "urgent_email", int64(0), []byte(`{not json`)))
	_, err = store.Recent(context.Background(), 1)
	assert.ErrorContains(t, err, "failed to decode payload")

	assert.NoError(t, mock.ExpectationsWereMet())
}
