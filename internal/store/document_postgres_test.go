package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-study-sync/internal/adapter"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/migrations"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocumentStore(t *testing.T) (adapter.DocumentStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newTestDB(t)
	return NewPostgresDocumentStore(newDBFromSQL(db, migrations.DialectPostgres), logger.Nop()), mock
}

func TestPostgresDocumentStore_Get(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT body FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("sets", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow([]byte(`{"id":"s1"}`)))

	doc, err := s.Get(context.Background(), "sets", "s1")

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1"}`, string(doc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Get_NotFound(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectQuery("SELECT body FROM documents").
		WithArgs("sets", "nope").
		WillReturnRows(sqlmock.NewRows([]string{"body"}))

	_, err := s.Get(context.Background(), "sets", "nope")

	assert.ErrorIs(t, err, adapter.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_List(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT body FROM documents WHERE collection = $1 ORDER BY seq")).
		WithArgs("items").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).
			AddRow([]byte(`{"id":"i1"}`)).
			AddRow([]byte(`{"id":"i2"}`)))

	docs, err := s.List(context.Background(), "items")

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.JSONEq(t, `{"id":"i2"}`, string(docs[1]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Query(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT body FROM documents WHERE collection = $1 AND body -> $2 = $3::jsonb ORDER BY seq")).
		WithArgs("items", "setId", `"s1"`).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow([]byte(`{"id":"i1","setId":"s1"}`)))

	docs, err := s.Query(context.Background(), "items", "setId", "s1")

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Set(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents (collection,id,body) VALUES ($1,$2,$3::jsonb) ON CONFLICT (collection, id) DO UPDATE")).
		WithArgs("lessons", "l1", `{"id":"l1"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Set(context.Background(), "lessons", "l1", json.RawMessage(`{"id":"l1"}`))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Set_InvalidJSON(t *testing.T) {
	s, mock := newTestDocumentStore(t)

	err := s.Set(context.Background(), "lessons", "l1", json.RawMessage(`{`))

	assert.ErrorIs(t, err, adapter.ErrInvalidWrite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Merge(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET body = body || $1::jsonb, updated_at = NOW() WHERE collection = $2 AND id = $3")).
		WithArgs(`{"isDeleted":true}`, "sets", "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Merge(context.Background(), "sets", "s1", models.Fields{"isDeleted": true})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Merge_Missing(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectExec("UPDATE documents").WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Merge(context.Background(), "sets", "nope", models.Fields{"title": "x"})

	assert.ErrorIs(t, err, adapter.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Delete(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("sets", "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Delete(context.Background(), "sets", "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Batch_Commits(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("items", "i1", `{"id":"i1"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents").
		WithArgs(`{"isDeleted":true}`, "items", "i0").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Batch(context.Background(), []adapter.Write{
		adapter.SetWrite("items", "i1", json.RawMessage(`{"id":"i1"}`)),
		adapter.MergeWrite("items", "i0", models.Fields{"isDeleted": true}),
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Batch_RollsBackOnMissingMerge(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.Batch(context.Background(), []adapter.Write{
		adapter.SetWrite("items", "i1", json.RawMessage(`{"id":"i1"}`)),
		adapter.MergeWrite("items", "ghost", models.Fields{"isDeleted": true}),
	})

	assert.ErrorIs(t, err, adapter.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_Batch_Empty(t *testing.T) {
	s, mock := newTestDocumentStore(t)

	require.NoError(t, s.Batch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_ErrorTranslation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "insufficient privilege", err: &pgconn.PgError{Code: pgerrcode.InsufficientPrivilege}, wantCode: adapter.CodePermissionDenied},
		{name: "cannot connect now", err: &pgconn.PgError{Code: pgerrcode.CannotConnectNow}, wantCode: adapter.CodeUnavailable},
		{name: "connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, wantCode: adapter.CodeUnavailable},
		{name: "query canceled", err: &pgconn.PgError{Code: pgerrcode.QueryCanceled}, wantCode: adapter.CodeDeadlineExceeded},
		{name: "undefined table", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}, wantCode: adapter.CodeInvalidArgument},
		{name: "plain error", err: errors.New("boom"), wantCode: adapter.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newTestDocumentStore(t)
			mock.ExpectQuery("SELECT body FROM documents").WillReturnError(tt.err)

			_, err := s.List(context.Background(), "sets")

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, adapter.ErrorCode(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresDocumentStore_CallerCancellationPassesThrough(t *testing.T) {
	s, mock := newTestDocumentStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	mock.ExpectQuery("SELECT body FROM documents").WillReturnError(context.Canceled)
	cancel()

	_, err := s.List(ctx, "sets")

	require.Error(t, err)
	assert.Empty(t, adapter.ErrorCode(err))
}
