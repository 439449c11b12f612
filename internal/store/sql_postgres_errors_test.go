package store

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/MKhiriev/go-study-sync/internal/adapter"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPostgresErrorClassifier_Classify(t *testing.T) {
	c := NewPostgresErrorClassifier()

	tests := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{name: "nil", err: nil, want: NonRetryable},
		{name: "connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, want: Retryable},
		{name: "serialization failure", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, want: Retryable},
		{name: "deadlock", err: &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, want: Retryable},
		{name: "admin shutdown", err: &pgconn.PgError{Code: pgerrcode.AdminShutdown}, want: Retryable},
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: NonRetryable},
		{name: "wrapped pg error", err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgerrcode.CannotConnectNow}), want: Retryable},
		{name: "bad conn", err: driver.ErrBadConn, want: Retryable},
		{name: "plain error", err: errors.New("boom"), want: NonRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.err))
		})
	}
}

func Test_toStoreError(t *testing.T) {
	c := NewPostgresErrorClassifier()

	tests := []struct {
		name         string
		err          error
		wantCode     string
		wantSentinel error
	}{
		{name: "permission", err: &pgconn.PgError{Code: pgerrcode.InsufficientPrivilege}, wantCode: adapter.CodePermissionDenied, wantSentinel: adapter.ErrPermissionDenied},
		{name: "bad password", err: &pgconn.PgError{Code: pgerrcode.InvalidPassword}, wantCode: adapter.CodeUnauthenticated},
		{name: "duplicate", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, wantCode: adapter.CodeAlreadyExists},
		{name: "canceled", err: &pgconn.PgError{Code: pgerrcode.QueryCanceled}, wantCode: adapter.CodeDeadlineExceeded},
		{name: "bad json", err: &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, wantCode: adapter.CodeInvalidArgument},
		{name: "unreachable", err: driver.ErrBadConn, wantCode: adapter.CodeUnavailable, wantSentinel: adapter.ErrUnavailable},
		{name: "other", err: errors.New("boom"), wantCode: adapter.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := toStoreError(c, "op", tt.err)

			assert.Equal(t, tt.wantCode, adapter.ErrorCode(err))
			assert.ErrorIs(t, err, tt.err)
			if tt.wantSentinel != nil {
				assert.ErrorIs(t, err, tt.wantSentinel)
			}
		})
	}

	assert.NoError(t, toStoreError(c, "op", nil))
}
