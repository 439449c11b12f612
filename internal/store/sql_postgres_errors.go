package store

import (
	"database/sql/driver"
	"errors"
	"net"

	"github.com/MKhiriev/go-study-sync/internal/adapter"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassification is the result type returned by [ErrorClassificator.Classify]
// and [PostgresErrorClassifier.Classify]. It indicates whether a failed database
// operation should be retried or abandoned.
type ErrorClassification int

// PostgresErrorClassifier implements [ErrorClassificator] for PostgreSQL.
// It inspects the pgconn error code returned by the pgx driver and maps it
// to a [ErrorClassification] value.
type PostgresErrorClassifier struct{}

const (
	// NonRetryable indicates that the failed operation should not be retried.
	// This is the default classification for unrecognised errors, constraint
	// violations, syntax errors, and data exceptions.
	NonRetryable ErrorClassification = iota

	// Retryable indicates that the failed operation may succeed if attempted
	// again (e.g. after a transient connection loss or a deadlock rollback).
	Retryable
)

// NewPostgresErrorClassifier constructs a [PostgresErrorClassifier] ready for use.
func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify implements [ErrorClassificator]. Server errors are delegated to
// [ClassifyPgError]; failures to reach the server at all (dial errors, broken
// connections) are [Retryable]. Everything else is [NonRetryable].
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	if err == nil {
		return NonRetryable
	}

	// Attempt to unwrap to a pgconn.PgError.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ClassifyPgError(pgErr)
	}

	if isConnectionFailure(err) {
		return Retryable
	}

	// Default: treat unrecognised errors as non-retryable.
	return NonRetryable
}

// ClassifyPgError maps a *pgconn.PgError to an [ErrorClassification] based on
// the PostgreSQL error code.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html for the
// full list of PostgreSQL error codes.
//
// Retryable codes:
//   - Class 08: connection exceptions (08000, 08003, 08006)
//   - Class 40: transaction rollback, serialization failure, deadlock (40000, 40001, 40P01)
//   - Class 57: cannot connect now (57P03)
//
// Any other code is classified as [NonRetryable].
func ClassifyPgError(pgErr *pgconn.PgError) ErrorClassification {
	switch pgErr.Code {
	// Class 08: connection exceptions
	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.SQLClientUnableToEstablishSQLConnection:
		return Retryable

	// Class 40: transaction rollback
	case pgerrcode.TransactionRollback, // 40000
		pgerrcode.SerializationFailure, // 40001
		pgerrcode.DeadlockDetected:     // 40P01
		return Retryable

	// Class 57: operator intervention
	case pgerrcode.CannotConnectNow, // 57P03
		pgerrcode.AdminShutdown: // 57P01
		return Retryable
	}

	// Default: treat unrecognised codes as non-retryable.
	return NonRetryable
}

// toStoreError translates a database failure into the document store error
// vocabulary so that the sync layer classifies postgres and REST failures
// alike.
func toStoreError(c ErrorClassificator, op string, err error) error {
	if err == nil {
		return nil
	}

	code := postgresError(err)
	switch {
	case code == pgerrcode.InsufficientPrivilege:
		return adapter.NewStoreError(adapter.CodePermissionDenied, op+": insufficient permission", err)
	case code == pgerrcode.InvalidAuthorizationSpecification,
		code == pgerrcode.InvalidPassword:
		return adapter.NewStoreError(adapter.CodeUnauthenticated, op, err)
	case code == pgerrcode.UniqueViolation:
		return adapter.NewStoreError(adapter.CodeAlreadyExists, op, err)
	case code == pgerrcode.QueryCanceled:
		return adapter.NewStoreError(adapter.CodeDeadlineExceeded, op+": backend didn't respond in time", err)
	case pgerrcode.IsDataException(code), pgerrcode.IsSyntaxErrororAccessRuleViolation(code):
		return adapter.NewStoreError(adapter.CodeInvalidArgument, op, err)
	case c.Classify(err) == Retryable:
		return adapter.NewStoreError(adapter.CodeUnavailable, op+": could not reach database", err)
	default:
		return adapter.NewStoreError(adapter.CodeInternal, op, err)
	}
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
