// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Connection errors returned while opening a storage backend.
var (
	// ErrOpeningDatabase is returned when the driver refuses the DSN or the
	// first ping fails.
	ErrOpeningDatabase = errors.New("failed to open database")

	// ErrNilDB is returned when a nil connection is handed to a constructor
	// or to the migrator.
	ErrNilDB = errors.New("db is nil")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails.
	ErrScanningRows = errors.New("failed to scan rows")
)

// ErrCorruptCacheEntry is logged when a cached blob cannot be decompressed.
// It never reaches callers: the entry is reported as absent instead.
var ErrCorruptCacheEntry = errors.New("corrupt cache entry")
