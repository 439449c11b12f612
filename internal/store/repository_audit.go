package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/models"
)

// auditRepository is the SQLite-backed [AuditRepository]. Details are stored
// as a JSON text column.
type auditRepository struct {
	*DB
	logger *logger.Logger
}

// NewAuditRepository constructs an [AuditRepository] over db.
func NewAuditRepository(db *DB, logger *logger.Logger) AuditRepository {
	return &auditRepository{
		DB:     db,
		logger: logger,
	}
}

func (a *auditRepository) Append(ctx context.Context, entry models.AuditEntry) (int64, error) {
	var details any
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return 0, fmt.Errorf("encode audit details: %w", err)
		}
		details = string(raw)
	}

	query, args, err := buildInsertAuditQuery(entry.Action, entry.EntityType, entry.EntityID, details, entry.At)
	if err != nil {
		return 0, err
	}

	res, err := a.DB.ExecContext(ctx, query, args...)
	if err != nil {
		a.logger.Err(err).
			Str("func", "auditRepository.Append").
			Str("action", entry.Action).
			Str("entity_type", entry.EntityType).
			Str("entity_id", entry.EntityID).
			Msg("failed to insert audit entry")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return id, nil
}

func (a *auditRepository) List(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query, args, err := buildListAuditQuery(limit)
	if err != nil {
		return nil, err
	}

	rows, err := a.DB.QueryContext(ctx, query, args...)
	if err != nil {
		a.logger.Err(err).Str("func", "auditRepository.List").Msg("failed to query audit log")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0)
	for rows.Next() {
		var (
			entry   models.AuditEntry
			details sql.NullString
		)
		if err = rows.Scan(&entry.ID, &entry.Action, &entry.EntityType, &entry.EntityID, &details, &entry.At); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if details.Valid && details.String != "" {
			if err = json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				a.logger.Warn().Err(err).Str("func", "auditRepository.List").Int64("id", entry.ID).Msg("undecodable audit details")
			}
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entries, nil
}
