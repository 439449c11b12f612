// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
)

// Record is any entity stored in a collection. The id is unique within the
// collection; soft-deleted records are kept remotely but must never be handed
// to callers.
type Record interface {
	GetID() string
	IsDeleted() bool
}

// Fields is a partial update keyed by the JSON field names of a record.
type Fields map[string]any

// Field names shared by every collection.
const (
	FieldID        = "id"
	FieldIsDeleted = "isDeleted"
	FieldDeletedAt = "deletedAt"
	FieldUpdatedAt = "updatedAt"
)

// MarksDeleted reports whether applying f soft-deletes the record.
func (f Fields) MarksDeleted() bool {
	v, ok := f[FieldIsDeleted].(bool)
	return ok && v
}

// Without returns a copy of f without the given keys.
func (f Fields) Without(keys ...string) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// ApplyFields merges fields into rec and returns the result. The record is
// projected onto its JSON form, overlaid key by key and decoded back, so
// unknown keys are dropped and typed fields keep their validation.
func ApplyFields[T any](rec T, fields Fields) (T, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("encode record: %w", err)
	}

	doc := make(map[string]any)
	if err = json.Unmarshal(raw, &doc); err != nil {
		return rec, fmt.Errorf("decode record projection: %w", err)
	}

	for k, v := range fields {
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return rec, fmt.Errorf("encode merged record: %w", err)
	}

	var out T
	if err = json.Unmarshal(merged, &out); err != nil {
		return rec, fmt.Errorf("decode merged record: %w", err)
	}
	return out, nil
}
