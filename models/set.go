// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "sort"

// SetKind is the kind of study set.
type SetKind string

const (
	// SetKindFlashcards is a deck of prompt/answer cards.
	SetKindFlashcards SetKind = "flashcards"
	// SetKindMCQ is a multiple-choice practice set.
	SetKindMCQ SetKind = "mcq"
)

// ItemsState tells whether a set's items have been fetched.
//
// A set whose items were never fetched and a set that was fetched and turned
// out empty both have len(Items) == 0; the state keeps them apart so the
// delta sync does not refetch empty sets on every cycle.
type ItemsState string

const (
	// ItemsUnknown means the items were never fetched.
	ItemsUnknown ItemsState = ""
	// ItemsEmpty means the items were fetched and there were none.
	ItemsEmpty ItemsState = "empty"
	// ItemsLoaded means Items holds the fetched, sorted list.
	ItemsLoaded ItemsState = "loaded"
)

// Set is a study set. Its items live in a separate remote collection keyed by
// Item.SetID; the cached projection keeps them attached.
type Set struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Kind        SetKind `json:"kind,omitempty"`
	OwnerID     string  `json:"ownerId,omitempty"`

	// CreatedAt and UpdatedAt are epoch milliseconds. UpdatedAt drives
	// staleness detection.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`

	Deleted   bool  `json:"isDeleted,omitempty"`
	DeletedAt int64 `json:"deletedAt,omitempty"`

	Items      []Item     `json:"items,omitempty"`
	ItemsState ItemsState `json:"itemsState,omitempty"`
}

// GetID implements Record.
func (s Set) GetID() string { return s.ID }

// IsDeleted implements Record.
func (s Set) IsDeleted() bool { return s.Deleted }

// Metadata returns the set without its items, as stored in the remote sets
// collection.
func (s Set) Metadata() Set {
	s.Items = nil
	s.ItemsState = ItemsUnknown
	return s
}

// Populated reports whether the items were fetched at least once. Entries
// cached without a state count as populated when they carry items.
func (s Set) Populated() bool {
	return s.ItemsState != ItemsUnknown || len(s.Items) > 0
}

// WithItems returns a copy of s carrying items sorted by creation time and
// the matching ItemsState. Soft-deleted items are dropped.
func (s Set) WithItems(items []Item) Set {
	live := make([]Item, 0, len(items))
	for _, it := range items {
		if !it.Deleted {
			live = append(live, it)
		}
	}
	SortItems(live)

	if len(live) == 0 {
		s.Items = nil
		s.ItemsState = ItemsEmpty
		return s
	}
	s.Items = live
	s.ItemsState = ItemsLoaded
	return s
}

// Item is one flashcard or MCQ question belonging to a set.
type Item struct {
	ID    string `json:"id"`
	SetID string `json:"setId"`

	Prompt        string   `json:"prompt"`
	Answer        string   `json:"answer,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectOption *int     `json:"correctOption,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`

	Deleted   bool  `json:"isDeleted,omitempty"`
	DeletedAt int64 `json:"deletedAt,omitempty"`
}

// GetID implements Record.
func (i Item) GetID() string { return i.ID }

// IsDeleted implements Record.
func (i Item) IsDeleted() bool { return i.Deleted }

// SortItems orders items by creation time ascending, ties broken by id so the
// order is stable across fetches.
func SortItems(items []Item) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].CreatedAt != items[b].CreatedAt {
			return items[a].CreatedAt < items[b].CreatedAt
		}
		return items[a].ID < items[b].ID
	})
}

// GroupItemsBySet buckets items by their SetID.
func GroupItemsBySet(items []Item) map[string][]Item {
	out := make(map[string][]Item)
	for _, it := range items {
		out[it.SetID] = append(out[it.SetID], it)
	}
	return out
}
