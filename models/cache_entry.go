// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// CacheEntry is one named, timestamped blob of the local cache. There is one
// entry per logical collection (or derived key), and it is always replaced as
// a whole.
type CacheEntry struct {
	// Key is the cache key, usually the collection name.
	Key string `json:"key"`

	// Data is the JSON-encoded record list. Nil means the entry holds no list.
	Data []byte `json:"data,omitempty"`

	// Timestamp is the write time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Size returns the length of the stored blob.
func (e CacheEntry) Size() int {
	return len(e.Data)
}

// CacheEntryInfo describes a cache entry without its blob, as listed by
// maintenance tooling.
type CacheEntryInfo struct {
	Key       string `json:"key"`
	Size      int    `json:"size"`
	Timestamp int64  `json:"timestamp"`
}
