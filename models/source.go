package models

// Source tags a subscription delivery with where its data came from.
type Source string

const (
	// SourceCache marks the fast, possibly stale, delivery from the local cache.
	SourceCache Source = "cache"
	// SourceNetwork marks the authoritative delivery after a remote fetch.
	SourceNetwork Source = "network"
)
