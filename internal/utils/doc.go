// Package utils provides general-purpose helpers shared by the client
// packages: record id generation, HMAC request signing, bearer token
// inspection, JSON response writing and the resty client wrapper used by the
// HTTP document store.
package utils
