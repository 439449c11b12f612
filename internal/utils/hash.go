package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sync"
)

// HashHeader is the request header carrying the hex HMAC-SHA256 of the body.
const HashHeader = "HashSHA256"

// Hasher signs request bodies with a keyed HMAC-SHA256.
//
// Hash instances are pooled per Hasher, so one Hasher can be shared by every
// goroutine issuing requests.
type Hasher struct {
	hashKey []byte
	pool    sync.Pool
}

// NewHasher returns a Hasher for hashKey. An empty key yields a Hasher whose
// Enabled reports false; callers skip signing in that case.
//
// Example usage:
//
//	h := utils.NewHasher("my-secret-key")
//	req.SetHeader(utils.HashHeader, h.Sign(body))
func NewHasher(hashKey string) *Hasher {
	h := &Hasher{hashKey: []byte(hashKey)}
	h.pool.New = func() any {
		return hmac.New(sha256.New, h.hashKey)
	}
	return h
}

// Enabled reports whether a key was configured.
func (h *Hasher) Enabled() bool {
	return h != nil && len(h.hashKey) > 0
}

// Hash computes the raw HMAC-SHA256 digest of data.
func (h *Hasher) Hash(data []byte) []byte {
	mac := h.pool.Get().(hash.Hash)
	mac.Reset()
	mac.Write(data)
	sum := mac.Sum(nil)
	mac.Reset()
	h.pool.Put(mac)
	return sum
}

// Sign returns the hex-encoded HMAC-SHA256 of data.
func (h *Hasher) Sign(data []byte) string {
	return hex.EncodeToString(h.Hash(data))
}

// Verify reports whether signature is the hex HMAC of data. The comparison is
// constant-time.
func (h *Hasher) Verify(data []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, h.Hash(data))
}
