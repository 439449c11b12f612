// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"testing"

	"github.com/MKhiriev/go-study-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHashKey = "test-secret-key"

func referenceHMAC(key string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHasher_SignMatchesReference(t *testing.T) {
	h := NewHasher(testHashKey)

	payload, err := json.Marshal(models.Set{ID: "s1", Title: "Spanish verbs", UpdatedAt: 10})
	require.NoError(t, err)

	assert.Equal(t, referenceHMAC(testHashKey, payload), h.Sign(payload))
}

func TestHasher_Deterministic(t *testing.T) {
	h := NewHasher(testHashKey)
	data := []byte("test-data")

	assert.Equal(t, h.Sign(data), h.Sign(data))
}

func TestHasher_DifferentPayloads(t *testing.T) {
	h := NewHasher(testHashKey)

	b1, _ := json.Marshal(models.Item{ID: "i1", SetID: "s1", Prompt: "hola"})
	b2, _ := json.Marshal(models.Item{ID: "i2", SetID: "s1", Prompt: "adios"})

	assert.NotEqual(t, h.Sign(b1), h.Sign(b2))
}

func TestHasher_DifferentKeys(t *testing.T) {
	data := []byte("same-data")

	assert.NotEqual(t, NewHasher("key-1").Sign(data), NewHasher("key-2").Sign(data))
}

func TestHasher_Verify(t *testing.T) {
	h := NewHasher(testHashKey)
	data := []byte(`{"id":"x"}`)

	assert.True(t, h.Verify(data, h.Sign(data)))
	assert.False(t, h.Verify([]byte(`{"id":"y"}`), h.Sign(data)))
	assert.False(t, h.Verify(data, "not-hex"))
}

func TestHasher_Enabled(t *testing.T) {
	var nilHasher *Hasher

	assert.True(t, NewHasher("k").Enabled())
	assert.False(t, NewHasher("").Enabled())
	assert.False(t, nilHasher.Enabled())
}

func TestHasher_ConcurrentUse(t *testing.T) {
	h := NewHasher(testHashKey)
	data := []byte("concurrent")
	want := referenceHMAC(testHashKey, data)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, h.Sign(data))
		}()
	}
	wg.Wait()
}
