package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MKhiriev/go-study-sync/internal/config"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientStorages_File(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "cache.db")
	ctx := context.Background()

	s, err := NewClientStorages(ctx, config.ClientStorage{
		Cache: config.ClientCache{DSN: dsn, LRUSize: 4},
	}, clockwork.NewFakeClock(), logger.Nop())
	require.NoError(t, err)

	s.Cache.Put(ctx, "sets", []byte(`[]`))
	_, err = s.Audit.Append(ctx, models.AuditEntry{Action: models.AuditActionCreate, EntityType: "sets", EntityID: "s1"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// reopen: the data survives the restart
	s, err = NewClientStorages(ctx, config.ClientStorage{
		Cache: config.ClientCache{DSN: dsn, LRUSize: 4},
	}, clockwork.NewFakeClock(), logger.Nop())
	require.NoError(t, err)
	defer s.Close()

	entry, ok := s.Cache.Get(ctx, "sets")
	require.True(t, ok)
	assert.Equal(t, []byte(`[]`), entry.Data)

	audit, err := s.Audit.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, audit, 1)
}

func TestNewClientStorages_Memory(t *testing.T) {
	ctx := context.Background()

	s, err := NewClientStorages(ctx, config.ClientStorage{
		Cache: config.ClientCache{DSN: MemoryDSN},
	}, clockwork.NewFakeClock(), logger.Nop())
	require.NoError(t, err)
	defer s.Close()

	s.Cache.Put(ctx, "k", []byte(`1`))
	entry, ok := s.Cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte(`1`), entry.Data)

	_, err = s.Audit.Append(ctx, models.AuditEntry{Action: models.AuditActionDelete, EntityType: "lessons", EntityID: "l1"})
	assert.NoError(t, err)
}

func TestClientStorages_CloseWithoutDB(t *testing.T) {
	assert.NoError(t, (&ClientStorages{}).Close())
}
