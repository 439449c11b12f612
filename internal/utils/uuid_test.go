package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerator_GenerateIsV7(t *testing.T) {
	g := NewUUIDGenerator()

	id := g.Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDGenerator_GenerateIsUnique(t *testing.T) {
	g := NewUUIDGenerator()
	seen := make(map[string]struct{})

	for range 100 {
		id := g.Generate()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestUUIDGenerator_Fill(t *testing.T) {
	g := NewUUIDGenerator()

	assert.Equal(t, "existing", g.Fill("existing"))
	assert.NotEmpty(t, g.Fill(""))
}
