package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_WithItems(t *testing.T) {
	set := Set{ID: "s", Title: "T"}

	got := set.WithItems([]Item{
		{ID: "b", CreatedAt: 2},
		{ID: "dead", CreatedAt: 0, Deleted: true},
		{ID: "a2", CreatedAt: 1},
		{ID: "a1", CreatedAt: 1},
	})

	require.Len(t, got.Items, 3)
	assert.Equal(t, "a1", got.Items[0].ID)
	assert.Equal(t, "a2", got.Items[1].ID)
	assert.Equal(t, "b", got.Items[2].ID)
	assert.Equal(t, ItemsLoaded, got.ItemsState)
	assert.Nil(t, set.Items, "the receiver is not modified")

	empty := set.WithItems([]Item{{ID: "dead", Deleted: true}})
	assert.Nil(t, empty.Items)
	assert.Equal(t, ItemsEmpty, empty.ItemsState)
}

func TestSet_Populated(t *testing.T) {
	tests := []struct {
		name string
		set  Set
		want bool
	}{
		{name: "never fetched", set: Set{ID: "s"}, want: false},
		{name: "fetched empty", set: Set{ID: "s", ItemsState: ItemsEmpty}, want: true},
		{name: "loaded", set: Set{ID: "s", ItemsState: ItemsLoaded, Items: []Item{{ID: "i"}}}, want: true},
		{name: "items without state", set: Set{ID: "s", Items: []Item{{ID: "i"}}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.Populated())
		})
	}
}

func TestSet_MetadataOmitsItems(t *testing.T) {
	set := Set{ID: "s", Title: "T", UpdatedAt: 3}.WithItems([]Item{{ID: "i", SetID: "s"}})

	raw, err := json.Marshal(set.Metadata())
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":"s","title":"T","createdAt":0,"updatedAt":3}`, string(raw))
	assert.Len(t, set.Items, 1)
}

func TestGroupItemsBySet(t *testing.T) {
	got := GroupItemsBySet([]Item{
		{ID: "1", SetID: "a"},
		{ID: "2", SetID: "b"},
		{ID: "3", SetID: "a"},
	})

	assert.Len(t, got, 2)
	assert.Equal(t, []string{"1", "3"}, []string{got["a"][0].ID, got["a"][1].ID})
	assert.Len(t, got["b"], 1)
}
