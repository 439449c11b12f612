package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFields(t *testing.T) {
	tests := []struct {
		name    string
		rec     Lesson
		fields  Fields
		want    Lesson
		wantErr bool
	}{
		{
			name:   "overlays known fields",
			rec:    Lesson{ID: "a", Title: "old", Tags: []string{"x"}, CreatedAt: 1},
			fields: Fields{"title": "new", "body": "text"},
			want:   Lesson{ID: "a", Title: "new", Body: "text", Tags: []string{"x"}, CreatedAt: 1},
		},
		{
			name:   "soft delete",
			rec:    Lesson{ID: "a"},
			fields: Fields{FieldIsDeleted: true, FieldDeletedAt: int64(9)},
			want:   Lesson{ID: "a", Deleted: true, DeletedAt: 9},
		},
		{
			name:   "unknown keys are dropped",
			rec:    Lesson{ID: "a"},
			fields: Fields{"nope": 1},
			want:   Lesson{ID: "a"},
		},
		{
			name:    "type mismatch",
			rec:     Lesson{ID: "a", Title: "keep"},
			fields:  Fields{"title": []int{1}},
			want:    Lesson{ID: "a", Title: "keep"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyFields(tt.rec, tt.fields)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFields_MarksDeleted(t *testing.T) {
	assert.True(t, Fields{FieldIsDeleted: true}.MarksDeleted())
	assert.False(t, Fields{FieldIsDeleted: false}.MarksDeleted())
	assert.False(t, Fields{FieldIsDeleted: "true"}.MarksDeleted())
	assert.False(t, Fields{"title": "x"}.MarksDeleted())
}

func TestFields_Without(t *testing.T) {
	f := Fields{"a": 1, "b": 2, "c": 3}

	got := f.Without("b", "missing")

	assert.Equal(t, Fields{"a": 1, "c": 3}, got)
	assert.Len(t, f, 3, "the receiver is not modified")
}
