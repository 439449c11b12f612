// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-study-sync/internal/adapter"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/mock"
	"github.com/MKhiriev/go-study-sync/internal/utils"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testNow = time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

var (
	errOffline   = adapter.NewStoreError(adapter.CodeUnavailable, "client is offline", nil)
	errForbidden = adapter.NewStoreError(adapter.CodePermissionDenied, "missing or insufficient permissions", nil)
	errInternal  = adapter.NewStoreError(adapter.CodeInternal, "boom", nil)
)

func newLessons(t *testing.T) (*Collection[models.Lesson], *adapter.MemoryDocumentStore) {
	t.Helper()
	store := adapter.NewMemoryDocumentStore()
	return NewCollection[models.Lesson](store, "lessons", clockwork.NewFakeClockAt(testNow), logger.Nop()), store
}

func seed(t *testing.T, store adapter.DocumentStore, collection string, docs ...string) {
	t.Helper()
	for _, doc := range docs {
		var head struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal([]byte(doc), &head))
		require.NoError(t, store.Set(context.Background(), collection, head.ID, json.RawMessage(doc)))
	}
}

func TestCollection_GetAll_FiltersSoftDeleted(t *testing.T) {
	c, store := newLessons(t)
	seed(t, store, "lessons",
		`{"id":"a","title":"A"}`,
		`{"id":"b","title":"B","isDeleted":true,"deletedAt":5}`,
		`{"id":"c","title":"C"}`,
	)

	got, err := c.GetAll(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestCollection_GetAll_DropsRecordsWithoutID(t *testing.T) {
	c, store := newLessons(t)
	require.NoError(t, store.Set(context.Background(), "lessons", "orphan", json.RawMessage(`{"title":"no id"}`)))
	seed(t, store, "lessons", `{"id":"a"}`)

	got, err := c.GetAll(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestCollection_GetAll_Failures(t *testing.T) {
	tests := []struct {
		name       string
		storeErr   error
		wantErr    error
		wantEmpty  bool
		fetchErrIs error
	}{
		{name: "offline is empty", storeErr: errOffline, wantEmpty: true, fetchErrIs: ErrUnavailable},
		{name: "permission is empty", storeErr: errForbidden, wantEmpty: true, fetchErrIs: ErrUnavailable},
		{name: "message signature is empty", storeErr: errors.New("backend didn't respond within 10 seconds"), wantEmpty: true, fetchErrIs: ErrUnavailable},
		{name: "internal is raised", storeErr: errInternal, wantErr: ErrRemoteFailure, fetchErrIs: ErrRemoteFailure},
		{name: "raw deadline is raised", storeErr: context.DeadlineExceeded, wantErr: ErrRemoteFailure, fetchErrIs: ErrRemoteFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := newLessons(t)
			store.FailWith(tt.storeErr)

			got, err := c.GetAll(context.Background())
			if tt.wantEmpty {
				require.NoError(t, err)
				assert.NotNil(t, got)
				assert.Empty(t, got)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, tt.storeErr)
			}

			_, err = c.FetchAll(context.Background())
			assert.ErrorIs(t, err, tt.fetchErrIs)
		})
	}
}

func TestCollection_GetAll_UndecodableDocumentIsAFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockDocumentStore(ctrl)
	c := NewCollection[models.Lesson](store, "lessons", clockwork.NewFakeClock(), logger.Nop())

	store.EXPECT().List(gomock.Any(), "lessons").
		Return([]json.RawMessage{json.RawMessage(`{"id":"a","title":42}`)}, nil)

	_, err := c.GetAll(context.Background())

	assert.ErrorIs(t, err, ErrRemoteFailure)
	assert.ErrorIs(t, err, ErrDecodeRecord)
}

func TestCollection_GetByID(t *testing.T) {
	c, store := newLessons(t)
	seed(t, store, "lessons",
		`{"id":"live","title":"Live"}`,
		`{"id":"gone","isDeleted":true}`,
	)
	ctx := context.Background()

	rec, ok, err := c.GetByID(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Live", rec.Title)

	_, ok, err = c.GetByID(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	store.FailWith(errOffline)
	_, ok, err = c.GetByID(ctx, "live")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = c.FetchByID(ctx, "live")
	assert.ErrorIs(t, err, ErrUnavailable)

	store.FailWith(errInternal)
	_, _, err = c.GetByID(ctx, "live")
	assert.ErrorIs(t, err, ErrRemoteFailure)
}

func TestCollection_Create(t *testing.T) {
	c, store := newLessons(t)
	ctx := context.Background()

	id, err := c.Create(ctx, models.Lesson{ID: "l1", Title: "Intro"})
	require.NoError(t, err)
	assert.Equal(t, "l1", id)

	doc, err := store.Get(ctx, "lessons", "l1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"l1","title":"Intro","createdAt":0}`, string(doc))
}

func TestCollection_Create_GeneratesMissingID(t *testing.T) {
	c, store := newLessons(t)
	ctx := context.Background()

	id, err := c.Create(ctx, models.Lesson{Title: "Untitled"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, ok, err := c.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Untitled", rec.Title)
	assert.Equal(t, 1, store.Calls("set"))
}

func TestCollection_WriteFailures(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{name: "offline blocks", storeErr: errOffline, want: ErrOperationBlocked},
		{name: "permission blocks", storeErr: errForbidden, want: ErrOperationBlocked},
		{name: "internal fails", storeErr: errInternal, want: ErrRemoteFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := newLessons(t)
			seed(t, store, "lessons", `{"id":"l1"}`)
			store.FailWith(tt.storeErr)
			ctx := context.Background()

			_, err := c.Create(ctx, models.Lesson{ID: "l2"})
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.storeErr)

			assert.ErrorIs(t, c.Update(ctx, "l1", models.Fields{"title": "x"}), tt.want)
			assert.ErrorIs(t, c.SoftDelete(ctx, "l1"), tt.want)
			assert.ErrorIs(t, c.BatchWrite(ctx, []models.Lesson{{ID: "l3"}}, nil), tt.want)
		})
	}
}

func TestCollection_Update_MergesFields(t *testing.T) {
	c, store := newLessons(t)
	seed(t, store, "lessons", `{"id":"l1","title":"Old","body":"keep"}`)
	ctx := context.Background()

	require.NoError(t, c.Update(ctx, "l1", models.Fields{"title": "New"}))

	rec, ok, err := c.GetByID(ctx, "l1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "New", rec.Title)
	assert.Equal(t, "keep", rec.Body)
}

func TestCollection_Update_MissingIsAFailure(t *testing.T) {
	c, _ := newLessons(t)

	err := c.Update(context.Background(), "nope", models.Fields{"title": "x"})

	assert.ErrorIs(t, err, ErrRemoteFailure)
	assert.ErrorIs(t, err, adapter.ErrNotFound)
}

func TestCollection_SoftDelete(t *testing.T) {
	c, store := newLessons(t)
	seed(t, store, "lessons", `{"id":"l1","title":"T"}`)
	ctx := context.Background()

	require.NoError(t, c.SoftDelete(ctx, "l1"))

	doc, err := store.Get(ctx, "lessons", "l1")
	require.NoError(t, err)
	var raw models.Lesson
	require.NoError(t, json.Unmarshal(doc, &raw))
	assert.True(t, raw.Deleted)
	assert.Equal(t, testNow.UnixMilli(), raw.DeletedAt)
	assert.Equal(t, "T", raw.Title)
	assert.Zero(t, store.Calls("delete"))

	all, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCollection_QueryByField(t *testing.T) {
	store := adapter.NewMemoryDocumentStore()
	items := NewCollection[models.Item](store, "items", clockwork.NewFakeClock(), logger.Nop())
	seed(t, store, "items",
		`{"id":"i1","setId":"s1","prompt":"p1"}`,
		`{"id":"i2","setId":"s2","prompt":"p2"}`,
		`{"id":"i3","setId":"s1","prompt":"p3","isDeleted":true}`,
	)
	ctx := context.Background()

	got, err := items.QueryByField(ctx, "setId", "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i1", got[0].ID)

	store.FailWith(errForbidden)
	got, err = items.QueryByField(ctx, "setId", "s1")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = items.FetchByField(ctx, "setId", "s1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCollection_BatchWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockDocumentStore(ctrl)
	clock := clockwork.NewFakeClockAt(testNow)
	items := NewCollection[models.Item](store, "items", clock, logger.Nop())

	store.EXPECT().Batch(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, writes []adapter.Write) error {
		require.Len(t, writes, 2)

		assert.Equal(t, adapter.WriteSet, writes[0].Op)
		assert.Equal(t, "items", writes[0].Collection)
		assert.Equal(t, "i1", writes[0].ID)
		assert.JSONEq(t, `{"id":"i1","setId":"s1","prompt":"q","createdAt":1}`, string(writes[0].Doc))

		assert.Equal(t, adapter.WriteMerge, writes[1].Op)
		assert.Equal(t, "i0", writes[1].ID)
		assert.Equal(t, models.Fields{"isDeleted": true, "deletedAt": testNow.UnixMilli()}, writes[1].Fields)
		return nil
	})

	err := items.BatchWrite(context.Background(),
		[]models.Item{{ID: "i1", SetID: "s1", Prompt: "q", CreatedAt: 1}},
		[]string{"i0"},
	)

	require.NoError(t, err)
}

func TestCollection_BatchWrite_EmptyIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockDocumentStore(ctrl)
	items := NewCollection[models.Item](store, "items", clockwork.NewFakeClock(), logger.Nop())

	assert.NoError(t, items.BatchWrite(context.Background(), nil, nil))
}

func TestWithID(t *testing.T) {
	ids := utils.NewUUIDGenerator()

	kept, err := WithID(models.Lesson{ID: "x", Title: "t"}, ids)
	require.NoError(t, err)
	assert.Equal(t, "x", kept.ID)

	filled, err := WithID(models.Lesson{Title: "t"}, ids)
	require.NoError(t, err)
	assert.NotEmpty(t, filled.ID)
	assert.Equal(t, "t", filled.Title)
}
