package kv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func setupTestStore(t *testing.T) (*miniredis.Miniredis, *redis.Client, *Store) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client, NewStore(client, "test:")
}

func TestStore_Key(t *testing.T) {
	_, _, s := setupTestStore(t)
	assert.Equal(t, "test:patient:42", s.Key("patient", "42"))
	assert.Equal(t, "patient", NewStore(nil, "").Key("patient"))
}

func TestStore_PutGet(t *testing.T) {
	mr, _, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "patient", "1", record{ID: "1", Name: "Ada"}))

	var got record
	require.NoError(t, s.Get(ctx, "patient", "1", &got))
	assert.Equal(t, "Ada", got.Name)

	members, err := mr.Members("test:patient")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, members)
}

func TestStore_GetMiss(t *testing.T) {
	_, _, s := setupTestStore(t)
	var got record
	err := s.Get(context.Background(), "patient", "missing", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestStore_ListAndCount(t *testing.T) {
	_, _, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "note", "a", record{ID: "a"}))
	require.NoError(t, s.Put(ctx, "note", "b", record{ID: "b"}))
	require.NoError(t, s.Put(ctx, "patient", "p", record{ID: "p"}))

	notes, err := List[record](ctx, s, "note")
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	n, err := s.Count(ctx, "note")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_ListDropsStaleIDs(t *testing.T) {
	mr, _, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "note", "a", record{ID: "a"}))
	mr.Del("test:note:a")

	notes, err := List[record](ctx, s, "note")
	require.NoError(t, err)
	assert.Empty(t, notes)

	n, err := s.Count(ctx, "note")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_Delete(t *testing.T) {
	_, _, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "entry", "x", record{ID: "x"}))

	existed, err := s.Delete(ctx, "entry", "x")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.Delete(ctx, "entry", "x")
	require.NoError(t, err)
	assert.False(t, existed)

	ok, err := s.Exists(ctx, "entry", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_InitializedMarker(t *testing.T) {
	_, _, s := setupTestStore(t)
	ctx := context.Background()

	ok, err := s.Initialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	first, err := s.MarkInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := s.MarkInitialized(ctx)
	require.NoError(t, err)
	assert.False(t, second)

	ok, err = s.Initialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_Reset(t *testing.T) {
	mr, client, s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "patient", "1", record{ID: "1"}))
	_, err := s.MarkInitialized(ctx)
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, "other:key", "keep", 0).Err())

	require.NoError(t, s.Reset(ctx))

	assert.False(t, mr.Exists("test:patient:1"))
	assert.False(t, mr.Exists("test:initialized"))
	assert.True(t, mr.Exists("other:key"))
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := NewClient(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = NewClient(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}

func TestHealthHandler(t *testing.T) {
	_, client, _ := setupTestStore(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/store", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, HealthHandler(client)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"redis"`)
}
