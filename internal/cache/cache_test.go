package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlspress/hlspress/pkg/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, 30*time.Second)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestVideoListRoundTrip(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	videos := []*models.Video{
		{ID: 1, OriginalName: "a.mp4", Status: models.VideoStatusCompleted},
		{ID: 2, OriginalName: "b.mp4", Status: models.VideoStatusPending},
	}
	require.NoError(t, c.SetVideoList(ctx, videos))

	got, err := c.GetVideoList(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "b.mp4", got[1].OriginalName)
}

func TestVideoListMiss(t *testing.T) {
	c, _ := setupTestCache(t)

	got, err := c.GetVideoList(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVideoListInvalidate(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetVideoList(ctx, []*models.Video{{ID: 1}}))
	require.NoError(t, c.InvalidateVideoList(ctx))

	got, err := c.GetVideoList(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVideoListExpires(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetVideoList(ctx, []*models.Video{{ID: 1}}))
	mr.FastForward(time.Minute)

	got, err := c.GetVideoList(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
