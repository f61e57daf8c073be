package cache_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/answerhunter/internal/cache"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis runs one Redis container for every integration subtest in the package.
func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "redis")
	require.NoError(t, err)
	return endpoint
}

func TestRedisCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	redisURL := startRedis(t)

	connect := func(t *testing.T) *cache.RedisCache {
		t.Helper()
		rc, err := cache.NewRedisCache(redisURL)
		require.NoError(t, err)
		t.Cleanup(func() { _ = rc.Close() })
		return rc
	}
	ctx := context.Background()

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, connect(t).Ping(ctx))
	})

	t.Run("search hits survive a roundtrip", func(t *testing.T) {
		rc := connect(t)
		key := cache.SearchResultKey("capital of France", 6)
		hits := []models.SearchHit{
			{Link: "https://en.wikipedia.org/wiki/Paris", Title: "Paris", Snippet: "Capital of France", Position: 1},
			{Link: "https://www.britannica.com/place/Paris", Title: "Paris | Britannica", Position: 2},
		}
		raw, err := json.Marshal(hits)
		require.NoError(t, err)

		require.NoError(t, rc.Set(ctx, key, raw, time.Minute))

		got, found, err := rc.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, found)
		var decoded []models.SearchHit
		require.NoError(t, json.Unmarshal(got, &decoded))
		assert.Equal(t, hits, decoded)
	})

	t.Run("missing key is a miss not an error", func(t *testing.T) {
		val, found, err := connect(t).Get(ctx, cache.SearchResultKey("never cached", 3))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, val)
	})

	t.Run("entries expire", func(t *testing.T) {
		rc := connect(t)
		key := cache.SearchResultKey("short lived", 2)
		require.NoError(t, rc.Set(ctx, key, []byte("[]"), time.Second))

		_, found, err := rc.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)

		assert.Eventually(t, func() bool {
			_, found, err := rc.Get(ctx, key)
			return err == nil && !found
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("delete", func(t *testing.T) {
		rc := connect(t)
		key := cache.SearchResultKey("to delete", 3)
		require.NoError(t, rc.Set(ctx, key, []byte("[]"), time.Minute))
		require.NoError(t, rc.Delete(ctx, key))
		require.NoError(t, rc.Delete(ctx, key), "deleting a missing key is fine")

		_, found, err := rc.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("job status mirror follows the lifecycle", func(t *testing.T) {
		rc := connect(t)
		jobID := uuid.New()

		for _, status := range []string{"initiated", "searching", "completed"} {
			require.NoError(t, rc.SetJobStatus(ctx, jobID, status, time.Minute))
			got, found, err := rc.GetJobStatus(ctx, jobID)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, status, got)
		}

		_, found, err := rc.GetJobStatus(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("closed client fails", func(t *testing.T) {
		rc, err := cache.NewRedisCache(redisURL)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Error(t, rc.Ping(ctx))
	})
}

// --- NopCache ---

func TestNopCache_AlwaysMisses(t *testing.T) {
	var c cache.Cache = cache.NopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	require.NoError(t, c.SetJobStatus(ctx, uuid.New(), "completed", time.Minute))
	status, found, err := c.GetJobStatus(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, status)

	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := cache.NewRedisCache("not-a-redis-url")
	assert.Error(t, err)
}

// --- Cache Key Builders ---

func TestJobStatusKey(t *testing.T) {
	jobID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	key := cache.JobStatusKey(jobID)
	assert.Equal(t, "job:22222222-2222-2222-2222-222222222222", key)
}

func TestSearchResultKey(t *testing.T) {
	key := cache.SearchResultKey("capital of France", 6)
	assert.True(t, strings.HasPrefix(key, "search:"), key)
	assert.True(t, strings.HasSuffix(key, ":6"), key)
	assert.Len(t, key, len("search:")+32+len(":6"))
}

func TestSearchResultKey_NormalizesQuery(t *testing.T) {
	assert.Equal(t,
		cache.SearchResultKey("capital of France", 6),
		cache.SearchResultKey("  Capital OF france ", 6))
	assert.NotEqual(t,
		cache.SearchResultKey("capital of France", 6),
		cache.SearchResultKey("capital of France", 4))
}

func TestKeyBuilders_NonColliding(t *testing.T) {
	keys := map[string]bool{
		cache.JobStatusKey(uuid.New()):        true,
		cache.SearchResultKey("query one", 2): true,
		cache.SearchResultKey("query two", 2): true,
	}
	assert.Len(t, keys, 3, "all keys should be unique")
}
