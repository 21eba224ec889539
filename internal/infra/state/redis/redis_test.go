package redisstate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yihuitong/internal/domain"
	"yihuitong/internal/navigator"
	"yihuitong/internal/repository"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionRepository_SaveFindDelete(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewRedisSessionRepository(client, "t:")
	ctx := context.Background()

	session := &domain.Session{
		ID:        "abc",
		Identity:  domain.Identity{DisplayName: "张三", Email: "zhang@example.com"},
		CreatedAt: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, session, time.Hour))
	assert.True(t, mr.Exists("t:session:abc"))
	assert.Equal(t, time.Hour, mr.TTL("t:session:abc"))

	found, err := repo.Find(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, session.Identity, found.Identity)
	assert.True(t, session.CreatedAt.Equal(found.CreatedAt))

	require.NoError(t, repo.Delete(ctx, "abc"))
	_, err = repo.Find(ctx, "abc")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	// 重复删除不报错
	assert.NoError(t, repo.Delete(ctx, "abc"))
}

func TestSessionRepository_Expired(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewRedisSessionRepository(client, "")
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "s1"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Find(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestRoomRepository_CreateIsExclusive(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewRedisRoomRepository(client, "t:")
	ctx := context.Background()

	room := &domain.Room{Number: "1234", HostEmail: "host@example.com", HostName: "主持人"}
	require.NoError(t, repo.Create(ctx, room, 30*time.Second))
	assert.Equal(t, 30*time.Second, mr.TTL("t:room:1234"))

	err := repo.Create(ctx, &domain.Room{Number: "1234"}, 30*time.Second)
	assert.ErrorIs(t, err, repository.ErrRoomTaken)

	found, err := repo.Find(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, "host@example.com", found.HostEmail)
}

func TestRoomRepository_TouchAndExpiry(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewRedisRoomRepository(client, "t:")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Room{Number: "5678"}, 10*time.Second))

	mr.FastForward(8 * time.Second)
	require.NoError(t, repo.Touch(ctx, "5678", 10*time.Second))
	mr.FastForward(8 * time.Second)

	exists, err := repo.Exists(ctx, "5678")
	require.NoError(t, err)
	assert.True(t, exists)

	mr.FastForward(5 * time.Second)
	exists, err = repo.Exists(ctx, "5678")
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.Touch(ctx, "5678", 10*time.Second)
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)

	_, err = repo.Find(ctx, "5678")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
}

func TestRoomRepository_Delete(t *testing.T) {
	_, client := setupRedis(t)
	repo := NewRedisRoomRepository(client, "t:")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Room{Number: "9012"}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "9012"))
	require.NoError(t, repo.Delete(ctx, "9012"))

	// 删除后号码可以再次使用
	assert.NoError(t, repo.Create(ctx, &domain.Room{Number: "9012"}, time.Minute))
}

func TestRateLimiter_Allow(t *testing.T) {
	mr, client := setupRedis(t)
	limiter := NewRedisRateLimiter(client, "t:")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "127.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}
	ok, err := limiter.Allow(ctx, "127.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// 其他客户端不受影响
	ok, err = limiter.Allow(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = limiter.Allow(ctx, "127.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPathPublisher_Report(t *testing.T) {
	_, client := setupRedis(t)
	publisher := NewRedisPathPublisher(client, "t:")
	ctx := context.Background()
	assert.Equal(t, "t:chux-path-change", publisher.Channel())

	sub := client.Subscribe(ctx, publisher.Channel())
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	change := navigator.NewPathChange("/join-meeting", "")
	require.NoError(t, publisher.Report(ctx, change))

	msg, err := sub.ReceiveTimeout(ctx, 2*time.Second)
	require.NoError(t, err)
	m, ok := msg.(*redis.Message)
	require.True(t, ok)

	var got navigator.PathChange
	require.NoError(t, json.Unmarshal([]byte(m.Payload), &got))
	assert.Equal(t, change, got)
}
