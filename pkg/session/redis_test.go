package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisClient connects to REDIS_HOST:REDIS_PORT; the tests are skipped when
// no Redis is configured.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{Addr: host + ":" + port})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis unreachable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStore(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	sid := uuid.NewString()
	s := NewRedisStore(client, time.Minute)
	t.Cleanup(func() { _ = s.Delete(ctx, sid) })

	_, found, err := s.Load(ctx, sid, "doctors")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, sid, "doctors", []byte(`{"mode":"idle"}`)))
	require.NoError(t, s.Save(ctx, sid, "patients", []byte(`{"mode":"editing"}`)))

	data, found, err := s.Load(ctx, sid, "doctors")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"mode":"idle"}`, string(data))

	ttl, err := client.TTL(ctx, stateKey(sid)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %v", ttl)

	require.NoError(t, s.Delete(ctx, sid))
	_, found, err = s.Load(ctx, sid, "patients")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisLocker(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	l := NewRedisLocker(client, 5*time.Second)

	tests := []struct {
		name     string
		inside   func(t *testing.T, sid string) error
		wantErr  error
		keyAfter bool
	}{
		{
			name: "held lock rejects a second holder",
			inside: func(t *testing.T, sid string) error {
				err := l.WithLock(ctx, sid, "doctors", func(context.Context) error { return nil })
				assert.ErrorIs(t, err, ErrLocked)
				return nil
			},
		},
		{
			name: "other resources stay free",
			inside: func(t *testing.T, sid string) error {
				return l.WithLock(ctx, sid, "patients", func(context.Context) error { return nil })
			},
		},
		{
			name: "error from fn is returned and the lock released",
			inside: func(t *testing.T, sid string) error {
				return ErrLocked
			},
			wantErr: ErrLocked,
		},
		{
			name: "a lock taken over by another token is left alone",
			inside: func(t *testing.T, sid string) error {
				return client.Set(ctx, lockKey(sid, "doctors"), "someone-else", time.Minute).Err()
			},
			keyAfter: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sid := uuid.NewString()
			t.Cleanup(func() { client.Del(ctx, lockKey(sid, "doctors")) })

			err := l.WithLock(ctx, sid, "doctors", func(ctx context.Context) error {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				return tt.inside(t, sid)
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			n, err := client.Exists(ctx, lockKey(sid, "doctors")).Result()
			require.NoError(t, err)
			assert.Equal(t, tt.keyAfter, n == 1)
		})
	}
}
