package lock

import (
	"context"
	"errors"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease is a best effort lease shared by every instance pointed at the same redis.
type RedisLease struct {
	c   *redis.Client
	key string
}

func NewRedisLease(c *redis.Client, key string) *RedisLease {
	return &RedisLease{c: c, key: key}
}

// Acquire takes the lease for ttl. It returns a release func when the lease was taken and
// ok=false when another holder has it.
func (l *RedisLease) Acquire(ctx context.Context, ttl time.Duration) (release func(), ok bool, err error) {
	if ttl <= 0 {
		return nil, false, errors.New("lease ttl must be positive")
	}

	token, err := gonanoid.New()
	if err != nil {
		return nil, false, err
	}

	ok, err = l.c.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		releaseScript.Run(ctx, l.c, []string{l.key}, token)
	}
	return release, true, nil
}
