package cache

import (
	"os"
	"time"

	"github.com/gomodule/redigo/redis"
)

func redisAddr() string {
	if addr := os.Getenv("REDIS_URL"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// CreateRedisPool builds the shared pool for session snapshots. Idle
// connections are health-checked before reuse so a redis restart does not
// surface as write errors mid-game.
func CreateRedisPool() *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		MaxActive:   64,
		IdleTimeout: 60 * time.Second,
		Dial:        func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr()) },
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

func CreateRedisConnection() (redis.Conn, error) {
	return redis.Dial("tcp", redisAddr())
}
