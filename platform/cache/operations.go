package cache

import (
	"github.com/gomodule/redigo/redis"
)

// Thin wrappers around the redis commands the snapshot store uses.

func Del(key string, conn *redis.Conn) error {
	_, err := (*conn).Do("DEL", key)
	return err
}

func HSET(key string, field string, value interface{}, conn *redis.Conn) error {
	_, err := (*conn).Do("HSET", key, field, value)
	return err
}

func HDEL(key string, field string, conn *redis.Conn) error {
	_, err := (*conn).Do("HDEL", key, field)
	return err
}

func HGETALL(key string, conn *redis.Conn) (map[string]string, error) {
	return redis.StringMap((*conn).Do("HGETALL", key))
}
