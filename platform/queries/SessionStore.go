package queries

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gomodule/redigo/redis"

	"github.com/ilianxin/RichMan-Web3/app/models"
	"github.com/ilianxin/RichMan-Web3/platform/cache"
)

// RedisStore writes session snapshots through to one redis hash per game:
// field "<user_id>" holds a player blob, "tile.<pos>" an owned tile and
// "meta" the started flag plus the mint counter. A game survives a process
// restart, and reconnecting clients get caught up from the same hash.
type RedisStore struct {
	Pool *redis.Pool
}

func NewRedisStore(pool *redis.Pool) *RedisStore {
	return &RedisStore{Pool: pool}
}

const (
	tilePrefix = "tile."
	metaField  = "meta"
)

func tileField(pos int) string {
	return fmt.Sprintf("%s%d", tilePrefix, pos)
}

func (s *RedisStore) SavePlayer(game_id, user_id string, snapshot models.PlayerDto) error {
	conn := s.Pool.Get()
	defer conn.Close()

	blob, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return cache.HSET(game_id, user_id, blob, &conn)
}

func (s *RedisStore) SaveTile(game_id string, state models.TileState) error {
	conn := s.Pool.Get()
	defer conn.Close()

	blob, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return cache.HSET(game_id, tileField(state.Position), blob, &conn)
}

func (s *RedisStore) SaveMeta(game_id string, meta models.GameMeta) error {
	conn := s.Pool.Get()
	defer conn.Close()

	blob, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return cache.HSET(game_id, metaField, blob, &conn)
}

func (s *RedisStore) DeletePlayer(game_id, user_id string) error {
	conn := s.Pool.Get()
	defer conn.Close()
	return cache.HDEL(game_id, user_id, &conn)
}

func (s *RedisStore) DeleteTile(game_id string, pos int) error {
	conn := s.Pool.Get()
	defer conn.Close()
	return cache.HDEL(game_id, tileField(pos), &conn)
}

func (s *RedisStore) Clear(game_id string) error {
	conn := s.Pool.Get()
	defer conn.Close()
	return cache.Del(game_id, &conn)
}

// Load reads back everything persisted for a game. A game with no hash
// yields empty results, not an error.
func (s *RedisStore) Load(game_id string) (map[string]models.PlayerDto, []models.TileState, models.GameMeta, error) {
	conn := s.Pool.Get()
	defer conn.Close()

	var meta models.GameMeta
	fields, err := cache.HGETALL(game_id, &conn)
	if err != nil {
		return nil, nil, meta, err
	}

	players := make(map[string]models.PlayerDto)
	var tiles []models.TileState
	for field, blob := range fields {
		switch {
		case field == metaField:
			if err := json.Unmarshal([]byte(blob), &meta); err != nil {
				return nil, nil, meta, err
			}
		case strings.HasPrefix(field, tilePrefix):
			var state models.TileState
			if err := json.Unmarshal([]byte(blob), &state); err != nil {
				return nil, nil, meta, err
			}
			tiles = append(tiles, state)
		default:
			var snapshot models.PlayerDto
			if err := json.Unmarshal([]byte(blob), &snapshot); err != nil {
				return nil, nil, meta, err
			}
			players[field] = snapshot
		}
	}
	return players, tiles, meta, nil
}
