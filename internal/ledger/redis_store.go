package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

// Hash fields of a ledger key
const (
	fieldXP           = "user_xp"
	fieldLevel        = "user_level"
	fieldAchievements = "achievements_unlocked"
	fieldRank         = "leaderboard_rank"
	fieldLastSync     = "last_xp_sync"
	counterPrefix     = "counter:"
)

const maxTxRetries = 10

var ErrTxConflict = errors.New("ledger: too many concurrent updates")

// RedisStore keeps state in one Redis hash. Updates use WATCH/MULTI so concurrent
// writers on the same key are serialized optimistically.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store on the given hash key, e.g. "ledger:<user id>"
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (State, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return State{}, fmt.Errorf("load ledger: %w", err)
	}
	return decodeHash(fields)
}

func (r *RedisStore) Update(ctx context.Context, fn func(*State) error) (State, error) {
	var (
		result State
		fnErr  error
	)

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, r.key).Result()
		if err != nil {
			return err
		}
		cur, err := decodeHash(fields)
		if err != nil {
			return err
		}

		next := cur.Clone()
		if err := fn(&next); err != nil {
			result, fnErr = cur, err
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.key)
			pipe.HSet(ctx, r.key, encodeHash(next))
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		fnErr = nil
		err := r.client.Watch(ctx, txf, r.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return State{}, fmt.Errorf("update ledger: %w", err)
		}
		return result, fnErr
	}
	return State{}, ErrTxConflict
}

func encodeHash(s State) map[string]interface{} {
	achievements, _ := json.Marshal(s.AchievementsUnlocked)
	m := map[string]interface{}{
		fieldXP:           s.TotalXP,
		fieldLevel:        s.CurrentLevel,
		fieldAchievements: string(achievements),
		fieldRank:         s.LeaderboardRank,
		fieldLastSync:     s.LastSyncTimestamp,
	}
	for name, v := range s.Counters {
		m[counterPrefix+name] = v
	}
	return m
}

func decodeHash(fields map[string]string) (State, error) {
	s := DefaultState()
	if len(fields) == 0 {
		return s, nil
	}

	var err error
	for k, v := range fields {
		switch {
		case k == fieldXP:
			s.TotalXP, err = strconv.ParseInt(v, 10, 64)
		case k == fieldLevel:
			s.CurrentLevel, err = strconv.Atoi(v)
		case k == fieldRank:
			s.LeaderboardRank, err = strconv.Atoi(v)
		case k == fieldLastSync:
			s.LastSyncTimestamp, err = strconv.ParseInt(v, 10, 64)
		case k == fieldAchievements:
			err = json.Unmarshal([]byte(v), &s.AchievementsUnlocked)
		case strings.HasPrefix(k, counterPrefix):
			var n int64
			n, err = strconv.ParseInt(v, 10, 64)
			s.Counters[strings.TrimPrefix(k, counterPrefix)] = n
		}
		if err != nil {
			return State{}, fmt.Errorf("decode ledger field %s: %w", k, err)
		}
	}
	s.normalize()
	return s, nil
}
