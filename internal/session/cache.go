package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aves-lingo/aves-engine/internal/exercise"
)

const exerciseKeyPrefix = "exercise:"

// ExerciseCache keeps generated exercises in Redis so grading can
// reload the full payload, answer key included, after the exercise
// has left the engine's in-flight table (re-display, reconnects).
type ExerciseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExerciseCache creates a cache with the given entry TTL.
func NewExerciseCache(client *redis.Client, ttl time.Duration) *ExerciseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ExerciseCache{client: client, ttl: ttl}
}

// Put stores an exercise by id.
func (c *ExerciseCache) Put(ctx context.Context, ex *exercise.Exercise) error {
	data, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("marshal exercise: %w", err)
	}
	if err := c.client.Set(ctx, exerciseKeyPrefix+ex.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache exercise: %w", err)
	}
	return nil
}

// Get loads an exercise by id. The second return is false on a miss.
func (c *ExerciseCache) Get(ctx context.Context, id string) (*exercise.Exercise, bool, error) {
	data, err := c.client.Get(ctx, exerciseKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load cached exercise: %w", err)
	}

	var ex exercise.Exercise
	if err := json.Unmarshal(data, &ex); err != nil {
		return nil, false, fmt.Errorf("decode cached exercise: %w", err)
	}
	return &ex, true, nil
}

// Delete removes an exercise after its result is recorded.
func (c *ExerciseCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, exerciseKeyPrefix+id).Err()
}
