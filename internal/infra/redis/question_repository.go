package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"sat-quiz-runner/internal/domain"
)

// QuestionSource fetches a quiz's question sequence from a backing store.
type QuestionSource interface {
	Load(ctx context.Context, quizName string) ([]domain.Question, error)
}

// QuestionRepository caches question sequences in Redis and falls back to a
// source on cache miss. The sequence is stored as one JSON value:
// SET quiz:{quizName}:questions {json} EX ttl
// so bank order survives the round trip untouched.
type QuestionRepository struct {
	client *redis.Client
	source QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionRepository(client *redis.Client, source QuestionSource, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		source: source,
		ttl:    ttl,
	}
}

func (r *QuestionRepository) Load(ctx context.Context, quizName string) ([]domain.Question, error) {
	key := r.questionsKey(quizName)

	if cached, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var questions []domain.Question
		if err := json.Unmarshal(cached, &questions); err == nil && len(questions) > 0 {
			return questions, nil
		}
		// Unreadable cache entry: fall through and reload.
	}

	result, err, _ := r.sf.Do(quizName, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cached, err := r.client.Get(ctx, key).Bytes(); err == nil {
			var questions []domain.Question
			if err := json.Unmarshal(cached, &questions); err == nil && len(questions) > 0 {
				return questions, nil
			}
		}

		questions, err := r.source.Load(ctx, quizName)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) questionsKey(quizName string) string {
	return "quiz:" + quizName + ":questions"
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// The global source is goroutine-safe; singleflight only serializes
	// loads of the same quiz name, so different quizzes jitter concurrently.
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
