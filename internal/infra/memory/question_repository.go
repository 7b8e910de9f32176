package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sat-quiz-runner/internal/domain"
)

// QuestionSource fetches a quiz's question sequence from a backing store
// (CSV download, Postgres, etc).
type QuestionSource interface {
	Load(ctx context.Context, quizName string) ([]domain.Question, error)
}

// QuestionRepository caches question sequences with TTL to avoid re-reading
// the full bank on every session start.
type QuestionRepository struct {
	source QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(source QuestionSource, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestions),
	}
}

func (r *QuestionRepository) Load(ctx context.Context, quizName string) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[quizName]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(quizName, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[quizName]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.source.Load(ctx, quizName)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[quizName] = cachedQuestions{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionSource is a simple source backed by an in-memory bank keyed
// by quiz name (useful for tests/demos).
type StaticQuestionSource struct {
	bank map[string][]domain.Question
}

func NewStaticQuestionSource(bank map[string][]domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{bank: bank}
}

func (s *StaticQuestionSource) Load(_ context.Context, quizName string) ([]domain.Question, error) {
	if questions, ok := s.bank[quizName]; ok && len(questions) > 0 {
		return questions, nil
	}
	return nil, domain.ErrNoQuestions
}
