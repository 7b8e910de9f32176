package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"sat-quiz-runner/internal/domain"
	"sat-quiz-runner/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	source := &countingSource{
		QuestionSource: memory.NewStaticQuestionSource(map[string][]domain.Question{
			"EOC-M-C1-AlgebraBasics": sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(client, source, time.Minute)

	questions, err := repo.Load(context.Background(), "EOC-M-C1-AlgebraBasics")
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected source called once, got %d", source.calls)
	}
	if !mr.Exists("quiz:EOC-M-C1-AlgebraBasics:questions") {
		t.Fatalf("expected redis key to be set")
	}

	// Second load should hit cache, in bank order.
	again, err := repo.Load(context.Background(), "EOC-M-C1-AlgebraBasics")
	if err != nil {
		t.Fatalf("load questions 2: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", source.calls)
	}
	if len(again) != len(questions) || again[0].ID != questions[0].ID || again[1].ID != questions[1].ID {
		t.Fatalf("expected cached sequence to preserve order, got %+v", again)
	}
	if again[0].CorrectAnswer != "7" {
		t.Fatalf("expected correct answer to survive caching, got %q", again[0].CorrectAnswer)
	}
}

func TestQuestionRepositoryConcurrentLoadsAcrossQuizzes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	bank := make(map[string][]domain.Question)
	names := []string{"EOC-M-C1-AlgebraBasics", "EOC-M-C2-LinearEquations", "EOC-M-C3-Geometry"}
	for _, name := range names {
		questions := sampleQuestions()
		for i := range questions {
			questions[i].QuizName = name
		}
		bank[name] = questions
	}
	repo := NewQuestionRepository(newClient(mr), memory.NewStaticQuestionSource(bank), time.Minute)

	// Different quiz names miss the cache at once, so their TTL jitter
	// draws run concurrently. The race detector keeps this honest.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				questions, err := repo.Load(context.Background(), name)
				if err != nil {
					t.Errorf("load %s: %v", name, err)
					return
				}
				if len(questions) != 2 || questions[0].QuizName != name {
					t.Errorf("load %s: got %+v", name, questions)
				}
			}(name)
		}
	}
	wg.Wait()

	for _, name := range names {
		if !mr.Exists("quiz:" + name + ":questions") {
			t.Fatalf("expected cache entry for %s", name)
		}
	}
}

type countingSource struct {
	memory.QuestionSource
	calls int
}

func (s *countingSource) Load(ctx context.Context, quizName string) ([]domain.Question, error) {
	s.calls++
	return s.QuestionSource.Load(ctx, quizName)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            "EOC-M-C1-AlgebraBasics-Q1",
			QuizName:      "EOC-M-C1-AlgebraBasics",
			Prompt:        "If 5x - 7 = 28, what is the value of x?",
			Options:       []string{"5", "7", "9", "35"},
			CorrectAnswer: "7",
		},
		{
			ID:            "EOC-M-C1-AlgebraBasics-Q2",
			QuizName:      "EOC-M-C1-AlgebraBasics",
			Prompt:        "Which of the following numbers is a solution to the inequality 3(y - 2) < 15?",
			Options:       []string{"-2", "7", "8", "10"},
			CorrectAnswer: "-2",
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
