package app

import (
	"testing"
	"time"

	"sat-quiz-runner/internal/domain"
)

func TestBuildSubmissionOneRecordPerQuestionInLoadOrder(t *testing.T) {
	questions := algebraQuestions()
	submittedAt := time.Date(2025, 6, 11, 9, 30, 0, 0, time.UTC)
	answers := map[string]domain.AnswerRecord{
		"EOC-M-C1-AlgebraBasics-Q2": {
			QuestionID: "EOC-M-C1-AlgebraBasics-Q2",
			Selected:   "8",
			TimeSpent:  12340 * time.Millisecond,
		},
	}

	records := BuildSubmission(submittedAt, "student@example.com", "EOC-M-C1-AlgebraBasics", questions, answers)

	if len(records) != 3 {
		t.Fatalf("expected one record per loaded question, got %d", len(records))
	}
	for i, q := range questions {
		if records[i].QuestionID != q.ID {
			t.Fatalf("expected load order preserved at %d: %s != %s", i, records[i].QuestionID, q.ID)
		}
		if records[i].Timestamp != "2025-06-11T09:30:00Z" {
			t.Fatalf("expected shared submission timestamp, got %q", records[i].Timestamp)
		}
		if records[i].StudentEmail != "student@example.com" || records[i].QuizName != "EOC-M-C1-AlgebraBasics" {
			t.Fatalf("unexpected identity fields: %+v", records[i])
		}
	}

	if records[0].StudentAnswer != domain.NoAnswer || records[0].IsCorrect || records[0].TimeSpentSeconds != 0 {
		t.Fatalf("expected unanswered sentinel for Q1, got %+v", records[0])
	}
	if records[1].StudentAnswer != "8" || records[1].IsCorrect {
		t.Fatalf("expected wrong answer recorded for Q2, got %+v", records[1])
	}
	if records[1].TimeSpentSeconds != 12.34 {
		t.Fatalf("expected 12.34s, got %v", records[1].TimeSpentSeconds)
	}
}

func TestBuildSubmissionTrimsWhitespaceBeforeComparing(t *testing.T) {
	questions := []domain.Question{{
		ID:            "q1",
		QuizName:      "quiz",
		Prompt:        "pick",
		Options:       []string{" 7 ", "9"},
		CorrectAnswer: "7",
	}}
	answers := map[string]domain.AnswerRecord{
		"q1": {QuestionID: "q1", Selected: " 7 ", TimeSpent: time.Second},
	}

	records := BuildSubmission(time.Now(), "s@example.com", "quiz", questions, answers)
	if !records[0].IsCorrect {
		t.Fatalf("expected surrounding whitespace ignored, got %+v", records[0])
	}
	// The submitted answer itself is untouched.
	if records[0].StudentAnswer != " 7 " {
		t.Fatalf("expected raw answer preserved, got %q", records[0].StudentAnswer)
	}
}
