package app

import (
	"math"
	"strings"
	"time"

	"sat-quiz-runner/internal/domain"
)

// BuildSubmission transforms final session state into the outbound result
// set: exactly one record per loaded question, in load order, answered or
// not. Correctness is an exact string match after trimming surrounding
// whitespace on both sides. Pure; dispatching the records is a separate,
// fallible step.
func BuildSubmission(submittedAt time.Time, email, quizName string, questions []domain.Question, answers map[string]domain.AnswerRecord) []domain.SubmissionRecord {
	timestamp := submittedAt.UTC().Format(time.RFC3339)
	records := make([]domain.SubmissionRecord, 0, len(questions))
	for _, q := range questions {
		record := domain.SubmissionRecord{
			Timestamp:     timestamp,
			StudentEmail:  email,
			QuizName:      quizName,
			QuestionID:    q.ID,
			StudentAnswer: domain.NoAnswer,
		}
		if rec, ok := answers[q.ID]; ok {
			record.StudentAnswer = rec.Selected
			record.IsCorrect = strings.TrimSpace(rec.Selected) == strings.TrimSpace(q.CorrectAnswer)
			record.TimeSpentSeconds = roundSeconds(rec.TimeSpent)
		}
		records = append(records, record)
	}
	return records
}

// roundSeconds converts a dwell duration to seconds with centisecond
// precision, the resolution the collection sheet expects.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
