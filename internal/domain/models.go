package domain

import "time"

// Question is one multiple-choice row from the question bank.
// Immutable once loaded; presentation order is bank order.
type Question struct {
	ID            string   `json:"questionId"`
	QuizName      string   `json:"quizName"`
	Prompt        string   `json:"prompt"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Options       []string `json:"options"` // 2-4 option texts in bank order
	CorrectAnswer string   `json:"correctAnswer"`
}

// AnswerRecord tracks the selected option and the accumulated dwell time for
// one question. Time only grows; revisits add to it, never reset it.
type AnswerRecord struct {
	QuestionID string
	Selected   string
	TimeSpent  time.Duration
}

// NoAnswer is the sentinel submitted for questions left unanswered.
const NoAnswer = "NO_ANSWER"

// SubmissionRecord is the outbound result shape, one per loaded question.
// Field names match the collection sheet's columns.
type SubmissionRecord struct {
	Timestamp        string  `json:"timestamp"`
	StudentEmail     string  `json:"student_gmail_id"`
	QuizName         string  `json:"quiz_name"`
	QuestionID       string  `json:"question_id"`
	StudentAnswer    string  `json:"student_answer"`
	IsCorrect        bool    `json:"is_correct"`
	TimeSpentSeconds float64 `json:"time_spent_seconds"`
}

// SessionStatus is the lifecycle of a quiz session. Submitted and
// Abandoned are terminal.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "inProgress"
	StatusSubmitted  SessionStatus = "submitted"
	StatusAbandoned  SessionStatus = "abandoned"
)

// PositionState is the navigator cell for one question position. Current,
// answered and unanswered are mutually exclusive; marked overlays any of them.
type PositionState struct {
	Current  bool `json:"current"`
	Answered bool `json:"answered"`
	Marked   bool `json:"marked"`
}

// QuestionView is the client-facing projection of a question. The correct
// answer never leaves the server.
type QuestionView struct {
	ID       string   `json:"questionId"`
	Prompt   string   `json:"prompt"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Options  []string `json:"options"`
	Selected string   `json:"selected,omitempty"`
}

// View is the full render state pushed to the client after every mutation
// and every countdown tick.
type View struct {
	QuizName         string          `json:"quizName"`
	UsedFallbackQuiz bool            `json:"usedFallbackQuiz,omitempty"`
	Status           SessionStatus   `json:"status"`
	Index            int             `json:"index"`
	Total            int             `json:"total"`
	RemainingSeconds int             `json:"remainingSeconds"`
	RemainingDisplay string          `json:"remainingDisplay"`
	Question         QuestionView    `json:"question"`
	Navigator        []PositionState `json:"navigator"`
}
