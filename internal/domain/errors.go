package domain

import "errors"

var (
	// ErrInvalidEmail is returned when the student identity fails validation.
	ErrInvalidEmail = errors.New("email address must contain '@'")
	// ErrNoQuestions is returned when no bank row matches the quiz name exactly.
	ErrNoQuestions = errors.New("no questions found for quiz")
	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionClosed is returned for intents arriving after submission.
	ErrSessionClosed = errors.New("quiz session already submitted")
	// ErrOptionNotFound indicates a selected option is not one of the question's options.
	ErrOptionNotFound = errors.New("option not found")
	// ErrSubmissionDispatch indicates the outbound result POST failed or was rejected.
	ErrSubmissionDispatch = errors.New("submission dispatch failed")
	// ErrNoDispatchPending is returned when a retry is requested but nothing was built yet.
	ErrNoDispatchPending = errors.New("no submission pending dispatch")
)

// SourceError wraps an upstream question-source failure (fetch or parse).
// Distinct from ErrNoQuestions: the source was unreachable or unreadable,
// not merely empty for the requested quiz.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return "question source unavailable: " + e.Err.Error()
}

func (e *SourceError) Unwrap() error { return e.Err }
