package app

import (
	"context"
	"log"
	"strings"
	"time"

	"sat-quiz-runner/internal/domain"
)

// QuestionRepository loads a quiz's question sequence (from CSV, Postgres,
// a cache tier, etc). Implementations return domain.ErrNoQuestions when the
// quiz name matches nothing and *domain.SourceError when the bank itself
// cannot be fetched or parsed.
type QuestionRepository interface {
	Load(ctx context.Context, quizName string) ([]domain.Question, error)
}

// SessionRepository abstracts how live sessions are stored.
type SessionRepository interface {
	Save(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// IdentityStore persists the last-used student email so returning students
// get it prefilled.
type IdentityStore interface {
	SaveEmail(ctx context.Context, email string) error
	LoadEmail(ctx context.Context) (string, error)
}

// SubmissionDispatcher delivers the final result set to the collection
// endpoint. Best-effort: the runner decides what a failure means.
type SubmissionDispatcher interface {
	Dispatch(ctx context.Context, records []domain.SubmissionRecord) error
}

// Options tunes runner policy.
type Options struct {
	// SecondsPerQuestion sizes the session countdown. Zero disables it.
	SecondsPerQuestion int
	// FallbackQuiz is presented when a start intent names no quiz.
	FallbackQuiz string
	// OptimisticSubmit controls the dispatch-failure policy: when true the
	// session reports success immediately and a failed POST is only logged;
	// when false the failure is returned so the client can retry dispatch.
	OptimisticSubmit bool
	// DispatchTimeout bounds the background POST in optimistic mode.
	DispatchTimeout time.Duration
}

// QuizRunner contains the quiz session use cases.
type QuizRunner struct {
	sessions   SessionRepository
	questions  QuestionRepository
	identity   IdentityStore
	dispatcher SubmissionDispatcher
	opts       Options
	now        func() time.Time
}

func NewQuizRunner(sessions SessionRepository, questions QuestionRepository, identity IdentityStore, dispatcher SubmissionDispatcher, opts Options) *QuizRunner {
	if opts.SecondsPerQuestion < 0 {
		opts.SecondsPerQuestion = 0
	}
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 10 * time.Second
	}
	return &QuizRunner{
		sessions:   sessions,
		questions:  questions,
		identity:   identity,
		dispatcher: dispatcher,
		opts:       opts,
		now:        time.Now,
	}
}

// NewQuizRunnerWithClock is test-only for deterministic timestamps.
func NewQuizRunnerWithClock(sessions SessionRepository, questions QuestionRepository, identity IdentityStore, dispatcher SubmissionDispatcher, opts Options, now func() time.Time) *QuizRunner {
	runner := NewQuizRunner(sessions, questions, identity, dispatcher, opts)
	runner.now = now
	return runner
}

// SavedEmail returns the previously persisted student email, or "" when
// none is stored or the store is unreachable (prefill is best-effort).
func (r *QuizRunner) SavedEmail(ctx context.Context) string {
	if r.identity == nil {
		return ""
	}
	email, err := r.identity.LoadEmail(ctx)
	if err != nil {
		return ""
	}
	return email
}

// Start validates the student identity, loads the named quiz (falling back
// to the configured default when the name is empty), and creates a session
// in progress. Any failure leaves no session behind, so the start control
// stays retryable.
func (r *QuizRunner) Start(ctx context.Context, sessionID, email, quizName string) (*Session, error) {
	if !validEmail(email) {
		return nil, domain.ErrInvalidEmail
	}

	usedFallback := false
	if quizName == "" {
		quizName = r.opts.FallbackQuiz
		usedFallback = true
	}

	questions, err := r.questions.Load(ctx, quizName)
	if err != nil {
		return nil, err
	}

	if r.identity != nil {
		if err := r.identity.SaveEmail(ctx, email); err != nil {
			log.Printf("persist student email: %v", err)
		}
	}

	session := newSessionWithClock(sessionID, quizName, email, usedFallback, questions, r.now)
	if r.opts.SecondsPerQuestion > 0 {
		countdown := NewCountdown(
			len(questions)*r.opts.SecondsPerQuestion,
			func(int) { session.publishView() },
			func() { r.expire(session) },
		)
		session.attachCountdown(countdown)
		go countdown.Run(context.Background())
	}
	r.sessions.Save(session)
	return session, nil
}

// Select stages an option on the session's current question.
func (r *QuizRunner) Select(sessionID, optionText string) error {
	session, ok := r.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Select(optionText)
}

// GoTo jumps to an arbitrary question position.
func (r *QuizRunner) GoTo(sessionID string, index int) error {
	session, ok := r.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.GoTo(index)
	return nil
}

// Next advances to the following question.
func (r *QuizRunner) Next(sessionID string) error {
	session, ok := r.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Next()
	return nil
}

// Previous retreats to the preceding question.
func (r *QuizRunner) Previous(sessionID string) error {
	session, ok := r.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Previous()
	return nil
}

// ToggleReview flips the review mark on the current question.
func (r *QuizRunner) ToggleReview(sessionID string) error {
	session, ok := r.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.ToggleReview()
	return nil
}

// Subscribe returns a channel of view snapshots for a session. The caller
// must invoke the returned cancel function to avoid leaks.
func (r *QuizRunner) Subscribe(sessionID string) (<-chan domain.View, func(), error) {
	session, ok := r.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Submit finalizes the session (flushing the current dwell interval),
// builds the result set, and dispatches it according to the configured
// policy. The returned records are always the full built payload; in
// non-optimistic mode a dispatch failure comes back wrapped around
// domain.ErrSubmissionDispatch and the payload is retained for retry.
func (r *QuizRunner) Submit(ctx context.Context, sessionID string) ([]domain.SubmissionRecord, error) {
	session, ok := r.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return r.submit(ctx, session)
}

func (r *QuizRunner) submit(ctx context.Context, session *Session) ([]domain.SubmissionRecord, error) {
	answers, ok := session.finalize()
	if !ok {
		return nil, domain.ErrSessionClosed
	}

	records := BuildSubmission(r.now(), session.email, session.quizName, session.questions, answers)
	session.setLastSubmission(records)

	if r.opts.OptimisticSubmit {
		// The confirmation is already shown; the POST happens behind it.
		go func() {
			dispatchCtx, cancel := context.WithTimeout(context.Background(), r.opts.DispatchTimeout)
			defer cancel()
			if err := r.dispatcher.Dispatch(dispatchCtx, records); err != nil {
				log.Printf("quiz %s session %s: %v", session.quizName, session.id, err)
			}
		}()
		return records, nil
	}

	if err := r.dispatcher.Dispatch(ctx, records); err != nil {
		return records, err
	}
	return records, nil
}

// RetryDispatch re-sends an already built result set after a non-optimistic
// dispatch failure. The session state itself is untouched.
func (r *QuizRunner) RetryDispatch(ctx context.Context, sessionID string) error {
	session, ok := r.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	records := session.lastSubmission()
	if len(records) == 0 {
		return domain.ErrNoDispatchPending
	}
	return r.dispatcher.Dispatch(ctx, records)
}

// Release drops a session once its client is gone. No mid-session state
// survives a disconnect: the countdown stops with the session, so an
// abandoned quiz is never force-submitted later.
func (r *QuizRunner) Release(sessionID string) {
	if session, ok := r.sessions.Get(sessionID); ok {
		session.close()
	}
	r.sessions.Delete(sessionID)
}

// expire is the countdown's terminal path: force an unconditional
// submission with whatever state accumulated before the clock ran out.
func (r *QuizRunner) expire(session *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.DispatchTimeout)
	defer cancel()
	if _, err := r.submit(ctx, session); err != nil && err != domain.ErrSessionClosed {
		log.Printf("quiz %s session %s: forced submission: %v", session.quizName, session.id, err)
	}
}

func validEmail(email string) bool {
	return strings.Contains(email, "@")
}
