package app

import (
	"sync"
	"time"

	"sat-quiz-runner/internal/domain"
)

// Session is the state machine for one student working through one quiz.
// It owns the loaded question sequence (immutable), the current position,
// the answer records with cumulative dwell time, and the review marks.
//
// Dwell time is flushed exactly once per visit, at the moment of navigating
// away (or submitting); the visit-start timestamp resets every time a
// question is displayed. Selecting an option only stages it for the current
// visit — the record upsert happens in the flush, which is why navigation
// and answer recording form one atomic step.
type Session struct {
	id               string
	quizName         string
	email            string
	usedFallbackQuiz bool
	questions        []domain.Question
	now              func() time.Time

	mu          sync.RWMutex
	status      domain.SessionStatus
	index       int
	visitStart  time.Time
	staged      string // option staged during the current visit, "" if none
	answers     map[string]*domain.AnswerRecord
	marked      map[string]struct{}
	lastBuilt   []domain.SubmissionRecord
	countdown   *Countdown
	subscribers map[chan domain.View]struct{}
}

// newSessionWithClock allows deterministic timestamps in tests; production
// callers pass time.Now through the runner.
func newSessionWithClock(id, quizName, email string, usedFallback bool, questions []domain.Question, now func() time.Time) *Session {
	return &Session{
		id:               id,
		quizName:         quizName,
		email:            email,
		usedFallbackQuiz: usedFallback,
		questions:        questions,
		now:              now,
		status:           domain.StatusInProgress,
		index:            0,
		visitStart:       now(),
		answers:          make(map[string]*domain.AnswerRecord),
		marked:           make(map[string]struct{}),
		subscribers:      make(map[chan domain.View]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// QuizName returns the quiz this session presents.
func (s *Session) QuizName() string { return s.quizName }

// Status returns the current lifecycle state.
func (s *Session) Status() domain.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) attachCountdown(c *Countdown) {
	s.mu.Lock()
	s.countdown = c
	s.mu.Unlock()
}

// Select stages an option for the currently displayed question. The staged
// value becomes the recorded answer when the student navigates away or
// submits. Selecting a different option later simply restages it.
func (s *Session) Select(optionText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusInProgress {
		return domain.ErrSessionClosed
	}
	q := s.questions[s.index]
	found := false
	for _, opt := range q.Options {
		if opt == optionText {
			found = true
			break
		}
	}
	if !found {
		return domain.ErrOptionNotFound
	}
	s.staged = optionText
	s.broadcastLocked()
	return nil
}

// GoTo jumps to an arbitrary question position. Out-of-range indices are
// silent no-ops; in-range jumps flush the current question's dwell time
// before moving and reset the visit-start timestamp.
func (s *Session) GoTo(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusInProgress {
		return
	}
	if index < 0 || index >= len(s.questions) {
		return
	}
	s.flushDwellLocked()
	s.index = index
	s.staged = ""
	s.visitStart = s.now()
	s.broadcastLocked()
}

// Next advances one position; a no-op on the last question.
func (s *Session) Next() {
	s.mu.RLock()
	target := s.index + 1
	s.mu.RUnlock()
	s.GoTo(target)
}

// Previous retreats one position; a no-op on the first question.
func (s *Session) Previous() {
	s.mu.RLock()
	target := s.index - 1
	s.mu.RUnlock()
	s.GoTo(target)
}

// ToggleReview flips the review mark on the currently displayed question.
// It touches neither answers nor navigation.
func (s *Session) ToggleReview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusInProgress {
		return
	}
	id := s.questions[s.index].ID
	if _, ok := s.marked[id]; ok {
		delete(s.marked, id)
	} else {
		s.marked[id] = struct{}{}
	}
	s.broadcastLocked()
}

// flushDwellLocked attributes the elapsed visit time to the current
// question's answer record. A question with no staged selection and no
// prior record stays unanswered and accumulates nothing. A revisited,
// previously answered question keeps its selection (the pre-checked option)
// and still accumulates the new dwell interval.
func (s *Session) flushDwellLocked() {
	q := s.questions[s.index]
	selected := s.staged
	if selected == "" {
		if rec, ok := s.answers[q.ID]; ok {
			selected = rec.Selected
		}
	}
	if selected == "" {
		return
	}
	dwell := s.now().Sub(s.visitStart)
	if dwell < 0 {
		dwell = 0
	}
	rec, ok := s.answers[q.ID]
	if !ok {
		rec = &domain.AnswerRecord{QuestionID: q.ID}
		s.answers[q.ID] = rec
	}
	rec.Selected = selected
	rec.TimeSpent += dwell
}

// finalize flushes the current dwell interval and moves the session to its
// terminal state. It reports false if the session was already submitted,
// so a manual submit racing the countdown expiry settles on one winner.
func (s *Session) finalize() (map[string]domain.AnswerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusInProgress {
		return nil, false
	}
	s.flushDwellLocked()
	s.status = domain.StatusSubmitted
	if s.countdown != nil {
		s.countdown.Stop()
	}
	answers := make(map[string]domain.AnswerRecord, len(s.answers))
	for id, rec := range s.answers {
		answers[id] = *rec
	}
	s.broadcastLocked()
	return answers, true
}

// close abandons the session without submitting: the countdown stops and
// the status leaves InProgress, so a racing expiry finds finalize refusing.
// Nothing an abandoned session accumulated ever reaches the collection
// endpoint.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusInProgress {
		return
	}
	s.status = domain.StatusAbandoned
	if s.countdown != nil {
		s.countdown.Stop()
	}
}

func (s *Session) setLastSubmission(records []domain.SubmissionRecord) {
	s.mu.Lock()
	s.lastBuilt = records
	s.mu.Unlock()
}

func (s *Session) lastSubmission() []domain.SubmissionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBuilt
}

// subscribe registers a view channel. The caller must invoke the returned
// cancel function to avoid leaks.
func (s *Session) subscribe() (<-chan domain.View, func()) {
	ch := make(chan domain.View, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// publishView pushes a fresh snapshot to all subscribers. Countdown ticks
// use it to refresh the remaining-time display without any state mutation.
func (s *Session) publishView() {
	s.mu.Lock()
	s.broadcastLocked()
	s.mu.Unlock()
}

// View returns a point-in-time snapshot of the render state.
func (s *Session) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) broadcastLocked() domain.View {
	view := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the stale snapshot so a slow reader never blocks mutation.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *Session) snapshotLocked() domain.View {
	q := s.questions[s.index]

	selected := s.staged
	if selected == "" {
		if rec, ok := s.answers[q.ID]; ok {
			selected = rec.Selected
		}
	}

	navigator := make([]domain.PositionState, len(s.questions))
	for i, question := range s.questions {
		_, answered := s.answers[question.ID]
		_, marked := s.marked[question.ID]
		navigator[i] = domain.PositionState{
			Current:  i == s.index,
			Answered: answered,
			Marked:   marked,
		}
	}

	remaining := 0
	if s.countdown != nil {
		remaining = s.countdown.Remaining()
	}

	return domain.View{
		QuizName:         s.quizName,
		UsedFallbackQuiz: s.usedFallbackQuiz,
		Status:           s.status,
		Index:            s.index,
		Total:            len(s.questions),
		RemainingSeconds: remaining,
		RemainingDisplay: formatClock(remaining),
		Question: domain.QuestionView{
			ID:       q.ID,
			Prompt:   q.Prompt,
			ImageURL: q.ImageURL,
			Options:  q.Options,
			Selected: selected,
		},
		Navigator: navigator,
	}
}
