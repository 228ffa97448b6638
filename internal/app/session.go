package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"verbquiz-service/internal/domain"
)

// Session is one play-through: it loads its questions once, then walks
// answering -> (feedback ->) answering ... -> finished.
type Session struct {
	id   string
	mode domain.Mode
	now  func() time.Time

	loaded     chan struct{}
	loadedOnce sync.Once

	mu          sync.RWMutex
	state       domain.State
	total       int
	questions   []domain.Question
	current     int
	input       string
	feedback    *domain.Feedback
	answers     []domain.Answer
	errMessage  string
	loading     bool
	closed      bool
	cancelLoad  context.CancelFunc
	lastActive  time.Time
	finishedAt  time.Time
	subscribers map[chan domain.Snapshot]struct{}
}

// NewSession creates a session in the loading state.
func NewSession(id string, mode domain.Mode) *Session {
	return newSessionWithClock(id, mode, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, mode domain.Mode, now func() time.Time) *Session {
	return newSessionWithClock(id, mode, now)
}

func newSessionWithClock(id string, mode domain.Mode, now func() time.Time) *Session {
	return &Session{
		id:          id,
		mode:        mode,
		now:         now,
		loaded:      make(chan struct{}),
		state:       domain.StateLoading,
		total:       mode.TotalQuestions(),
		lastActive:  now(),
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Mode() domain.Mode {
	return s.mode
}

// LastActive is the time of the most recent transition.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// load performs the single provider call of the session. Results arriving after
// the session was discarded are dropped.
func (s *Session) load(ctx context.Context, provider QuestionProvider) {
	s.mu.Lock()
	if s.loading || s.closed || s.state != domain.StateLoading {
		s.mu.Unlock()
		return
	}
	s.loading = true
	total := s.total
	s.mu.Unlock()
	defer s.markLoaded()

	questions, err := provider.FetchQuestions(ctx, total)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.touchLocked()
	if err != nil {
		s.state = domain.StateErrored
		s.errMessage = domain.UserMessage(err)
		s.broadcastLocked()
		return
	}

	if len(questions) > total {
		questions = questions[:total]
	}
	s.total = len(questions)
	s.questions = questions
	s.current = 0
	s.state = domain.StateAnswering
	s.broadcastLocked()
}

func (s *Session) markLoaded() {
	s.loadedOnce.Do(func() { close(s.loaded) })
}

func (s *Session) setLoadCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLoad = cancel
}

// Wait blocks until the session has left the loading state or ctx ends.
func (s *Session) Wait(ctx context.Context) (domain.Snapshot, error) {
	select {
	case <-s.loaded:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

// submit records an answer for the current question. Blank input and a missing
// current question leave the session untouched. finished is true when this call
// moved the session into the finished state.
func (s *Session) submit(text string) (snap domain.Snapshot, finished bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Snapshot{}, false, domain.ErrSessionNotFound
	}
	if s.state != domain.StateAnswering {
		return s.snapshotLocked(), false, domain.ErrInvalidTransition
	}
	if strings.TrimSpace(text) == "" || s.current >= len(s.questions) {
		return s.snapshotLocked(), false, nil
	}

	question := s.questions[s.current]
	answer := domain.NewAnswer(question, text)
	s.answers = append(s.answers, answer)
	s.input = text
	s.touchLocked()

	if s.mode.ShowsFeedback() {
		s.state = domain.StateFeedback
		s.feedback = &domain.Feedback{
			IsCorrect:     answer.IsCorrect,
			CorrectAnswer: question.CorrectForm,
			Explanation:   question.Explanation,
		}
		return s.broadcastLocked(), false, nil
	}

	finished = s.advanceLocked()
	return s.broadcastLocked(), finished, nil
}

// advance leaves the feedback step. From answering it is only allowed when there is
// no current question, which ends an empty session. Once finished it is a no-op.
func (s *Session) advance() (snap domain.Snapshot, finished bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Snapshot{}, false, domain.ErrSessionNotFound
	}
	switch s.state {
	case domain.StateFinished:
		return s.snapshotLocked(), false, nil
	case domain.StateFeedback:
	case domain.StateAnswering:
		if s.current < len(s.questions) {
			return s.snapshotLocked(), false, domain.ErrInvalidTransition
		}
	default:
		return s.snapshotLocked(), false, domain.ErrInvalidTransition
	}

	finished = s.advanceLocked()
	return s.broadcastLocked(), finished, nil
}

func (s *Session) advanceLocked() bool {
	s.touchLocked()
	s.feedback = nil
	if s.current < len(s.questions)-1 {
		s.current++
		s.input = ""
		s.state = domain.StateAnswering
		return false
	}
	s.state = domain.StateFinished
	s.finishedAt = s.now()
	return true
}

// discard ends the session for good: pending loads are cancelled and subscribers closed.
func (s *Session) discard() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancelLoad
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.markLoaded()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Score counts correct answers so far.
func (s *Session) Score() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scoreLocked()
}

// Answers returns the submitted answers in order.
func (s *Session) Answers() []domain.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Answer(nil), s.answers...)
}

// CurrentQuestion reports false while loading, after finishing, or when the
// provider returned no question for the current position.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.onQuestionLocked() {
		return domain.Question{}, false
	}
	return s.questions[s.current], true
}

func (s *Session) result() domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Result{
		SessionID:  s.id,
		Mode:       s.mode,
		Score:      s.scoreLocked(),
		Total:      s.total,
		FinishedAt: s.finishedAt,
	}
}

func (s *Session) subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
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

func (s *Session) broadcastLocked() domain.Snapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so slow readers never block a transition.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID: s.id,
		Mode:      s.mode,
		State:     s.state,
		Total:     s.total,
		Index:     s.current,
		Input:     s.input,
		Answered:  len(s.answers),
		Error:     s.errMessage,
	}
	if s.onQuestionLocked() {
		view := s.questions[s.current].View()
		snap.Question = &view
	}
	if s.feedback != nil {
		feedback := *s.feedback
		snap.Feedback = &feedback
	}
	if s.state == domain.StateFinished {
		snap.Results = &domain.Results{
			Score:   s.scoreLocked(),
			Total:   s.total,
			Answers: append([]domain.Answer(nil), s.answers...),
		}
	}
	return snap
}

func (s *Session) onQuestionLocked() bool {
	if s.state != domain.StateAnswering && s.state != domain.StateFeedback {
		return false
	}
	return s.current < len(s.questions)
}

func (s *Session) scoreLocked() int {
	score := 0
	for _, a := range s.answers {
		if a.IsCorrect {
			score++
		}
	}
	return score
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}
