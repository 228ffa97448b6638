package app

import (
	"context"
	"log"
	"time"

	"verbquiz-service/internal/domain"

	"github.com/google/uuid"
)

// QuestionProvider produces the question set of a session.
type QuestionProvider interface {
	FetchQuestions(ctx context.Context, count int) ([]domain.Question, error)
}

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
	// IdleSince lists sessions whose last transition happened before cutoff.
	IdleSince(cutoff time.Time) []string
}

// ResultRepository keeps score summaries of finished sessions.
type ResultRepository interface {
	Record(ctx context.Context, result domain.Result) error
	Recent(ctx context.Context, limit int) ([]domain.Result, error)
}

// DefaultLoadTimeout bounds the provider call when no timeout is configured.
const DefaultLoadTimeout = 60 * time.Second

// QuizService contains the session use cases shared by every front end.
type QuizService struct {
	sessions    SessionRepository
	provider    QuestionProvider
	results     ResultRepository
	loadTimeout time.Duration
	newID       func() string
}

// NewQuizService wires the service. results may be nil, in which case finished
// sessions are not recorded.
func NewQuizService(store SessionRepository, provider QuestionProvider, results ResultRepository, loadTimeout time.Duration) *QuizService {
	if loadTimeout <= 0 {
		loadTimeout = DefaultLoadTimeout
	}
	return &QuizService{
		sessions:    store,
		provider:    provider,
		results:     results,
		loadTimeout: loadTimeout,
		newID:       uuid.NewString,
	}
}

// Start creates a session for mode and begins loading its questions in the background.
// The load outlives the calling request; it is bounded by the load timeout and
// cancelled when the session ends.
func (s *QuizService) Start(_ context.Context, mode domain.Mode) (*Session, error) {
	mode, err := domain.ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	session := newSession(s.newID(), mode)
	s.sessions.Add(session)

	loadCtx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
	session.setLoadCancel(cancel)
	go func() {
		defer cancel()
		session.load(loadCtx, s.provider)
	}()

	log.Printf("session %s started in %s mode", session.ID(), mode)
	return session, nil
}

// Snapshot returns the current view of a session.
func (s *QuizService) Snapshot(id string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Wait blocks until the session's questions have arrived or failed.
func (s *QuizService) Wait(ctx context.Context, id string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Wait(ctx)
}

// SubmitAnswer grades text against the current question.
func (s *QuizService) SubmitAnswer(ctx context.Context, id, text string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	snap, finished, err := session.submit(text)
	if finished {
		s.record(ctx, session)
	}
	return snap, err
}

// Advance moves past the feedback step.
func (s *QuizService) Advance(ctx context.Context, id string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	snap, finished, err := session.advance()
	if finished {
		s.record(ctx, session)
	}
	return snap, err
}

// Subscribe returns a channel that receives a snapshot after every transition.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, id string) (<-chan domain.Snapshot, func(), error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// End discards a session in any state. Unknown ids are ignored.
func (s *QuizService) End(_ context.Context, id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	s.sessions.Delete(id)
	session.discard()
	log.Printf("session %s ended in state %s", id, session.Snapshot().State)
}

// Sweep ends sessions that have been idle for longer than idle.
func (s *QuizService) Sweep(ctx context.Context, now time.Time, idle time.Duration) int {
	ids := s.sessions.IdleSince(now.Add(-idle))
	for _, id := range ids {
		s.End(ctx, id)
	}
	return len(ids)
}

// RecentResults lists the latest recorded scores, newest first.
func (s *QuizService) RecentResults(ctx context.Context, limit int) ([]domain.Result, error) {
	if s.results == nil {
		return nil, nil
	}
	return s.results.Recent(ctx, limit)
}

func (s *QuizService) record(ctx context.Context, session *Session) {
	result := session.result()
	log.Printf("session %s finished: %d / %d", result.SessionID, result.Score, result.Total)
	if s.results == nil {
		return
	}
	if err := s.results.Record(ctx, result); err != nil {
		log.Printf("record result for session %s: %v", result.SessionID, err)
	}
}

func newSession(id string, mode domain.Mode) *Session {
	return newSessionWithClock(id, mode, time.Now)
}
