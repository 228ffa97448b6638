package app

import (
	"context"
	"errors"
	"sync"

	"verbquiz-service/internal/domain"
)

// Screen is the top-level view a player is on.
type Screen string

const (
	ScreenHome    Screen = "home"
	ScreenPlaying Screen = "playing"
)

// Router switches one player between the home screen and a single running game.
// Leaving a game discards its session; nothing of it survives on the home screen.
type Router struct {
	games *QuizService

	mu     sync.Mutex
	screen Screen
	mode   domain.Mode
	gameID string
}

func NewRouter(games *QuizService) *Router {
	return &Router{games: games, screen: ScreenHome}
}

// ResumeRouter rebuilds a router for a stored game id. An empty or unknown id
// yields a router on the home screen.
func ResumeRouter(games *QuizService, gameID string) *Router {
	r := NewRouter(games)
	if gameID == "" {
		return r
	}
	if snap, err := games.Snapshot(gameID); err == nil {
		r.screen = ScreenPlaying
		r.mode = snap.Mode
		r.gameID = gameID
	}
	return r
}

func (r *Router) Screen() Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screen
}

// GameID is empty on the home screen.
func (r *Router) GameID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameID
}

func (r *Router) Mode() domain.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// StartGame leaves the home screen and creates a fresh session for mode.
func (r *Router) StartGame(ctx context.Context, mode domain.Mode) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.screen == ScreenPlaying {
		return domain.Snapshot{}, domain.ErrAlreadyPlaying
	}
	session, err := r.games.Start(ctx, mode)
	if err != nil {
		return domain.Snapshot{}, err
	}
	r.screen = ScreenPlaying
	r.mode = session.Mode()
	r.gameID = session.ID()
	return session.Snapshot(), nil
}

// EndGame returns to the home screen and discards the running session, whatever its state.
func (r *Router) EndGame(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.screen != ScreenPlaying {
		return
	}
	r.games.End(ctx, r.gameID)
	r.goHomeLocked()
}

func (r *Router) Snapshot() (domain.Snapshot, error) {
	return r.withGame(func(id string) (domain.Snapshot, error) {
		return r.games.Snapshot(id)
	})
}

func (r *Router) Wait(ctx context.Context) (domain.Snapshot, error) {
	return r.withGame(func(id string) (domain.Snapshot, error) {
		return r.games.Wait(ctx, id)
	})
}

func (r *Router) Submit(ctx context.Context, text string) (domain.Snapshot, error) {
	return r.withGame(func(id string) (domain.Snapshot, error) {
		return r.games.SubmitAnswer(ctx, id, text)
	})
}

func (r *Router) Advance(ctx context.Context) (domain.Snapshot, error) {
	return r.withGame(func(id string) (domain.Snapshot, error) {
		return r.games.Advance(ctx, id)
	})
}

// Subscribe streams snapshots of the running game.
func (r *Router) Subscribe(ctx context.Context) (<-chan domain.Snapshot, func(), error) {
	id := r.GameID()
	if id == "" {
		return nil, nil, domain.ErrNotPlaying
	}
	ch, cancel, err := r.games.Subscribe(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		r.dropGame(id)
	}
	return ch, cancel, err
}

// withGame runs fn against the current game. A game that vanished underneath the
// router (expired or ended elsewhere) sends the router back home.
func (r *Router) withGame(fn func(id string) (domain.Snapshot, error)) (domain.Snapshot, error) {
	id := r.GameID()
	if id == "" {
		return domain.Snapshot{}, domain.ErrNotPlaying
	}
	snap, err := fn(id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		r.dropGame(id)
	}
	return snap, err
}

func (r *Router) dropGame(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gameID == id {
		r.goHomeLocked()
	}
}

func (r *Router) goHomeLocked() {
	r.screen = ScreenHome
	r.mode = ""
	r.gameID = ""
}
