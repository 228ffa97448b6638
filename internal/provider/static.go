package provider

import (
	"context"
	"sync"

	"verbquiz-service/internal/domain"
)

// StaticProvider serves a fixed question list, or fails with a fixed cause.
// It returns its whole list regardless of the requested count.
type StaticProvider struct {
	questions []domain.Question
	err       error
	gate      <-chan struct{}

	mu    sync.Mutex
	calls int
}

func NewStaticProvider(questions []domain.Question) *StaticProvider {
	return &StaticProvider{questions: questions}
}

// NewFailingProvider fails every call with a GenerationError wrapping cause.
func NewFailingProvider(cause error) *StaticProvider {
	return &StaticProvider{err: cause}
}

// WithGate makes every call block until gate is closed or the context ends.
func (p *StaticProvider) WithGate(gate <-chan struct{}) *StaticProvider {
	p.gate = gate
	return p
}

func (p *StaticProvider) FetchQuestions(ctx context.Context, _ int) ([]domain.Question, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, domain.NewGenerationError(ctx.Err())
		}
	}
	if p.err != nil {
		return nil, domain.NewGenerationError(p.err)
	}

	out := make([]domain.Question, len(p.questions))
	for i, q := range p.questions {
		q.ID = i
		out[i] = q
	}
	return out, nil
}

// Calls reports how many times FetchQuestions ran.
func (p *StaticProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
