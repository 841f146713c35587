package memory

import (
	"context"
	"sync"

	"agora/pkg/platform/diagnostics"
)

// Publisher keeps events in memory, in publish order.
type Publisher struct {
	mu     sync.RWMutex
	events []diagnostics.Event
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(_ context.Context, event diagnostics.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// List returns a copy of every published event.
func (p *Publisher) List() []diagnostics.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]diagnostics.Event{}, p.events...)
}

// ListByKind returns the events of one kind.
func (p *Publisher) ListByKind(kind diagnostics.EventKind) []diagnostics.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []diagnostics.Event
	for _, e := range p.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (p *Publisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
