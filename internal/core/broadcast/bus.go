package broadcast

import (
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.SignalBus = (*Bus)(nil)

type subscription struct {
	id      uint64
	handler port.SignalHandler
}

// Bus is an in-process publish/subscribe hub keyed by signal.
//
// Handlers run synchronously on the publishing goroutine and must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[domain.Signal][]subscription
}

func New() *Bus {
	return &Bus{subs: make(map[domain.Signal][]subscription)}
}

// Subscribe registers h for every signal given. The returned function
// removes exactly these registrations and may be called more than once.
func (b *Bus) Subscribe(h port.SignalHandler, signals ...domain.Signal) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	for _, s := range signals {
		b.subs[s] = append(b.subs[s], subscription{id, h})
	}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id, signals) })
	}
}

func (b *Bus) remove(id uint64, signals []domain.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range signals {
		subs := b.subs[s]
		kept := subs[:0:0]
		for _, sub := range subs {
			if sub.id != id {
				kept = append(kept, sub)
			}
		}
		if len(kept) == 0 {
			delete(b.subs, s)
			continue
		}
		b.subs[s] = kept
	}
}

// Publish delivers s to the subscribers registered when it was called.
func (b *Bus) Publish(s domain.Signal) {
	b.mu.RLock()
	snapshot := append([]subscription(nil), b.subs[s]...)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		sub.handler(s)
	}
}

// Subscribers reports how many handlers currently listen for s.
func (b *Bus) Subscribers(s domain.Signal) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[s])
}
