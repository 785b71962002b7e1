package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.AuthPresenceChecker = (*AuthPresence)(nil)

// TokenPresent reports whether a stored access token counts as a session.
// The literal strings "undefined" and "null" are leftovers of serialized
// empty values and do not count.
func TokenPresent(value string, ok bool) bool {
	return ok && value != "" && value != "undefined" && value != "null"
}

func readToken(ctx context.Context, store port.KeyReader) (string, bool, error) {
	v, ok, err := store.Get(ctx, domain.KeyAccessToken)
	if err != nil {
		return "", false, err
	}
	if !TokenPresent(v, ok) {
		return "", false, nil
	}
	return v, true, nil
}

// AuthPresence tracks whether an access token is stored. It is a local
// check only: a present but expired token still reads as logged in.
type AuthPresence struct {
	store    port.KeyReader
	signals  port.SignalSubscriber
	onChange func(bool)

	mu       sync.Mutex
	ctx      context.Context
	loggedIn bool
	unsub    func()
}

type PresenceOpt func(*AuthPresence)

// WithPresenceListener is called after every recomputation that flips the
// state.
func WithPresenceListener(fn func(loggedIn bool)) PresenceOpt {
	return func(p *AuthPresence) {
		p.onChange = fn
	}
}

func NewAuthPresence(
	store port.KeyReader, signals port.SignalSubscriber, opts ...PresenceOpt,
) *AuthPresence {
	p := &AuthPresence{store: store, signals: signals}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mount computes the initial state and starts listening for storage,
// authChange and focus.
func (p *AuthPresence) Mount(ctx context.Context) {
	p.mu.Lock()
	if p.unsub != nil {
		p.mu.Unlock()
		return
	}
	p.ctx = ctx
	p.unsub = p.signals.Subscribe(
		func(domain.Signal) { p.recompute() },
		domain.SignalStorageChanged,
		domain.SignalAuthChanged,
		domain.SignalFocus,
	)
	p.mu.Unlock()

	p.recompute()
}

func (p *AuthPresence) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsub == nil {
		return
	}
	p.unsub()
	p.unsub = nil
}

func (p *AuthPresence) LoggedIn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loggedIn
}

func (p *AuthPresence) recompute() {
	const op = "AuthPresence.recompute"

	p.mu.Lock()
	if p.unsub == nil {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.mu.Unlock()

	_, ok, err := readToken(ctx, p.store)
	if err != nil {
		slog.Warn("failed to read token", "op", op, "err", err)
		ok = false
	}

	p.mu.Lock()
	changed := p.loggedIn != ok
	p.loggedIn = ok
	cb := p.onChange
	p.mu.Unlock()

	if changed && cb != nil {
		cb(ok)
	}
}
