package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.BadgeSynchronizer = (*CartBadge)(nil)

// BadgeState is what the header shows.
type BadgeState struct {
	Count    int
	User     domain.User
	LoggedIn bool
	// Err is the failure of the latest refresh; Count keeps its last
	// known value when it is set.
	Err error
}

type refreshKind uint8

const (
	fullSync refreshKind = iota + 1
	cartOnly
)

// CartBadge keeps the header cart count in line with the backend.
//
// Every refresh runs in its own goroutine and takes a sequence number when
// issued. The user and the count are applied only if no later-issued
// refresh has set them yet, so a slow response never overwrites a newer one.
type CartBadge struct {
	store    port.KeyValueStore
	users    port.UserFetcher
	carts    port.CartFetcher
	signals  port.SignalSubscriber
	onChange func(BadgeState)

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	unsub    func()
	issued   uint64
	userSeq  uint64
	countSeq uint64
	state    BadgeState

	wg sync.WaitGroup
}

type BadgeOpt func(*CartBadge)

// WithBadgeListener is called with the new state after each applied
// refresh. It runs on the refreshing goroutine.
func WithBadgeListener(fn func(BadgeState)) BadgeOpt {
	return func(b *CartBadge) {
		b.onChange = fn
	}
}

func NewCartBadge(
	store port.KeyValueStore,
	users port.UserFetcher,
	carts port.CartFetcher,
	signals port.SignalSubscriber,
	opts ...BadgeOpt,
) *CartBadge {
	b := &CartBadge{
		store:   store,
		users:   users,
		carts:   carts,
		signals: signals,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Mount subscribes to the header signals and starts the initial sync.
func (b *CartBadge) Mount(ctx context.Context) {
	b.mu.Lock()
	if b.unsub != nil {
		b.mu.Unlock()
		return
	}
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.unsub = b.signals.Subscribe(
		b.handle,
		domain.SignalAuthChanged,
		domain.SignalCartChanged,
		domain.SignalStorageChanged,
		domain.SignalFocus,
	)
	b.mu.Unlock()

	b.refresh(fullSync)
}

// Unmount unsubscribes, cancels in-flight fetches and waits for them.
// No state changes after it returns.
func (b *CartBadge) Unmount() {
	b.mu.Lock()
	if b.unsub == nil {
		b.mu.Unlock()
		return
	}
	b.unsub()
	b.unsub = nil
	b.cancel()
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *CartBadge) Count() int {
	return b.State().Count
}

func (b *CartBadge) State() BadgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *CartBadge) handle(s domain.Signal) {
	if s == domain.SignalCartChanged {
		b.refresh(cartOnly)
		return
	}
	b.refresh(fullSync)
}

func (b *CartBadge) refresh(kind refreshKind) {
	b.mu.Lock()
	if b.unsub == nil {
		b.mu.Unlock()
		return
	}
	b.issued++
	seq := b.issued
	ctx := b.ctx
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		b.sync(ctx, seq, kind)
	}()
}

func (b *CartBadge) sync(ctx context.Context, seq uint64, kind refreshKind) {
	const op = "CartBadge.sync"
	log := slog.With("op", op, "seq", seq)

	token, ok, err := readToken(ctx, b.store)
	if err != nil {
		log.Warn("failed to read token", "err", err)
		b.fail(seq, partCount, err)
		return
	}
	if !ok {
		b.apply(seq, signedOut)
		return
	}

	if kind == fullSync {
		user, err := b.users.FetchMe(ctx, token)
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			log.Info("stored session rejected, clearing storage")
			if err := b.store.Clear(ctx); err != nil {
				log.Warn("failed to clear storage", "err", err)
			}
			b.apply(seq, signedOut)
			return
		case err != nil:
			log.Warn("failed to fetch user", "err", err)
			b.fail(seq, partUser, err)
			return
		}
		b.apply(seq, badgeUpdate{user: func(s *BadgeState) {
			s.User = user
			s.LoggedIn = true
		}})
	}

	cart, err := b.carts.FetchCart(ctx, token)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		b.apply(seq, badgeUpdate{count: func(s *BadgeState) {
			s.Count = 0
			s.Err = nil
		}})
		return
	case err != nil:
		log.Warn("failed to fetch cart", "err", err)
		b.fail(seq, partCount, err)
		return
	}

	b.apply(seq, badgeUpdate{count: func(s *BadgeState) {
		s.Count = cart.Count()
		s.LoggedIn = true
		s.Err = nil
	}})
}

type badgePart uint8

const (
	partUser badgePart = iota + 1
	partCount
)

// badgeUpdate changes the user part, the count part or both. Each part is
// sequenced on its own: a cart-only refresh never hides the user of an
// older full sync.
type badgeUpdate struct {
	user  func(*BadgeState)
	count func(*BadgeState)
}

var signedOut = badgeUpdate{
	user: func(s *BadgeState) {
		s.User = domain.User{}
		s.LoggedIn = false
	},
	count: func(s *BadgeState) {
		s.Count = 0
		s.Err = nil
	},
}

func (b *CartBadge) fail(seq uint64, part badgePart, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	setErr := func(s *BadgeState) { s.Err = err }
	if part == partUser {
		b.apply(seq, badgeUpdate{user: setErr})
		return
	}
	b.apply(seq, badgeUpdate{count: setErr})
}

// apply runs each part of u whose seq is not older than the last applied
// one for that part. A refresh may apply more than once (user, then cart).
func (b *CartBadge) apply(seq uint64, u badgeUpdate) {
	b.mu.Lock()
	if b.unsub == nil {
		b.mu.Unlock()
		return
	}
	changed := false
	if u.user != nil && seq >= b.userSeq {
		b.userSeq = seq
		u.user(&b.state)
		changed = true
	}
	if u.count != nil && seq >= b.countSeq {
		b.countSeq = seq
		u.count(&b.state)
		changed = true
	}
	state := b.state
	cb := b.onChange
	b.mu.Unlock()

	if changed && cb != nil {
		cb(state)
	}
}
