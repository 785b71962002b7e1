package service_test

import (
	"context"
	"testing"

	"github.com/niksmo/storefront/internal/core/broadcast"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
)

func TestAuthPresence(t *testing.T) {
	t.Run("InitialState", func(t *testing.T) {
		for name, store := range map[string]*memStore{
			"Token":     loggedIn(),
			"NoToken":   newMemStore(),
			"Undefined": newMemStore(domain.KeyAccessToken, "undefined"),
		} {
			t.Run(name, func(t *testing.T) {
				p := service.NewAuthPresence(store, broadcast.New())
				p.Mount(t.Context())
				defer p.Unmount()
				assert.Equal(t, name == "Token", p.LoggedIn())
			})
		}
	})

	t.Run("FollowsSignals", func(t *testing.T) {
		store := loggedIn()
		bus := broadcast.New()
		var flips []bool
		p := service.NewAuthPresence(store, bus,
			service.WithPresenceListener(func(v bool) { flips = append(flips, v) }))

		p.Mount(t.Context())
		defer p.Unmount()
		assert.True(t, p.LoggedIn())

		_ = store.Clear(context.Background())
		bus.Publish(domain.SignalStorageChanged)
		assert.False(t, p.LoggedIn())

		bus.Publish(domain.SignalFocus)
		assert.False(t, p.LoggedIn())

		_ = store.Set(context.Background(), domain.KeyAccessToken, "tok")
		bus.Publish(domain.SignalAuthChanged)
		assert.True(t, p.LoggedIn())

		assert.Equal(t, []bool{true, false, true}, flips)
	})

	t.Run("IgnoresCartSignal", func(t *testing.T) {
		store := newMemStore()
		bus := broadcast.New()
		p := service.NewAuthPresence(store, bus)
		p.Mount(t.Context())
		defer p.Unmount()

		_ = store.Set(context.Background(), domain.KeyAccessToken, "tok")
		bus.Publish(domain.SignalCartChanged)
		assert.False(t, p.LoggedIn())
	})

	t.Run("Unmount", func(t *testing.T) {
		store := newMemStore()
		bus := broadcast.New()
		p := service.NewAuthPresence(store, bus)
		p.Mount(t.Context())
		p.Unmount()
		p.Unmount()

		assert.Zero(t, bus.Subscribers(domain.SignalAuthChanged))
		_ = store.Set(context.Background(), domain.KeyAccessToken, "tok")
		bus.Publish(domain.SignalAuthChanged)
		assert.False(t, p.LoggedIn())
	})
}
