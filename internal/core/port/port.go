package port

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	mounter interface {
		Mount(context.Context)
		Unmount()
	}

	closer interface {
		Close()
	}
)

// Outbound: backend REST API.

type CatalogFetcher interface {
	FetchProducts(context.Context) ([]domain.Product, error)
	FetchCategories(context.Context) ([]domain.Category, error)
}

type CartFetcher interface {
	FetchCart(ctx context.Context, token string) (domain.Cart, error)
}

type CartMutator interface {
	AddCartItem(ctx context.Context, token string, productID int64, qty int) (domain.CartItem, error)
	UpdateCartItem(ctx context.Context, token string, itemID int64, qty int) (domain.CartItem, error)
	DeleteCartItem(ctx context.Context, token string, itemID int64) error
}

type CartClient interface {
	CartFetcher
	CartMutator
}

type UserFetcher interface {
	FetchMe(ctx context.Context, token string) (domain.User, error)
}

type AuthClient interface {
	UserFetcher
	UpdateMe(ctx context.Context, token string, u domain.User) (domain.User, error)
	ObtainTokens(context.Context, domain.Credentials) (domain.Tokens, error)
	Register(context.Context, domain.Registration) (domain.Tokens, domain.User, error)
}

// Outbound: local key-value store.

type KeyReader interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

type KeyValueStore interface {
	KeyReader
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(context.Context) error
}

// Outbound: analytics.

type SearchEventsProducer interface {
	ProduceSearchEvents(context.Context, []domain.SearchEvent) error
}

type SearchEventsCloser interface {
	SearchEventsProducer
	closer
}

// Inbound: analytics tail.

type SearchEventsHandler interface {
	HandleSearchEvents(context.Context, []domain.SearchEvent) error
}

type SearchEventsTailer interface {
	Run(context.Context, SearchEventsHandler)
	closer
}

// In-process signals.

type SignalHandler func(domain.Signal)

type SignalPublisher interface {
	Publish(domain.Signal)
}

type SignalSubscriber interface {
	Subscribe(h SignalHandler, signals ...domain.Signal) (unsubscribe func())
}

type SignalBus interface {
	SignalPublisher
	SignalSubscriber
}

// Components with a mount/unmount lifecycle.

type BadgeSynchronizer interface {
	mounter
	Count() int
}

type AuthPresenceChecker interface {
	mounter
	LoggedIn() bool
}

type StorageWatcher interface {
	Run(context.Context)
	closer
}
