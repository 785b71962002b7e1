package service_test

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockCatalog) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	cs, _ := args.Get(0).([]domain.Category)
	return cs, args.Error(1)
}

type MockCartClient struct {
	mock.Mock
}

func (m *MockCartClient) FetchCart(ctx context.Context, token string) (domain.Cart, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *MockCartClient) AddCartItem(
	ctx context.Context, token string, productID int64, qty int,
) (domain.CartItem, error) {
	args := m.Called(ctx, token, productID, qty)
	return args.Get(0).(domain.CartItem), args.Error(1)
}

func (m *MockCartClient) UpdateCartItem(
	ctx context.Context, token string, itemID int64, qty int,
) (domain.CartItem, error) {
	args := m.Called(ctx, token, itemID, qty)
	return args.Get(0).(domain.CartItem), args.Error(1)
}

func (m *MockCartClient) DeleteCartItem(ctx context.Context, token string, itemID int64) error {
	args := m.Called(ctx, token, itemID)
	return args.Error(0)
}

type MockAuthClient struct {
	mock.Mock
}

func (m *MockAuthClient) FetchMe(ctx context.Context, token string) (domain.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockAuthClient) UpdateMe(
	ctx context.Context, token string, u domain.User,
) (domain.User, error) {
	args := m.Called(ctx, token, u)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockAuthClient) ObtainTokens(
	ctx context.Context, c domain.Credentials,
) (domain.Tokens, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.Tokens), args.Error(1)
}

func (m *MockAuthClient) Register(
	ctx context.Context, r domain.Registration,
) (domain.Tokens, domain.User, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(domain.Tokens), args.Get(1).(domain.User), args.Error(2)
}

type MockSearchEvents struct {
	mock.Mock
}

func (m *MockSearchEvents) ProduceSearchEvents(ctx context.Context, es []domain.SearchEvent) error {
	args := m.Called(ctx, es)
	return args.Error(0)
}

// memStore is an in-memory key-value store.
type memStore struct {
	mu     sync.Mutex
	m      map[string]string
	clears int

	// failKey makes Set of that key return errStoreWrite.
	failKey string
}

var errStoreWrite = errors.New("disk I/O error")

func newMemStore(kv ...string) *memStore {
	s := &memStore{m: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		s.m[kv[i]] = kv[i+1]
	}
	return s
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.failKey {
		return errStoreWrite
	}
	s.m[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.m)
	s.clears++
	return nil
}

func (s *memStore) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.m)
}

// signalLog records published signals.
type signalLog struct {
	mu      sync.Mutex
	signals []domain.Signal
}

func (l *signalLog) Publish(s domain.Signal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signals = append(l.signals, s)
}

func (l *signalLog) all() []domain.Signal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Signal(nil), l.signals...)
}
