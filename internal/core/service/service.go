package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/niksmo/storefront/internal/core/discovery"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultSearchEventsTopN = 5

const invalidCredentialsMsg = "Invalid email or password"

// Catalog is the data a listing page holds once loaded.
type Catalog struct {
	Products   []domain.Product
	Categories []domain.Category
	Range      domain.PriceRange
	Facets     []discovery.Facet
}

type Opt func(*Storefront)

func WithPipeline(p discovery.Pipeline) Opt {
	return func(s *Storefront) {
		s.pipeline = p
	}
}

// WithPriceCeiling sets the slider maximum used before any price is known.
func WithPriceCeiling(d decimal.Decimal) Opt {
	return func(s *Storefront) {
		s.priceCeiling = d
	}
}

// WithSearchEvents reports the top n results of every search to p.
func WithSearchEvents(p port.SearchEventsProducer, n int) Opt {
	return func(s *Storefront) {
		s.events = p
		s.eventsTopN = n
	}
}

func WithClock(now func() time.Time) Opt {
	return func(s *Storefront) {
		s.now = now
	}
}

// Storefront holds the use cases of the shop client. Every cart mutation
// is followed by a full cart re-fetch; nothing is updated optimistically.
type Storefront struct {
	catalog port.CatalogFetcher
	carts   port.CartClient
	auth    port.AuthClient
	store   port.KeyValueStore
	signals port.SignalPublisher

	pipeline     discovery.Pipeline
	priceCeiling decimal.Decimal
	events       port.SearchEventsProducer
	eventsTopN   int
	now          func() time.Time

	viewer atomic.Pointer[string]
}

func New(
	catalog port.CatalogFetcher,
	carts port.CartClient,
	auth port.AuthClient,
	store port.KeyValueStore,
	signals port.SignalPublisher,
	opts ...Opt,
) *Storefront {
	s := &Storefront{
		catalog:      catalog,
		carts:        carts,
		auth:         auth,
		store:        store,
		signals:      signals,
		pipeline:     discovery.New(),
		priceCeiling: domain.DefaultPriceCeiling(),
		eventsTopN:   defaultSearchEventsTopN,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadCatalog fetches products and categories concurrently. Either failure
// fails the whole load.
func (s *Storefront) LoadCatalog(ctx context.Context) (Catalog, error) {
	const op = "Storefront.LoadCatalog"

	var (
		products   []domain.Product
		categories []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = s.catalog.FetchProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.catalog.FetchCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", op, err)
	}

	return Catalog{
		Products:   products,
		Categories: categories,
		Range:      discovery.SliderRange(products, s.priceCeiling),
		Facets:     discovery.Facets(products),
	}, nil
}

// LoadProducts fetches only the products, for pages that need no
// category list.
func (s *Storefront) LoadProducts(ctx context.Context) (Catalog, error) {
	const op = "Storefront.LoadProducts"

	products, err := s.catalog.FetchProducts(ctx)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", op, err)
	}
	return Catalog{
		Products: products,
		Range:    discovery.SliderRange(products, s.priceCeiling),
		Facets:   discovery.Facets(products),
	}, nil
}

// Browse runs the global listing.
func (s *Storefront) Browse(
	ctx context.Context, c Catalog, in discovery.Input,
) []domain.Product {
	in.Scope = nil
	out := s.pipeline.Run(c.Products, in)
	s.reportSearch(ctx, in.State.Search, out)
	return out
}

// BrowseCategory runs the listing of the category named by slug. An unknown
// slug yields domain.ErrCategoryNotFound, never an empty listing.
func (s *Storefront) BrowseCategory(
	ctx context.Context, c Catalog, slug string, in discovery.Input,
) (domain.Category, []domain.Product, error) {
	const op = "Storefront.BrowseCategory"

	category, err := discovery.ResolveCategory(c.Categories, slug)
	if err != nil {
		return domain.Category{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	in.Scope = &category
	out := s.pipeline.Run(c.Products, in)
	s.reportSearch(ctx, in.State.Search, out)
	return category, out, nil
}

func (s *Storefront) reportSearch(ctx context.Context, query string, results []domain.Product) {
	const op = "Storefront.reportSearch"

	query = strings.TrimSpace(query)
	if s.events == nil || query == "" || len(results) == 0 {
		return
	}

	n := min(len(results), s.eventsTopN)
	at := s.now()
	username := s.viewerName()
	events := make([]domain.SearchEvent, n)
	for i, p := range results[:n] {
		events[i] = domain.SearchEvent{
			Query:       query,
			Username:    username,
			ProductID:   p.ID,
			ProductName: p.Name,
			Category:    p.DisplayCategoryName(),
			Price:       p.Price,
			Rank:        i + 1,
			OccurredAt:  at,
		}
	}

	if err := s.events.ProduceSearchEvents(ctx, events); err != nil {
		slog.Warn("failed to report search", "op", op, "err", err)
	}
}

func (s *Storefront) ProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	const op = "Storefront.ProductBySlug"

	products, err := s.catalog.FetchProducts(ctx)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	p, err := discovery.FindBySlug(products, slug)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// token returns the stored access token or domain.ErrUnauthenticated.
func (s *Storefront) token(ctx context.Context) (string, error) {
	token, ok, err := readToken(ctx, s.store)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return token, nil
}

// AddToCart needs a stored token; without one nothing is sent.
func (s *Storefront) AddToCart(
	ctx context.Context, productID int64, qty int,
) (domain.CartItem, error) {
	const op = "Storefront.AddToCart"

	if qty < domain.MinCartQuantity {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, domain.ErrQuantityBelowMinimum)
	}
	token, err := s.token(ctx)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	item, err := s.carts.AddCartItem(ctx, token, productID, qty)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	s.signals.Publish(domain.SignalCartChanged)
	return item, nil
}

func (s *Storefront) Cart(ctx context.Context) (domain.Cart, error) {
	const op = "Storefront.Cart"

	token, err := s.token(ctx)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	cart, err := s.carts.FetchCart(ctx, token)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return cart, nil
}

// UpdateQuantity sets a line's quantity. Quantities below one are refused
// before anything is sent; RemoveItem is the only way to drop a line.
func (s *Storefront) UpdateQuantity(
	ctx context.Context, itemID int64, qty int,
) (domain.Cart, error) {
	const op = "Storefront.UpdateQuantity"

	if qty < domain.MinCartQuantity {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, domain.ErrQuantityBelowMinimum)
	}
	return s.mutateCart(ctx, op, func(token string) error {
		_, err := s.carts.UpdateCartItem(ctx, token, itemID, qty)
		return err
	})
}

func (s *Storefront) Increment(ctx context.Context, item domain.CartItem) (domain.Cart, error) {
	return s.UpdateQuantity(ctx, item.ID, item.Quantity+1)
}

func (s *Storefront) Decrement(ctx context.Context, item domain.CartItem) (domain.Cart, error) {
	return s.UpdateQuantity(ctx, item.ID, item.Quantity-1)
}

func (s *Storefront) RemoveItem(ctx context.Context, itemID int64) (domain.Cart, error) {
	const op = "Storefront.RemoveItem"
	return s.mutateCart(ctx, op, func(token string) error {
		return s.carts.DeleteCartItem(ctx, token, itemID)
	})
}

func (s *Storefront) mutateCart(
	ctx context.Context, op string, mutate func(token string) error,
) (domain.Cart, error) {
	token, err := s.token(ctx)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := mutate(token); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	s.signals.Publish(domain.SignalCartChanged)

	cart, err := s.carts.FetchCart(ctx, token)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return cart, nil
}

// Login validates the form, obtains tokens and stores them. With remember
// set the email is kept as a hint for the next login, otherwise any kept
// hint is removed.
func (s *Storefront) Login(
	ctx context.Context, email, password string, remember bool,
) error {
	const op = "Storefront.Login"

	email = strings.TrimSpace(email)
	if err := validateLogin(email, password); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tokens, err := s.auth.ObtainTokens(ctx, domain.Credentials{Email: email, Password: password})
	if errors.Is(err, domain.ErrUnauthenticated) {
		ve := domain.NewValidationError()
		ve.Add(domain.FormField, invalidCredentialsMsg)
		return fmt.Errorf("%s: %w", op, ve)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// From here on the store may change, even if a write fails halfway.
	defer func() {
		s.viewer.Store(nil)
		s.signals.Publish(domain.SignalAuthChanged)
	}()

	if err := s.storeTokens(ctx, tokens); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if remember {
		err = s.store.Set(ctx, domain.KeyRememberEmail, email)
	} else {
		err = s.store.Delete(ctx, domain.KeyRememberEmail)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storefront) RememberedEmail(ctx context.Context) (string, error) {
	const op = "Storefront.RememberedEmail"

	v, _, err := s.store.Get(ctx, domain.KeyRememberEmail)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// Register validates the form, creates the account and logs it in.
func (s *Storefront) Register(ctx context.Context, f RegistrationForm) (domain.User, error) {
	const op = "Storefront.Register"

	if err := validateRegistration(f, s.now()); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	tokens, user, err := s.auth.Register(ctx, domain.Registration{
		Username:  strings.TrimSpace(f.Username),
		Email:     strings.TrimSpace(f.Email),
		Password:  f.Password,
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Phone:     DigitsOnly(f.Phone),
		Birthdate: DisplayToISODate(f.Birthdate),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	err = s.storeTokens(ctx, tokens)
	if err == nil {
		s.setViewer(user)
	}
	s.signals.Publish(domain.SignalAuthChanged)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return toDisplayUser(user), nil
}

// Logout forgets everything stored locally, the remembered email included.
func (s *Storefront) Logout(ctx context.Context) error {
	const op = "Storefront.Logout"

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.viewer.Store(nil)
	s.signals.Publish(domain.SignalAuthChanged)
	return nil
}

// Profile returns the current user formatted for display. A rejected token
// clears the local store.
func (s *Storefront) Profile(ctx context.Context) (domain.User, error) {
	const op = "Storefront.Profile"

	token, err := s.token(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.auth.FetchMe(ctx, token)
	if err != nil {
		s.dropRejectedSession(ctx, err)
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.setViewer(user)
	return toDisplayUser(user), nil
}

// UpdateProfile accepts the user as displayed (masked phone, dd/mm/yyyy
// birthdate) and returns the stored result in the same form.
func (s *Storefront) UpdateProfile(ctx context.Context, u domain.User) (domain.User, error) {
	const op = "Storefront.UpdateProfile"

	token, err := s.token(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.auth.UpdateMe(ctx, token, toWireUser(u))
	if err != nil {
		s.dropRejectedSession(ctx, err)
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.setViewer(updated)
	return toDisplayUser(updated), nil
}

func (s *Storefront) dropRejectedSession(ctx context.Context, err error) {
	const op = "Storefront.dropRejectedSession"

	if !errors.Is(err, domain.ErrUnauthenticated) {
		return
	}
	if err := s.store.Clear(ctx); err != nil {
		slog.Warn("failed to clear storage", "op", op, "err", err)
		return
	}
	s.viewer.Store(nil)
	s.signals.Publish(domain.SignalAuthChanged)
}

func (s *Storefront) storeTokens(ctx context.Context, t domain.Tokens) error {
	if err := s.store.Set(ctx, domain.KeyAccessToken, t.Access); err != nil {
		return err
	}
	return s.store.Set(ctx, domain.KeyRefreshToken, t.Refresh)
}

func (s *Storefront) setViewer(u domain.User) {
	name := u.Username
	s.viewer.Store(&name)
}

func (s *Storefront) viewerName() string {
	if p := s.viewer.Load(); p != nil {
		return *p
	}
	return ""
}
