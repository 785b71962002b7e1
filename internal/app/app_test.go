package app_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter/cli"
	"github.com/niksmo/storefront/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	productsJSON = `[
		{"id": 1, "name": "Wireless Mouse", "price": "89.90", "category": 1,
		 "category_name": "Peripherals", "images": [], "stock": 3, "rating": null,
		 "created_at": "2025-01-01T00:00:00Z", "slug": "wireless-mouse"},
		{"id": 2, "name": "Monitor", "price": "1250.50", "category": 2,
		 "category_name": null, "images": [], "stock": 1, "rating": "4.8",
		 "created_at": "2025-01-02T00:00:00Z", "slug": "monitor"}
	]`
	categoriesJSON = `[
		{"id": 1, "name": "Peripherals", "slug": "peripherals"},
		{"id": 2, "name": "Displays", "slug": "displays"}
	]`
	cartJSON = `{"items": [
		{"id": 10, "product": 1, "product_name": "Wireless Mouse", "product_image": null,
		 "product_price": "89.90", "quantity": 2, "subtotal": "179.80"}
	]}`
)

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
	mux.HandleFunc("GET /api/products/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, productsJSON)
	})
	mux.HandleFunc("GET /api/category/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, categoriesJSON)
	})
	mux.HandleFunc("POST /api/users/token/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"access": "tok", "refresh": "ref"}`)
	})
	mux.HandleFunc("GET /api/cart/my-cart/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, `{"detail": "Authentication credentials were not provided."}`)
			return
		}
		writeJSON(w, cartJSON)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEnv(t *testing.T, baseURL string) {
	t.Setenv("STOREFRONT_CONFIG_FILE", "")
	t.Setenv("STOREFRONT_API_BASE_URL", baseURL)
	t.Setenv("STOREFRONT_API_RETRY_ATTEMPTS", "1")
	t.Setenv("STOREFRONT_STORAGE_PATH", filepath.Join(t.TempDir(), "storefront.db"))
	t.Setenv("STOREFRONT_STORAGE_WATCH", "false")
}

// run executes one command the way cmd/storefront does.
func run(t *testing.T, args ...string) string {
	t.Helper()

	var a *app.App
	root := cli.NewRootCmd(func(ctx context.Context, path string) (cli.Deps, error) {
		cfg, err := config.Load(path)
		if err != nil {
			return cli.Deps{}, err
		}
		a, err = app.New(ctx, cfg)
		if err != nil {
			return cli.Deps{}, err
		}
		return a.Deps(), nil
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	if a != nil {
		a.Close()
	}
	require.NoError(t, err)
	return out.String()
}

func TestNew(t *testing.T) {
	t.Run("Deps", func(t *testing.T) {
		testEnv(t, "http://localhost:8000")
		t.Setenv("STOREFRONT_STORAGE_WATCH", "true")
		cfg, err := config.Load("")
		require.NoError(t, err)

		a, err := app.New(t.Context(), cfg)
		require.NoError(t, err)
		defer a.Close()

		deps := a.Deps()
		assert.NotNil(t, deps.Storefront)
		assert.NotNil(t, deps.Header)
		assert.NotNil(t, deps.Signals)
		assert.NotNil(t, deps.Watcher)
		assert.Nil(t, deps.Tail, "analytics is off without seed brokers")
		assert.Equal(t, cfg.Badge.FocusInterval, deps.FocusInterval)

		badge, presence := deps.Header(nil, nil)
		assert.Zero(t, badge.Count())
		assert.False(t, presence.LoggedIn())
	})

	t.Run("BadLocale", func(t *testing.T) {
		testEnv(t, "http://localhost:8000")
		t.Setenv("STOREFRONT_LOCALE", "not a locale")
		cfg, err := config.Load("")
		require.NoError(t, err)

		_, err = app.New(t.Context(), cfg)
		assert.Error(t, err)
	})
}

func TestStorefrontCommands(t *testing.T) {
	srv := backend(t)
	testEnv(t, srv.URL)

	t.Run("Products", func(t *testing.T) {
		out := run(t, "products")
		assert.Contains(t, out, "Wireless Mouse")
		assert.Contains(t, out, "Monitor")
		assert.Contains(t, out, "Uncategorized")
	})

	t.Run("CartBeforeLogin", func(t *testing.T) {
		out := run(t, "cart")
		assert.Contains(t, out, "Log in first")
	})

	t.Run("LoginThenCart", func(t *testing.T) {
		out := run(t, "login", "--email", "ana@example.com", "--password", "secret1")
		assert.Contains(t, out, "Logged in as ana@example.com")

		out = run(t, "cart")
		assert.Contains(t, out, "Wireless Mouse")
		assert.Contains(t, out, "R$ 179,80")
	})

	t.Run("Logout", func(t *testing.T) {
		run(t, "logout")
		out := run(t, "cart")
		assert.Contains(t, out, "Log in first")
	})
}
