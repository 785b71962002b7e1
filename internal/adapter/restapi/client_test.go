package restapi_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter/restapi"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.Handler) *restapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := restapi.New(srv.URL, restapi.RetryOpt(3, retry.ConstantBackoff(0)))
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := io.WriteString(w, body)
	assert.NoError(t, err)
}

func TestNew(t *testing.T) {
	_, err := restapi.New("localhost:8000")
	assert.Error(t, err)

	_, err = restapi.New("http://localhost:8000", restapi.RetryOpt(0, nil))
	assert.Error(t, err)

	_, err = restapi.New("http://localhost:8000/", restapi.TimeoutOpt(time.Second))
	assert.NoError(t, err)
}

func TestFetchProducts(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, `[
			{
				"id": 1, "name": "Wireless Mouse", "description": "2.4GHz",
				"price": "89.90", "original_price": "99.90",
				"installment_price": "29.97", "installment_count": 3,
				"category": 1, "category_name": "Peripherals",
				"images": [
					{"image": "/media/a.png", "main": false},
					{"image": "https://cdn.example.com/b.png", "main": true}
				],
				"stock": 5, "rating": "4.20",
				"created_at": "2025-02-03T10:00:00.123456Z", "slug": "wireless-mouse"
			},
			{
				"id": 2, "name": "Mouse Pad", "description": null,
				"price": 19.9, "original_price": null,
				"installments": 2,
				"category": 1, "images": [],
				"stock": -1, "rating": null, "created_at": "", "slug": "mouse-pad"
			}
		]`)
	}))

	ps, err := c.FetchProducts(t.Context())
	require.NoError(t, err)
	require.Len(t, ps, 2)

	mouse := ps[0]
	assert.Equal(t, "89.9", mouse.Price.String())
	require.NotNil(t, mouse.OriginalPrice)
	assert.True(t, mouse.Discounted())
	require.NotNil(t, mouse.InstallmentPrice)
	assert.Equal(t, "29.97", mouse.InstallmentPrice.String())
	assert.Equal(t, 3, mouse.InstallmentCount)
	require.NotNil(t, mouse.Rating)
	assert.InDelta(t, 4.2, *mouse.Rating, 1e-9)
	assert.Equal(t, time.Date(2025, 2, 3, 10, 0, 0, 123456000, time.UTC), mouse.CreatedAt.UTC())
	require.Len(t, mouse.Images, 2)
	assert.True(t, strings.HasPrefix(mouse.Images[0].URL, "http://"))
	assert.True(t, strings.HasSuffix(mouse.Images[0].URL, "/media/a.png"))
	assert.False(t, mouse.Images[0].Main)
	main, ok := mouse.MainImage()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/b.png", main.URL)

	pad := ps[1]
	assert.Empty(t, pad.Description)
	assert.Equal(t, "19.9", pad.Price.String())
	assert.Nil(t, pad.OriginalPrice)
	assert.Nil(t, pad.Rating)
	assert.Equal(t, domain.DefaultDisplayRating, pad.DisplayRating())
	assert.Equal(t, domain.UncategorizedName, pad.DisplayCategoryName())
	assert.True(t, pad.CreatedAt.IsZero())
	assert.Zero(t, pad.Stock)
	require.NotNil(t, pad.InstallmentPrice)
	assert.Equal(t, "9.95", pad.InstallmentPrice.String())
	assert.Equal(t, 2, pad.InstallmentCount)
	_, ok = pad.MainImage()
	assert.False(t, ok)
}

func TestFetchCategories(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/category/", r.URL.Path)
		writeJSON(t, w, http.StatusOK,
			`[{"id": 1, "name": "Peripherals", "slug": "peripherals"}]`)
	}))

	cs, err := c.FetchCategories(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Peripherals", Slug: "peripherals"}}, cs)
}

func TestCartEndpoints(t *testing.T) {
	const token = "tok"

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cart/my-cart/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, `{"items": [
			{"id": 10, "product": 1, "product_name": "Mouse", "product_image": null,
			 "product_price": "10.00", "quantity": 2, "subtotal": "20.00"}
		]}`)
	})
	mux.HandleFunc("POST /api/cart/items/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]int{"product": 1, "quantity": 1}, body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(t, w, http.StatusCreated, `{"id": 11, "product": 1, "quantity": 1,
			"product_price": "10", "subtotal": "10"}`)
	})
	mux.HandleFunc("PATCH /api/cart/items/{id}/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.PathValue("id"))
		var body map[string]int
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]int{"quantity": 3}, body)
		writeJSON(t, w, http.StatusOK, `{"id": 10, "product": 1, "quantity": 3,
			"product_price": "10", "subtotal": "30"}`)
	})
	mux.HandleFunc("DELETE /api/cart/items/{id}/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	c := newClient(t, mux)
	ctx := t.Context()

	cart, err := c.FetchCart(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Count())
	assert.Equal(t, "20", cart.Total().String())
	assert.Empty(t, cart.Items[0].ProductImage)

	it, err := c.AddCartItem(ctx, token, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11), it.ID)

	it, err = c.UpdateCartItem(ctx, token, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, it.Quantity)
	assert.Equal(t, "30", it.Subtotal.String())

	require.NoError(t, c.DeleteCartItem(ctx, token, 10))
}

func TestErrors(t *testing.T) {
	t.Run("Unauthorized", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusUnauthorized,
				`{"detail": "Given token not valid for any token type"}`)
		}))
		_, err := c.FetchMe(t.Context(), "expired")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)

		var re *restapi.ResponseError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, http.StatusUnauthorized, re.Status)
		assert.Equal(t, []string{"Given token not valid for any token type"}, re.Fields[domain.FormField])
	})

	t.Run("ValidationFields", func(t *testing.T) {
		var calls atomic.Int32
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(t, w, http.StatusBadRequest, `{
				"email": ["user with this email already exists."],
				"profile": {"phone": ["Ensure this field has no more than 11 characters."]},
				"non_field_errors": "bad"
			}`)
		}))
		_, _, err := c.Register(t.Context(), domain.Registration{Email: "a@b.co"})

		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{"user with this email already exists."}, ve.Fields["email"])
		assert.Equal(t, []string{"Ensure this field has no more than 11 characters."}, ve.Fields["profile.phone"])
		assert.Equal(t, []string{"bad"}, ve.Fields[domain.FormField])
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("EmptyBadRequest", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		_, err := c.AddCartItem(t.Context(), "tok", 1, 1)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, domain.FormField)
	})

	t.Run("RetriesServerErrorsOnGet", func(t *testing.T) {
		var calls atomic.Int32
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeJSON(t, w, http.StatusOK, `[]`)
		}))
		cs, err := c.FetchCategories(t.Context())
		require.NoError(t, err)
		assert.Empty(t, cs)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("GivesUpAfterAttempts", func(t *testing.T) {
		var calls atomic.Int32
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		_, err := c.FetchProducts(t.Context())
		var re *restapi.ResponseError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, http.StatusBadGateway, re.Status)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("RetryAfterHint", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		err := c.DeleteCartItem(t.Context(), "tok", 1)
		var re *restapi.ResponseError
		require.ErrorAs(t, err, &re)
		wait, ok := re.RetryAfter()
		assert.True(t, ok)
		assert.Equal(t, 7*time.Second, wait)
	})

	t.Run("NoRetryOnMutation", func(t *testing.T) {
		var calls atomic.Int32
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		err := c.DeleteCartItem(t.Context(), "tok", 1)
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("MalformedBody", func(t *testing.T) {
		var calls atomic.Int32
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(t, w, http.StatusOK, `{"not": "a list"`)
		}))
		_, err := c.FetchProducts(t.Context())
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c, err := restapi.New(url, restapi.RetryOpt(2, retry.ConstantBackoff(0)))
		require.NoError(t, err)
		_, err = c.FetchProducts(t.Context())
		require.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrUnauthenticated))
	})
}

func TestAuthEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/token/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "ana@example.com", "password": "secret1"}, body)
		writeJSON(t, w, http.StatusOK, `{"access": "a", "refresh": "r"}`)
	})
	mux.HandleFunc("POST /api/users/register/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "11987654321", body["phone"])
		assert.Equal(t, "1990-05-17", body["birthdate"])
		assert.Equal(t, "Ana", body["first_name"])
		writeJSON(t, w, http.StatusCreated, `{"access": "a2", "refresh": "r2",
			"user": {"id": 5, "username": "ana", "email": "ana@example.com",
			         "first_name": "Ana", "last_name": "Souza", "profile": null}}`)
	})
	mux.HandleFunc("GET /api/users/me/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"id": 5, "username": "ana", "email": "ana@example.com",
			"first_name": "Ana", "last_name": "Souza",
			"profile": {"phone": "11987654321", "birthdate": "1990-05-17", "city": "Recife",
			            "cep": null, "avatar": null}}`)
	})
	mux.HandleFunc("PATCH /api/users/me/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer a", r.Header.Get("Authorization"))
		var body struct {
			FirstName string         `json:"first_name"`
			Profile   map[string]any `json:"profile"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ana", body.FirstName)
		assert.Equal(t, "11987654321", body.Profile["phone"])
		assert.Nil(t, body.Profile["birthdate"])
		assert.Contains(t, body.Profile, "avatar")
		writeJSON(t, w, http.StatusOK, `{"id": 5, "first_name": "Ana",
			"profile": {"phone": "11987654321"}}`)
	})
	c := newClient(t, mux)
	ctx := t.Context()

	tokens, err := c.ObtainTokens(ctx, domain.Credentials{Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.Tokens{Access: "a", Refresh: "r"}, tokens)

	tokens, u, err := c.Register(ctx, domain.Registration{
		Username: "ana", Email: "ana@example.com", Password: "Secret123",
		FirstName: "Ana", LastName: "Souza", Phone: "11987654321", Birthdate: "1990-05-17",
	})
	require.NoError(t, err)
	assert.Equal(t, "a2", tokens.Access)
	assert.Equal(t, int64(5), u.ID)
	assert.Equal(t, domain.Profile{}, u.Profile)

	me, err := c.FetchMe(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", me.FullName())
	assert.Equal(t, "1990-05-17", me.Profile.Birthdate)
	assert.Equal(t, "Recife", me.Profile.City)
	assert.Empty(t, me.Profile.CEP)

	me.Profile.Birthdate = ""
	updated, err := c.UpdateMe(ctx, "a", me)
	require.NoError(t, err)
	assert.Equal(t, "11987654321", updated.Profile.Phone)
}
