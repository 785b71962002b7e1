package restapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var (
	_ port.CatalogFetcher = (*Client)(nil)
	_ port.CartClient     = (*Client)(nil)
	_ port.AuthClient     = (*Client)(nil)
)

const (
	pathProducts   = "/api/products/"
	pathCategories = "/api/category/"
	pathMyCart     = "/api/cart/my-cart/"
	pathCartItems  = "/api/cart/items/"
	pathMe         = "/api/users/me/"
	pathToken      = "/api/users/token/"
	pathRegister   = "/api/users/register/"
)

func cartItemPath(id int64) string {
	return fmt.Sprintf("%s%d/", pathCartItems, id)
}

func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Client.FetchProducts"

	var ps []Product
	if err := c.get(ctx, pathProducts, "", &ps); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.norm.products(ps), nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "Client.FetchCategories"

	var cs []Category
	if err := c.get(ctx, pathCategories, "", &cs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.norm.categories(cs), nil
}

func (c *Client) FetchCart(ctx context.Context, token string) (domain.Cart, error) {
	const op = "Client.FetchCart"

	var cart Cart
	if err := c.get(ctx, pathMyCart, token, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.norm.cart(cart), nil
}

func (c *Client) AddCartItem(
	ctx context.Context, token string, productID int64, qty int,
) (domain.CartItem, error) {
	const op = "Client.AddCartItem"

	var it CartItem
	in := CartItemCreate{Product: productID, Quantity: qty}
	if err := c.do(ctx, http.MethodPost, pathCartItems, token, in, &it); err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.norm.cartItem(it), nil
}

func (c *Client) UpdateCartItem(
	ctx context.Context, token string, itemID int64, qty int,
) (domain.CartItem, error) {
	const op = "Client.UpdateCartItem"

	var it CartItem
	in := CartItemUpdate{Quantity: qty}
	if err := c.do(ctx, http.MethodPatch, cartItemPath(itemID), token, in, &it); err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.norm.cartItem(it), nil
}

func (c *Client) DeleteCartItem(ctx context.Context, token string, itemID int64) error {
	const op = "Client.DeleteCartItem"

	if err := c.do(ctx, http.MethodDelete, cartItemPath(itemID), token, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) FetchMe(ctx context.Context, token string) (domain.User, error) {
	const op = "Client.FetchMe"

	var u User
	if err := c.get(ctx, pathMe, token, &u); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.norm.user(u), nil
}

func (c *Client) UpdateMe(
	ctx context.Context, token string, u domain.User,
) (domain.User, error) {
	const op = "Client.UpdateMe"

	var updated User
	err := c.do(ctx, http.MethodPatch, pathMe, token, userFromDomain(u), &updated)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.norm.user(updated), nil
}

func (c *Client) ObtainTokens(
	ctx context.Context, cred domain.Credentials,
) (domain.Tokens, error) {
	const op = "Client.ObtainTokens"

	var tp TokenPair
	in := TokenRequest{Email: cred.Email, Password: cred.Password}
	if err := c.do(ctx, http.MethodPost, pathToken, "", in, &tp); err != nil {
		return domain.Tokens{}, fmt.Errorf("%s: %w", op, err)
	}
	return domain.Tokens{Access: tp.Access, Refresh: tp.Refresh}, nil
}

func (c *Client) Register(
	ctx context.Context, r domain.Registration,
) (domain.Tokens, domain.User, error) {
	const op = "Client.Register"

	in := RegisterRequest{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Birthdate: r.Birthdate,
	}
	var res RegisterResponse
	if err := c.do(ctx, http.MethodPost, pathRegister, "", in, &res); err != nil {
		return domain.Tokens{}, domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	tokens := domain.Tokens{Access: res.Access, Refresh: res.Refresh}
	return tokens, c.norm.user(res.User), nil
}
