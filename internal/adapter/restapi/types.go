package restapi

import (
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	Product struct {
		ID               int64               `json:"id"`
		Name             string              `json:"name"`
		Description      *string             `json:"description"`
		Price            decimal.Decimal     `json:"price"`
		OriginalPrice    decimal.NullDecimal `json:"original_price"`
		InstallmentPrice decimal.NullDecimal `json:"installment_price"`
		InstallmentCount int                 `json:"installment_count"`
		Installments     int                 `json:"installments"`
		Category         int64               `json:"category"`
		CategoryName     *string             `json:"category_name"`
		Images           []ProductImage      `json:"images"`
		Stock            int                 `json:"stock"`
		Rating           decimal.NullDecimal `json:"rating"`
		CreatedAt        string              `json:"created_at"`
		Slug             string              `json:"slug"`
	}

	ProductImage struct {
		Image string `json:"image"`
		Main  bool   `json:"main"`
	}

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
)

type (
	CartItem struct {
		ID           int64           `json:"id"`
		Product      int64           `json:"product"`
		ProductName  string          `json:"product_name"`
		ProductImage *string         `json:"product_image"`
		ProductPrice decimal.Decimal `json:"product_price"`
		Quantity     int             `json:"quantity"`
		Subtotal     decimal.Decimal `json:"subtotal"`
	}

	Cart struct {
		Items []CartItem `json:"items"`
	}

	CartItemCreate struct {
		Product  int64 `json:"product"`
		Quantity int   `json:"quantity"`
	}

	CartItemUpdate struct {
		Quantity int `json:"quantity"`
	}
)

type (
	User struct {
		ID        int64   `json:"id,omitempty"`
		Username  string  `json:"username,omitempty"`
		Email     string  `json:"email"`
		FirstName string  `json:"first_name"`
		LastName  string  `json:"last_name"`
		Profile   Profile `json:"profile"`
	}

	Profile struct {
		Phone     *string `json:"phone"`
		Birthdate *string `json:"birthdate"`
		CEP       *string `json:"cep"`
		Street    *string `json:"street"`
		Number    *string `json:"number"`
		City      *string `json:"city"`
		State     *string `json:"state"`
		Avatar    *string `json:"avatar"`
	}

	TokenRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	TokenPair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	RegisterRequest struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
		Birthdate string `json:"birthdate"`
	}

	RegisterResponse struct {
		TokenPair
		User User `json:"user"`
	}
)

// normalizer turns loosely shaped backend records into domain values.
// Every optional field gets its fallback here and nowhere else.
type normalizer struct {
	mediaBase string
}

func (n normalizer) product(p Product) domain.Product {
	dp := domain.Product{
		ID:           p.ID,
		Name:         p.Name,
		Description:  deref(p.Description),
		Price:        p.Price,
		Category:     p.Category,
		CategoryName: strings.TrimSpace(deref(p.CategoryName)),
		Stock:        max(p.Stock, 0),
		CreatedAt:    parseTime(p.CreatedAt),
		Slug:         p.Slug,
	}

	if p.OriginalPrice.Valid {
		v := p.OriginalPrice.Decimal
		dp.OriginalPrice = &v
	}

	switch {
	case p.InstallmentPrice.Valid && p.InstallmentCount > 0:
		v := p.InstallmentPrice.Decimal
		dp.InstallmentPrice = &v
		dp.InstallmentCount = p.InstallmentCount
	case p.Installments > 1:
		v := p.Price.DivRound(decimal.NewFromInt(int64(p.Installments)), 2)
		dp.InstallmentPrice = &v
		dp.InstallmentCount = p.Installments
	}

	if p.Rating.Valid {
		r := p.Rating.Decimal.InexactFloat64()
		dp.Rating = &r
	}

	dp.Images = make([]domain.ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Image == "" {
			continue
		}
		dp.Images = append(dp.Images, domain.ProductImage{
			URL:  n.mediaURL(img.Image),
			Main: img.Main,
		})
	}
	return dp
}

func (n normalizer) products(ps []Product) []domain.Product {
	out := make([]domain.Product, len(ps))
	for i, p := range ps {
		out[i] = n.product(p)
	}
	return out
}

func (normalizer) categories(cs []Category) []domain.Category {
	out := make([]domain.Category, len(cs))
	for i, c := range cs {
		out[i] = domain.Category{ID: c.ID, Name: c.Name, Slug: c.Slug}
	}
	return out
}

func (n normalizer) cartItem(it CartItem) domain.CartItem {
	img := deref(it.ProductImage)
	if img != "" {
		img = n.mediaURL(img)
	}
	return domain.CartItem{
		ID:           it.ID,
		Product:      it.Product,
		ProductName:  it.ProductName,
		ProductImage: img,
		ProductPrice: it.ProductPrice,
		Quantity:     it.Quantity,
		Subtotal:     it.Subtotal,
	}
}

func (n normalizer) cart(c Cart) domain.Cart {
	items := make([]domain.CartItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = n.cartItem(it)
	}
	return domain.Cart{Items: items}
}

func (n normalizer) user(u User) domain.User {
	return domain.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Profile: domain.Profile{
			Phone:     deref(u.Profile.Phone),
			Birthdate: deref(u.Profile.Birthdate),
			CEP:       deref(u.Profile.CEP),
			Street:    deref(u.Profile.Street),
			Number:    deref(u.Profile.Number),
			City:      deref(u.Profile.City),
			State:     deref(u.Profile.State),
			Avatar:    deref(u.Profile.Avatar),
		},
	}
}

func userFromDomain(u domain.User) User {
	return User{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Profile: Profile{
			Phone:     optional(u.Profile.Phone),
			Birthdate: optional(u.Profile.Birthdate),
			CEP:       &u.Profile.CEP,
			Street:    &u.Profile.Street,
			Number:    &u.Profile.Number,
			City:      &u.Profile.City,
			State:     &u.Profile.State,
			Avatar:    optional(u.Profile.Avatar),
		},
	}
}

func (n normalizer) mediaURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return n.mediaBase + "/" + strings.TrimPrefix(path, "/")
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optional maps "" to JSON null; the backend rejects empty dates.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
