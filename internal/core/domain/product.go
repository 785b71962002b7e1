package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultDisplayRating is shown for products the backend has not rated.
	DefaultDisplayRating = 4.5

	// UncategorizedName is shown when a product carries no category name.
	UncategorizedName = "Uncategorized"
)

type (
	Product struct {
		ID               int64
		Name             string
		Description      string
		Price            decimal.Decimal
		OriginalPrice    *decimal.Decimal
		InstallmentPrice *decimal.Decimal
		InstallmentCount int
		Category         int64
		CategoryName     string
		Images           []ProductImage
		Stock            int
		Rating           *float64
		CreatedAt        time.Time
		Slug             string
	}

	ProductImage struct {
		URL  string
		Main bool
	}
)

type Category struct {
	ID   int64
	Name string
	Slug string
}

// MainImage returns the image flagged as main or the first one.
func (p Product) MainImage() (ProductImage, bool) {
	for _, img := range p.Images {
		if img.Main {
			return img, true
		}
	}
	if len(p.Images) != 0 {
		return p.Images[0], true
	}
	return ProductImage{}, false
}

func (p Product) DisplayRating() float64 {
	if p.Rating == nil {
		return DefaultDisplayRating
	}
	return *p.Rating
}

// PopularityRating is the rating used for ordering: unrated products sink.
func (p Product) PopularityRating() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

func (p Product) DisplayCategoryName() string {
	if p.CategoryName == "" {
		return UncategorizedName
	}
	return p.CategoryName
}

func (p Product) Discounted() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}

func (p Product) InStock() bool {
	return p.Stock > 0
}
