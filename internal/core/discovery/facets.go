package discovery

import (
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
)

// A Facet is a category offered in the listing sidebar.
type Facet struct {
	ID           int64
	Name         string
	ProductCount int
}

// Facets lists the distinct categories of products in first-seen order.
func Facets(products []domain.Product) []Facet {
	index := make(map[int64]int)
	var facets []Facet
	for _, p := range products {
		if i, ok := index[p.Category]; ok {
			facets[i].ProductCount++
			continue
		}
		index[p.Category] = len(facets)
		facets = append(facets, Facet{
			ID:           p.Category,
			Name:         p.DisplayCategoryName(),
			ProductCount: 1,
		})
	}
	return facets
}

// ResolveCategory finds the category a category page is scoped to.
func ResolveCategory(categories []domain.Category, slug string) (domain.Category, error) {
	const op = "discovery.ResolveCategory"
	for _, c := range categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return domain.Category{}, fmt.Errorf("%s: %q: %w", op, slug, domain.ErrCategoryNotFound)
}

func FindBySlug(products []domain.Product, slug string) (domain.Product, error) {
	const op = "discovery.FindBySlug"
	for _, p := range products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%s: %q: %w", op, slug, domain.ErrProductNotFound)
}
