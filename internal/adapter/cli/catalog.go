package cli

import (
	"net/url"
	"strings"

	"github.com/niksmo/storefront/internal/core/discovery"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type listingFlags struct {
	search     string
	categories []int64
	minPrice   string
	maxPrice   string
	order      string
	sliderMin  string
	sliderMax  string
	reset      bool
}

func (f *listingFlags) register(fs *pflag.FlagSet, global bool) {
	fs.StringVarP(&f.search, "search", "s", "", "fuzzy search over the listing")
	fs.StringVar(&f.minPrice, "min", "", "minimum price, comma or dot decimal")
	fs.StringVar(&f.maxPrice, "max", "", "maximum price, comma or dot decimal")
	fs.StringVar(&f.order, "sort", "default", "one of "+sortOrderNames())
	fs.StringVar(&f.sliderMin, "slider-min", "", "lower slider bound")
	fs.StringVar(&f.sliderMax, "slider-max", "", "upper slider bound")
	fs.BoolVar(&f.reset, "reset", false, "clear every filter and restore the default slider")
	if global {
		fs.Int64SliceVarP(&f.categories, "category", "c", nil, "category ids to show")
	}
}

func sortOrderNames() string {
	orders := domain.SortOrders()
	names := make([]string, len(orders))
	for i, o := range orders {
		names[i] = o.String()
	}
	return strings.Join(names, ", ")
}

// input turns the flags into pipeline input. An unknown order is reported
// and replaced by the default one. --reset wins over every other flag.
func (f listingFlags) input(c service.Catalog, v *view) discovery.Input {
	if f.reset {
		v.notice(noticeInfo, filtersClearedMsg)
		r := domain.DefaultPriceRange()
		return discovery.Input{State: domain.NewFilterState().Reset(), Range: &r}
	}

	state := domain.FilterStateFromQuery(url.Values{
		domain.SearchQueryParam: {f.search},
	})
	for _, id := range f.categories {
		if !state.HasCategory(id) {
			state = state.ToggleCategory(id)
		}
	}
	state.MinPrice = f.minPrice
	state.MaxPrice = f.maxPrice

	order, err := domain.ParseSortOrder(f.order)
	if err != nil {
		v.notice(noticeWarning, "Unknown sort order, showing the default one")
	}
	state.Order = order

	r := c.Range
	if d, ok := discovery.ParsePriceBound(f.sliderMin); ok {
		r.Min = d
	}
	if d, ok := discovery.ParsePriceBound(f.sliderMax); ok {
		r.Max = d
	}
	return discovery.Input{State: state, Range: &r}
}

// loadCatalog falls back to an empty catalog after reporting the failure;
// loaded is false in that case. The products page needs no category list.
func (c commands) loadCatalog(
	cmd *cobra.Command, v *view, withCategories bool,
) (catalog service.Catalog, loaded bool) {
	load := c.deps.Storefront.LoadProducts
	if withCategories {
		load = c.deps.Storefront.LoadCatalog
	}
	catalog, err := load(cmd.Context())
	if err != nil {
		v.report(err)
		return service.Catalog{Range: domain.DefaultPriceRange()}, false
	}
	return catalog, true
}

func (c commands) productsCmd() *cobra.Command {
	var flags listingFlags
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := newView(cmd.OutOrStdout())
			catalog, _ := c.loadCatalog(cmd, v, false)
			in := flags.input(catalog, v)

			products := c.deps.Storefront.Browse(cmd.Context(), catalog, in)
			v.facets(catalog.Facets, in.State)
			v.priceRange(*in.Range)
			v.products(products)
			return nil
		},
	}
	flags.register(cmd.Flags(), true)
	return cmd
}

func (c commands) categoryCmd() *cobra.Command {
	var flags listingFlags
	cmd := &cobra.Command{
		Use:   "category <slug>",
		Short: "List the products of one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := newView(cmd.OutOrStdout())
			catalog, loaded := c.loadCatalog(cmd, v, true)
			in := flags.input(catalog, v)
			// Not found is only decided against loaded categories.
			if !loaded {
				v.priceRange(*in.Range)
				v.products(nil)
				return nil
			}

			category, products, err := c.deps.Storefront.BrowseCategory(
				cmd.Context(), catalog, args[0], in,
			)
			if err != nil {
				v.report(err)
				return nil
			}
			v.heading(category.Name)
			v.priceRange(*in.Range)
			v.products(products)
			return nil
		},
	}
	flags.register(cmd.Flags(), false)
	return cmd
}

func (c commands) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <slug>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := newView(cmd.OutOrStdout())
			p, err := c.deps.Storefront.ProductBySlug(cmd.Context(), args[0])
			if err != nil {
				v.report(err)
				return nil
			}
			v.product(p)
			return nil
		},
	}
}
