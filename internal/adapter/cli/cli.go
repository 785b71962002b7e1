package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/niksmo/storefront/internal/core/discovery"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/spf13/cobra"
)

// Storefront is the set of use cases the commands drive.
type Storefront interface {
	LoadCatalog(context.Context) (service.Catalog, error)
	LoadProducts(context.Context) (service.Catalog, error)
	Browse(context.Context, service.Catalog, discovery.Input) []domain.Product
	BrowseCategory(
		ctx context.Context, c service.Catalog, slug string, in discovery.Input,
	) (domain.Category, []domain.Product, error)
	ProductBySlug(ctx context.Context, slug string) (domain.Product, error)

	Cart(context.Context) (domain.Cart, error)
	AddToCart(ctx context.Context, productID int64, qty int) (domain.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID int64, qty int) (domain.Cart, error)
	Increment(context.Context, domain.CartItem) (domain.Cart, error)
	Decrement(context.Context, domain.CartItem) (domain.Cart, error)
	RemoveItem(ctx context.Context, itemID int64) (domain.Cart, error)

	Login(ctx context.Context, email, password string, remember bool) error
	RememberedEmail(context.Context) (string, error)
	Register(context.Context, service.RegistrationForm) (domain.User, error)
	Logout(context.Context) error
	Profile(context.Context) (domain.User, error)
	UpdateProfile(context.Context, domain.User) (domain.User, error)
}

// HeaderFunc builds the header components with the given listeners.
type HeaderFunc func(
	onBadge func(service.BadgeState), onPresence func(loggedIn bool),
) (port.BadgeSynchronizer, port.AuthPresenceChecker)

type Deps struct {
	Storefront Storefront
	Header     HeaderFunc
	Signals    port.SignalPublisher
	// Watcher is optional; without it other processes' logins and
	// logouts are only noticed on focus.
	Watcher       port.StorageWatcher
	FocusInterval time.Duration
	PrintConfig   func(io.Writer)
	// Tail is nil when search analytics is not configured.
	Tail func(context.Context) (port.SearchEventsTailer, error)
}

// Setup builds the dependencies once the flags are parsed. configPath is
// the --config value, empty when not given.
type Setup func(ctx context.Context, configPath string) (Deps, error)

type commands struct {
	deps *Deps
}

// NewRootCmd builds the storefront command tree. Failures of the store are
// rendered as notices; only malformed arguments and a failed setup make a
// command fail.
func NewRootCmd(setup Setup) *cobra.Command {
	c := commands{deps: new(Deps)}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the shop, manage the cart and the account",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			const op = "cli.setup"
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			deps, err := setup(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			*c.deps = deps
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "config file, STOREFRONT_CONFIG_FILE when empty")

	root.AddCommand(
		c.productsCmd(),
		c.categoryCmd(),
		c.productCmd(),
		c.cartCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.registerCmd(),
		c.profileCmd(),
		c.badgeCmd(),
		c.eventsCmd(),
		c.configCmd(),
	)
	return root
}

func (c commands) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the loaded configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.deps.PrintConfig != nil {
				c.deps.PrintConfig(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}
