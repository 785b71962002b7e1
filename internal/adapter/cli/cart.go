package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/spf13/cobra"
)

func (c commands) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := newView(cmd.OutOrStdout())
			cart, err := c.deps.Storefront.Cart(cmd.Context())
			if err != nil {
				v.report(err)
				return nil
			}
			v.cart(cart)
			return nil
		},
	}
	cmd.AddCommand(
		c.cartAddCmd(),
		c.cartStepCmd("inc", "Add one unit of a cart item", Storefront.Increment),
		c.cartStepCmd("dec", "Remove one unit of a cart item", Storefront.Decrement),
		c.cartSetCmd(),
		c.cartRemoveCmd(),
	)
	return cmd
}

func (c commands) cartAddCmd() *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Put a product into the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			v := newView(cmd.OutOrStdout())
			item, err := c.deps.Storefront.AddToCart(cmd.Context(), id, qty)
			if err != nil {
				v.report(err)
				return nil
			}
			name := item.ProductName
			if name == "" {
				name = fmt.Sprintf("product %d", id)
			}
			v.notice(noticeSuccess, fmt.Sprintf("Added %s to the cart", name))
			return nil
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "q", domain.MinCartQuantity, "quantity to add")
	return cmd
}

type cartStep func(Storefront, context.Context, domain.CartItem) (domain.Cart, error)

// cartStepCmd looks the line up in a fresh cart before stepping it so the
// new quantity is based on the backend's value.
func (c commands) cartStepCmd(use, short string, step cartStep) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("item", args[0])
			if err != nil {
				return err
			}
			v := newView(cmd.OutOrStdout())
			ctx := cmd.Context()

			current, err := c.deps.Storefront.Cart(ctx)
			if err != nil {
				v.report(err)
				return nil
			}
			item, ok := current.Item(id)
			if !ok {
				v.report(domain.ErrCartItemNotFound)
				return nil
			}

			cart, err := step(c.deps.Storefront, ctx, item)
			if err != nil {
				v.report(err)
				return nil
			}
			v.cart(cart)
			return nil
		},
	}
}

func (c commands) cartSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <item-id> <quantity>",
		Short: "Set the quantity of a cart item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("item", args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			v := newView(cmd.OutOrStdout())
			cart, err := c.deps.Storefront.UpdateQuantity(cmd.Context(), id, qty)
			if err != nil {
				v.report(err)
				return nil
			}
			v.cart(cart)
			return nil
		},
	}
}

func (c commands) cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Remove an item from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("item", args[0])
			if err != nil {
				return err
			}
			v := newView(cmd.OutOrStdout())
			cart, err := c.deps.Storefront.RemoveItem(cmd.Context(), id)
			if err != nil {
				v.report(err)
				return nil
			}
			v.notice(noticeSuccess, "Item removed")
			v.cart(cart)
			return nil
		},
	}
}
