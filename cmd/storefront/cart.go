package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bakery/storefront/internal/domain/cart"
	"github.com/bakery/storefront/internal/platform/apiclient"
)

func (a *app) cart() (*cart.Service, error) {
	client, err := a.api()
	if err != nil {
		return nil, err
	}
	return cart.NewService(client), nil
}

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "The shopping cart of this console's session",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the priced cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.cart()
			if err != nil {
				return err
			}
			sum, err := svc.LoadSummary(cmd.Context())
			if err != nil {
				a.fb.Failure(apiclient.Message(err, "could not load cart"))
				return err
			}
			a.printSummary(sum)
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity %q: %w", args[1], err)
				}
				qty = n
			}
			svc, err := a.cart()
			if err != nil {
				return err
			}
			c, err := svc.Add(cmd.Context(), args[0], qty)
			if err != nil {
				a.fb.Failure(apiclient.Message(err, "could not add to cart"))
				return err
			}
			a.fb.Success(fmt.Sprintf("added to cart, now %d", c.Quantity(args[0])))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.cart()
			if err != nil {
				return err
			}
			if err := svc.Clear(cmd.Context()); err != nil {
				a.fb.Failure(apiclient.Message(err, "could not clear cart"))
				return err
			}
			a.fb.Success("cart cleared")
			return nil
		},
	}

	newSessionCmd := &cobra.Command{
		Use:   "new-session",
		Short: "Start over with a fresh cart session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.api(); err != nil {
				return err
			}
			if err := a.carts.Reset(); err != nil {
				return err
			}
			id, err := a.carts.ID()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	}

	cmd.AddCommand(showCmd, addCmd, clearCmd, newSessionCmd)
	return cmd
}

func checkoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place the order for the current cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.cart()
			if err != nil {
				return err
			}
			sum, err := svc.LoadSummary(cmd.Context())
			if err != nil {
				a.fb.Failure(apiclient.Message(err, "could not load cart"))
				return err
			}
			a.printSummary(sum)

			order, err := svc.Checkout(cmd.Context())
			if err != nil {
				a.fb.Failure(apiclient.Message(err, "could not place the order"))
				return err
			}
			a.fb.Success("order placed")
			fmt.Fprintln(a.out, "order:", order.OrderID)
			return nil
		},
	}
}

func (a *app) printSummary(sum cart.Summary) {
	if len(sum.Lines) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return
	}
	tw := newTable(a.out, "PRODUCT", "QTY", "UNIT", "SUBTOTAL")
	for _, l := range sum.Lines {
		row(tw, l.Name, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal.StringFixed(2))
	}
	row(tw, "total", "", "", sum.Total.StringFixed(2))
	tw.Flush()
}
