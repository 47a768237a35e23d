package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bakery/storefront/internal/domain/inventory"
	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/resource"
)

func (a *app) inventory() (*inventory.Service, error) {
	client, err := a.api()
	if err != nil {
		return nil, err
	}
	return inventory.NewService(client, a.controllerOpts()...), nil
}

func (a *app) stepper() (*inventory.Stepper, error) {
	client, err := a.api()
	if err != nil {
		return nil, err
	}
	return inventory.NewStepper(client, inventory.WithFeedback(a.fb), inventory.WithLogger(a.logger)), nil
}

type locationFlags struct {
	name     string
	address  string
	phone    string
	inactive bool
}

func (f *locationFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "location name")
	fl.StringVar(&f.address, "address", "", "street address")
	fl.StringVar(&f.phone, "phone", "", "phone number")
	fl.BoolVar(&f.inactive, "inactive", false, "mark the location inactive")
}

func (f *locationFlags) input(cmd *cobra.Command, in inventory.LocationInput) inventory.LocationInput {
	fl := cmd.Flags()
	if fl.Changed("name") {
		in.Name = f.name
	}
	if fl.Changed("address") {
		in.Address = f.address
	}
	if fl.Changed("phone") {
		in.Phone = f.phone
	}
	if fl.Changed("inactive") {
		in.IsActive = !f.inactive
	}
	return in
}

func locationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "locations",
		Aliases: []string{"location"},
		Short:   "Manage stock locations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.inventory()
			if err != nil {
				return err
			}
			snap, err := svc.Locations.List(cmd.Context(), resource.Query{})
			if err != nil {
				return err
			}
			if snap.Status == resource.StatusEmpty {
				fmt.Fprintln(a.out, "no locations")
				return nil
			}
			tw := newTable(a.out, "ID", "NAME", "ADDRESS", "PHONE", "ACTIVE")
			for _, l := range snap.Items {
				row(tw, l.ID, l.Name, l.Address, l.Phone, l.IsActive)
			}
			return tw.Flush()
		},
	}

	var form locationFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.inventory()
			if err != nil {
				return err
			}
			return svc.CreateLocation(cmd.Context(), form.input(cmd, inventory.LocationInput{IsActive: true}))
		},
	}
	form.register(createCmd)

	var patch locationFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.inventory()
			if err != nil {
				return err
			}
			snap, err := svc.Locations.List(cmd.Context(), resource.Query{})
			if err != nil {
				return err
			}
			for _, l := range snap.Items {
				if l.ID != args[0] {
					continue
				}
				in := patch.input(cmd, inventory.LocationInput{Name: l.Name, Address: l.Address, Phone: l.Phone, IsActive: l.IsActive})
				return svc.UpdateLocation(cmd.Context(), l.ID, in)
			}
			return fmt.Errorf("location %s not found", args[0])
		},
	}
	patch.register(updateCmd)
	updateCmd.Flags().Lookup("inactive").Usage = "mark the location inactive (--inactive=false reactivates)"

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a location and the stock held there",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.inventory()
			if err != nil {
				return err
			}
			svc.Locations.RequestDelete(args[0], "Delete location", "Delete location "+args[0]+" and its stock?")
			return a.resolve(cmd.Context(), svc.Locations.Gate())
		},
	}

	cmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}

func inventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Adjust stock per product and location",
	}

	showCmd := &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show a product's stock at every location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.stepper()
			if err != nil {
				return err
			}
			if err := st.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printEntries(st.Entries())
			return nil
		},
	}

	step := func(use, short string, sign int) *cobra.Command {
		var by int
		c := &cobra.Command{
			Use:   use + " <product-id> <location-id>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if by < 1 {
					return fmt.Errorf("--by must be at least 1")
				}
				st, err := a.stepper()
				if err != nil {
					return err
				}
				if err := st.Load(cmd.Context(), args[0]); err != nil {
					return err
				}
				e, err := st.Adjust(cmd.Context(), args[1], sign*by)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s: %d\n", entryName(e), e.Quantity)
				return nil
			},
		}
		c.Flags().IntVar(&by, "by", 1, "amount to move")
		return c
	}

	setCmd := &cobra.Command{
		Use:   "set <product-id> <location-id> <quantity>",
		Short: "Set the stock of a product at a location",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[2], err)
			}
			st, err := a.stepper()
			if err != nil {
				return err
			}
			if err := st.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			e, err := st.Set(cmd.Context(), args[1], qty)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %d\n", entryName(e), e.Quantity)
			return nil
		},
	}

	atCmd := &cobra.Command{
		Use:   "at <location-id>",
		Short: "List the stock held at one location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.inventory()
			if err != nil {
				return err
			}
			rows, err := svc.ListByLocation(cmd.Context(), args[0])
			if err != nil {
				a.fb.Failure(apiclient.Message(err, "could not load inventory"))
				return err
			}
			tw := newTable(a.out, "PRODUCT", "NAME", "QUANTITY")
			for _, r := range rows {
				row(tw, r.ProductID, r.ProductName, r.Quantity)
			}
			row(tw, "", "total", inventory.Total(rows))
			return tw.Flush()
		},
	}

	setAtCmd := &cobra.Command{
		Use:   "set-at <location-id> <product-id> <quantity>",
		Short: "Set stock from the location side",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[2], err)
			}
			svc, err := a.inventory()
			if err != nil {
				return err
			}
			r, err := svc.SetAtLocation(cmd.Context(), args[0], args[1], qty)
			if err != nil {
				a.fb.Failure(apiclient.Message(err, "could not update inventory"))
				return err
			}
			a.fb.Success("stock updated")
			fmt.Fprintf(a.out, "%s at %s: %d\n", r.ProductName, r.LocationName, r.Quantity)
			return nil
		},
	}

	cmd.AddCommand(showCmd,
		step("inc", "Add stock at a location", 1),
		step("dec", "Remove stock at a location, never below zero", -1),
		setCmd, atCmd, setAtCmd)
	return cmd
}

func entryName(e inventory.Entry) string {
	if e.LocationName != "" {
		return e.LocationName
	}
	return e.LocationID
}

func (a *app) printEntries(entries []inventory.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "no stock rows")
		return
	}
	tw := newTable(a.out, "LOCATION", "NAME", "QUANTITY")
	total := 0
	for _, e := range entries {
		row(tw, e.LocationID, e.LocationName, e.Quantity)
		total += e.Quantity
	}
	row(tw, "", "total", total)
	tw.Flush()
}
