package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bakery/storefront/internal/domain/catalog"
	"github.com/bakery/storefront/internal/domain/inventory"
	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/resource"
)

func (a *app) catalog() (*catalog.Service, error) {
	client, err := a.api()
	if err != nil {
		return nil, err
	}
	return catalog.NewService(client, a.controllerOpts()...), nil
}

func productsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse and manage products",
	}

	var q resource.Query
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			snap, err := svc.Products.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			a.printProducts(snap)
			return nil
		},
	}
	listCmd.Flags().StringVarP(&q.Search, "search", "s", "", "name or description contains")
	listCmd.Flags().StringVar(&q.Category, "category", "", "category name")
	listCmd.Flags().StringVar(&q.LocationID, "location", "", "only stock held at this location")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a product with its stock per location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			p, err := svc.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			stepper := inventory.NewStepper(a.client, inventory.WithFeedback(a.fb), inventory.WithLogger(a.logger))
			if err := stepper.Load(cmd.Context(), p.ID); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s  %s\n", p.ID, p.Name)
			fmt.Fprintf(a.out, "category: %s\nprice: %s (%s with tax)\ndelivery: %d days\n",
				p.Category, p.Price.StringFixed(2), p.PriceWithTax().StringFixed(2), p.DeliveryDays)
			if p.Description != "" {
				fmt.Fprintln(a.out, p.Description)
			}
			for _, img := range p.Images {
				fmt.Fprintln(a.out, "image:", img)
			}
			a.printEntries(stepper.Entries())
			return nil
		},
	}

	var form productFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product, optionally with images and initial stock",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := form.input(cmd, catalog.ProductInput{TaxRate: decimal.Zero})
			if err != nil {
				return err
			}
			images, err := readImages(form.images)
			if err != nil {
				return err
			}
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			return svc.CreateProduct(cmd.Context(), in, images)
		},
	}
	form.register(createCmd)
	createCmd.Flags().StringSliceVar(&form.images, "image", nil, "image file to attach (repeatable)")
	createCmd.Flags().StringSliceVar(&form.stock, "stock", nil, "initial stock as location-id=quantity (repeatable)")

	var patch productFlags
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a product's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			p, err := svc.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in, err := patch.input(cmd, catalog.ProductInput{
				Name:         p.Name,
				Description:  p.Description,
				Price:        p.Price,
				Category:     p.Category,
				Images:       p.Images,
				DeliveryDays: p.DeliveryDays,
				TaxRate:      p.TaxRate,
			})
			if err != nil {
				return err
			}
			return svc.UpdateProduct(cmd.Context(), p.ID, in)
		},
	}
	patch.register(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			svc.Products.RequestDelete(args[0], "Delete product", "Delete product "+args[0]+"?")
			return a.resolve(cmd.Context(), svc.Products.Gate())
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search interactively; type a query per line",
		Long: "Reads lines from stdin. Plain text searches by name, category=NAME and\n" +
			"location=ID filter at once. Results print once typing pauses.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			s := resource.NewSearch(cmd.Context(), svc.Products, a.cfg.DebounceWindow, renderer(a.printProducts))
			return watch(a.in, a.errOut, s, resource.SearchField, map[string]filterFunc{
				"category": func(q *resource.Query, v string) { q.Category = v },
				"location": func(q *resource.Query, v string) { q.LocationID = v },
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, createCmd, updateCmd, deleteCmd, searchCmd)
	return cmd
}

// productFlags are the form fields shared by create and update. Only flags
// that were set override the starting input.
type productFlags struct {
	name         string
	description  string
	price        string
	category     string
	taxRate      string
	deliveryDays int
	images       []string
	stock        []string
}

func (f *productFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "product name")
	fl.StringVar(&f.description, "description", "", "description")
	fl.StringVar(&f.price, "price", "", "price before tax, e.g. 1.50")
	fl.StringVar(&f.category, "category", "", "category name")
	fl.StringVar(&f.taxRate, "tax-rate", "", "tax rate between 0 and 1, e.g. 0.10")
	fl.IntVar(&f.deliveryDays, "delivery-days", 0, "days until delivery")
}

func (f *productFlags) input(cmd *cobra.Command, in catalog.ProductInput) (catalog.ProductInput, error) {
	fl := cmd.Flags()
	if fl.Changed("name") {
		in.Name = f.name
	}
	if fl.Changed("description") {
		in.Description = f.description
	}
	if fl.Changed("category") {
		in.Category = f.category
	}
	if fl.Changed("delivery-days") {
		in.DeliveryDays = f.deliveryDays
	}
	if fl.Changed("price") {
		d, err := parseDecimal(f.price)
		if err != nil {
			return in, fmt.Errorf("price: %w", err)
		}
		in.Price = d
	}
	if fl.Changed("tax-rate") {
		d, err := parseDecimal(f.taxRate)
		if err != nil {
			return in, fmt.Errorf("tax rate: %w", err)
		}
		in.TaxRate = d
	}
	stock, err := parseStock(f.stock)
	if err != nil {
		return in, err
	}
	in.Inventory = stock
	return in, nil
}

// parseDecimal accepts a comma as the decimal separator.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", 1))
}

// parseStock reads location-id=quantity pairs.
func parseStock(pairs []string) ([]catalog.InitialStock, error) {
	var out []catalog.InitialStock
	for _, p := range pairs {
		loc, qty, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(loc) == "" {
			return nil, fmt.Errorf("stock %q: want location-id=quantity", p)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("stock %q: quantity must be a whole number of zero or more", p)
		}
		out = append(out, catalog.InitialStock{LocationID: strings.TrimSpace(loc), Quantity: n})
	}
	return out, nil
}

func readImages(paths []string) ([]apiclient.File, error) {
	files := make([]apiclient.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		files = append(files, apiclient.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

func (a *app) printProducts(snap resource.Snapshot[catalog.Product]) {
	if snap.Status == resource.StatusEmpty {
		fmt.Fprintln(a.out, "no products")
		return
	}
	tw := newTable(a.out, "ID", "NAME", "CATEGORY", "PRICE", "STOCK")
	for _, p := range snap.Items {
		row(tw, p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Stock)
	}
	tw.Flush()
}

func categoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage product categories",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			snap, err := svc.Categories.List(cmd.Context(), resource.Query{})
			if err != nil {
				return err
			}
			if snap.Status == resource.StatusEmpty {
				fmt.Fprintln(a.out, "no categories")
				return nil
			}
			tw := newTable(a.out, "ID", "NAME")
			for _, c := range snap.Items {
				row(tw, c.ID, c.Name)
			}
			return tw.Flush()
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			return svc.CreateCategory(cmd.Context(), catalog.CategoryInput{Name: args[0]})
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			return svc.RenameCategory(cmd.Context(), args[0], catalog.CategoryInput{Name: args[1]})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.catalog()
			if err != nil {
				return err
			}
			svc.Categories.RequestDelete(args[0], "Delete category", "Delete category "+args[0]+"?")
			return a.resolve(cmd.Context(), svc.Categories.Gate())
		},
	}

	cmd.AddCommand(listCmd, createCmd, renameCmd, deleteCmd)
	return cmd
}
