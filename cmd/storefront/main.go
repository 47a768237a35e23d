package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bakery/storefront/internal/config"
	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/confirm"
	"github.com/bakery/storefront/internal/platform/feedback"
	"github.com/bakery/storefront/internal/platform/resource"
	"github.com/bakery/storefront/internal/platform/session"
	"github.com/bakery/storefront/internal/platform/tenant"
)

func main() {
	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is the state shared by every console command. The client is built
// lazily so `sandbox serve` never needs a backend.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	apiURL     string
	tenantSlug string
	assumeYes  bool

	cfg    *config.Config
	logger zerolog.Logger
	fb     *feedback.Channel

	client *apiclient.Client
	jar    *session.CookieJar
	carts  *session.FileStore
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront admin console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.apiURL, "api", "", "backend base URL (overrides API_BASE_URL)")
	flags.StringVar(&a.tenantSlug, "tenant", "", "tenant slug (overrides TENANT_SLUG)")
	flags.BoolVarP(&a.assumeYes, "yes", "y", false, "answer yes to confirmation prompts")

	rootCmd.AddCommand(productsCmd(a))
	rootCmd.AddCommand(categoriesCmd(a))
	rootCmd.AddCommand(locationsCmd(a))
	rootCmd.AddCommand(inventoryCmd(a))
	rootCmd.AddCommand(authCmd(a))
	rootCmd.AddCommand(usersCmd(a))
	rootCmd.AddCommand(modulesCmd(a))
	rootCmd.AddCommand(cartCmd(a))
	rootCmd.AddCommand(checkoutCmd(a))
	rootCmd.AddCommand(clientsCmd(a))
	rootCmd.AddCommand(patientsCmd(a))
	rootCmd.AddCommand(recordsCmd(a))
	rootCmd.AddCommand(summaryCmd(a))
	rootCmd.AddCommand(uploadCmd(a))
	rootCmd.AddCommand(webhooksCmd(a))
	rootCmd.AddCommand(sandboxCmd(a))

	return rootCmd
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(a.errOut).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, NoColor: !isTerminal(a.errOut)}).With().Timestamp().Logger()
	}
	a.logger = logger.Level(level)

	a.fb = feedback.New(cfg.FeedbackDelay, feedback.WithSink(termSink{w: a.errOut}))
	return nil
}

// api returns the backend client, building it on first use.
func (a *app) api() (*apiclient.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	raw := a.cfg.APIBaseURL
	if a.apiURL != "" {
		raw = a.apiURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	slug := a.cfg.TenantSlug
	if a.tenantSlug != "" {
		slug = a.tenantSlug
	}
	info, err := tenant.Resolve(base, slug, a.cfg.TenantPrefixes)
	if err != nil {
		return nil, err
	}

	jar, err := session.NewCookieJar(a.cfg.SessionFile+".cookies", base)
	if err != nil {
		return nil, err
	}
	a.jar = jar
	a.carts = session.NewFileStore(a.cfg.SessionFile)

	client, err := apiclient.New(apiclient.Options{
		BaseURL:    raw,
		Tenant:     info,
		Session:    a.carts,
		Timeout:    a.cfg.HTTPTimeout,
		Logger:     a.logger,
		HTTPClient: &http.Client{Timeout: a.cfg.HTTPTimeout, Jar: jar},
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("api", raw).Str("tenant", info.Slug).Str("tenant_source", string(info.Source)).Msg("client ready")
	a.client = client
	return client, nil
}

// controllerOpts wires a collection controller to the console's feedback
// line and logger.
func (a *app) controllerOpts() []resource.Option {
	return []resource.Option{resource.WithFeedback(a.fb), resource.WithLogger(a.logger)}
}

func (a *app) asker() confirm.Asker {
	return termAsker{in: a.in, out: a.errOut, yes: a.assumeYes}
}

// resolve asks about the pending delete on g and reports a declined prompt.
func (a *app) resolve(ctx context.Context, g *confirm.Gate) error {
	ran, err := g.Resolve(ctx, a.asker())
	if err != nil {
		return err
	}
	if !ran {
		fmt.Fprintln(a.errOut, "cancelled")
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
