package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/remote"
	"storefront/internal/storefront"
)

// app carries what every command needs once the root has loaded config.
type app struct {
	out     io.Writer
	cfg     *config.Client
	baseURL string
	logger  *log.Logger
}

// open builds one storefront session against the configured API.
func (a *app) open() *storefront.Storefront {
	api := remote.NewClient(a.baseURL, a.cfg.Timeout, a.logger)
	return storefront.New(api, storefront.Options{Logger: a.logger, QuietPeriod: a.cfg.QuietPeriod})
}

// NewRootCmd builds the storefront command tree writing results to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	var (
		baseURL string
		verbose bool
	)

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Shop against a storefront API from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.baseURL = cfg.BaseURL
			if baseURL != "" {
				a.baseURL = baseURL
			}
			a.logger = log.New(io.Discard, "", 0)
			if verbose || cfg.Verbose {
				a.logger = log.New(cmd.ErrOrStderr(), "[storefront] ", log.LstdFlags|log.LUTC)
			}
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests to stderr")

	root.AddCommand(newProductsCmd(a), newRegisterCmd(a), newCheckoutCmd(a), newOrdersCmd(a))
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
