package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"growth-scraper/api"
	"growth-scraper/config"
	"growth-scraper/models"
	"growth-scraper/utils"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	logLevel  string
	targetURL string
	fromDB    bool
)

var rootCmd = &cobra.Command{
	Use:   "growth-scraper",
	Short: "Scrape, clean and analyse Growth Suplementos product listings",
	Long: `growth-scraper collects product names and prices from a listing page,
normalizes the BRL price text into numbers and serves descriptive statistics
as a terminal report or an HTTP dashboard.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&targetURL, "url", "", "listing page to scrape (overrides TARGET_URL)")

	reportCmd.Flags().BoolVar(&fromDB, "from-db", false, "read the clean table from PostgreSQL instead of the clean store")

	rootCmd.AddCommand(collectCmd, normalizeCmd, runCmd, reportCmd, serveCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "growth-scraper version %s\n", version)
		},
	})
}

// loadConfig applies flag overrides on top of .env and the environment.
func loadConfig() (*config.Config, *utils.Logger, error) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if targetURL != "" {
		cfg.TargetURL = targetURL
	}
	logger := utils.NewLoggerTo(os.Stdout, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Scrape the listing page into the raw store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAppFromFlags(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.pipeline.Collect(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Collection %s: %s, %d records, %d skipped → %s\n",
			res.RunID, res.Status, len(res.Records), len(res.Skipped), a.store.RawPath())
		return nil
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Rebuild the clean store from the raw store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAppFromFlags(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.pipeline.Normalize(cmd.Context())
		if err != nil {
			return err
		}
		printReport(cmd, r.Summary.Normalize, a.store.CleanPath())
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, normalize and print the insight report",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAppFromFlags(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.pipeline.Run(cmd.Context())
		if err != nil {
			return err
		}
		if r.Summary.Collect != models.CollectOK {
			a.logger.Warn("Collection finished %s; %d items skipped", r.Summary.Collect, r.Summary.Skipped)
		}
		printReport(cmd, r.Summary.Normalize, a.store.CleanPath())
		a.insights.Print(cmd.OutOrStdout(), a.insights.Generate(r.Table))
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print descriptive statistics of the clean table",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAppFromFlags(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		table, err := a.cleanTable(cmd.Context(), fromDB)
		if err != nil {
			return err
		}
		a.insights.Print(cmd.OutOrStdout(), a.insights.Generate(table))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newAppFromFlags(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		h := api.NewHandler(a.pipeline, a.insights, a.logger.With("api"))
		return api.NewServer(a.cfg, h, a.metrics, a.logger).Run(ctx)
	},
}

func printReport(cmd *cobra.Command, r models.NormalizeReport, path string) {
	fmt.Fprintf(cmd.OutOrStdout(), "Normalized %d → %d rows (unparsable %d, duplicates %d) → %s\n",
		r.Input, r.Output, r.Unparsable, r.Duplicates, path)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
