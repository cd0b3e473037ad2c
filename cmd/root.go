package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/KaramelBytes/acm-ledger/internal/ai"
	cfgpkg "github.com/KaramelBytes/acm-ledger/internal/config"
	"github.com/KaramelBytes/acm-ledger/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "acm",
	Short: "ACM Ledger: normalize and analyze chronic failure ledgers",
	Long: `ACM Ledger imports asset criticality mapping spreadsheets (XLSX or CSV), maps their
columns onto a canonical schema, and prints filtered ledgers, dashboards and
timelines. Optional AI commands summarize the data and audit action plans through
OpenRouter or a local Ollama runtime.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadConfig(cmd.Root())
		mode := "dev"
		if cfg != nil && cfg.LogMode != "" {
			mode = cfg.LogMode
		}
		l, err := logger.New(mode, debug)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.acm/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig(root *cobra.Command) {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: data commands work without a config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := root.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
		cfg.OllamaTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
}

// buildRuntime resolves the provider (flag, then config) and constructs it.
func buildRuntime(providerFlag string) (ai.Runtime, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("configuration unavailable; see the warning above")
	}
	provider := cfg.DefaultProvider
	if providerFlag != "" {
		provider = providerFlag
	}
	if provider == "" {
		provider = ai.ProviderOpenRouter
	}
	rt, err := ai.NewRuntime(provider, ai.RuntimeConfig{
		HTTPTimeout: cfg.HTTPTimeout(provider),
		Retry: ai.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
		},
		Logger: log,
		APIKey: cfg.APIKey,
		Host:   cfg.OllamaHost,
	})
	if err != nil {
		return nil, "", err
	}
	return rt, provider, nil
}
