package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/acm-ledger/internal/ai"
	"github.com/KaramelBytes/acm-ledger/internal/insight"
	"github.com/spf13/cobra"
)

// aiFlags are shared by commands that call a model.
type aiFlags struct {
	provider   string
	model      string
	timeoutSec int
}

func (a *aiFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&a.provider, "provider", "", "runtime: openrouter or ollama (default from config)")
	c.Flags().StringVar(&a.model, "model", "", "model name (default from config)")
	c.Flags().IntVar(&a.timeoutSec, "timeout", 180, "overall request timeout in seconds")
}

// analyst builds an insight.Analyst from config and flags.
func (a *aiFlags) analyst() (*insight.Analyst, string, string, error) {
	rt, provider, err := buildRuntime(a.provider)
	if err != nil {
		return nil, "", "", err
	}
	model := cfg.DefaultModel
	if a.model != "" {
		model = a.model
	}
	an := insight.New(rt, insight.Options{
		Model:       model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		SnippetRows: cfg.SnippetRows,
		TokenLimit:  cfg.SnippetTokenLimit,
		Concurrency: cfg.AuditConcurrency,
	}, log.With("provider", provider, "model", model))
	return an, provider, model, nil
}

func (a *aiFlags) context() (context.Context, context.CancelFunc) {
	sec := a.timeoutSec
	if sec <= 0 {
		sec = 180
	}
	return context.WithTimeout(context.Background(), time.Duration(sec)*time.Second)
}

// explainAIError adds a hint for common provider failures.
func explainAIError(err error, provider, model string) error {
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.As(err, &unreach):
		return fmt.Errorf("Ollama not reachable at %s. Ensure it is running or set ACM_OLLAMA_HOST: %w", unreach.Host, err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: set ACM_API_KEY or run 'acm config set api_key ...': %w", err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by provider, please retry: %w", err)
	case errors.As(err, &nfErr):
		if provider == ai.ProviderOllama {
			return fmt.Errorf("local model not available (%s). Install it with 'ollama pull %s': %w", model, model, err)
		}
		return fmt.Errorf("model not found (%s): %w", model, err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error). Please retry later: %w", err)
	}
	return err
}
