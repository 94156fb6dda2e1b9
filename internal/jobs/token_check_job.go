package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/metrics"
	"github.com/maheshrc27/socialflow/internal/service"
)

type TokenCheckJob struct {
	vault   service.TokenVault
	timeout time.Duration
}

func NewTokenCheckJob(vault service.TokenVault) *TokenCheckJob {
	return &TokenCheckJob{vault: vault, timeout: 30 * time.Minute}
}

// Run is the cron entry point.
func (c *TokenCheckJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.CheckTokens(ctx)
}

// CheckTokens verifies every connected page token and publishes the status counts.
func (c *TokenCheckJob) CheckTokens(ctx context.Context) service.TokenCheckSummary {
	slog.Info("starting page token check")

	summary := c.vault.CheckAndRefreshTokens(ctx)
	metrics.SetTokenStatusCounts(summary)
	return summary
}
