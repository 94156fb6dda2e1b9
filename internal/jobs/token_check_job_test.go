package job

import (
	"context"
	"testing"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/service"
)

type vaultStub struct {
	service.TokenVault
	summary service.TokenCheckSummary
	calls   int
}

func (v *vaultStub) CheckAndRefreshTokens(ctx context.Context) service.TokenCheckSummary {
	v.calls++
	return v.summary
}

func TestTokenCheckJobReturnsSummary(t *testing.T) {
	vault := &vaultStub{summary: service.TokenCheckSummary{models.TokenStatusValid: 2, models.TokenStatusExpired: 1}}
	job := NewTokenCheckJob(vault)

	summary := job.CheckTokens(context.Background())

	if vault.calls != 1 {
		t.Fatalf("expected one check got %d", vault.calls)
	}
	if summary[models.TokenStatusValid] != 2 || summary[models.TokenStatusExpired] != 1 {
		t.Fatalf("unexpected summary %v", summary)
	}
}
