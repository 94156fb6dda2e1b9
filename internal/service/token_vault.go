package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/graph"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
	"github.com/maheshrc27/socialflow/pkg/utils"
)

// Tokens expiring within this window are reported as expiring.
const tokenExpiryWarning = 7 * 24 * time.Hour

// TokenVerifier asks the platform who owns a token.
type TokenVerifier interface {
	Me(ctx context.Context, accessToken string) (*transfer.GraphMeResponse, error)
}

// TokenCheckSummary counts pages per resulting token status.
type TokenCheckSummary map[string]int

type TokenVault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	// Resolve returns the usable token for a stored credential.
	Resolve(stored string) string
	CheckPage(ctx context.Context, page *models.SocialPage) string
	CheckAndRefreshTokens(ctx context.Context) TokenCheckSummary
}

type tokenVault struct {
	key      []byte
	pages    repository.SocialPageRepository
	verifier TokenVerifier
	now      func() time.Time
}

func NewTokenVault(cfg config.Config, pages repository.SocialPageRepository, verifier TokenVerifier) (TokenVault, error) {
	if cfg.EncryptionKey == "" {
		return nil, errors.New("ENCRYPTION_KEY is not set")
	}
	key, err := utils.DeriveKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}
	return &tokenVault{key: key, pages: pages, verifier: verifier, now: time.Now}, nil
}

func (v *tokenVault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("cannot encrypt an empty token")
	}
	return utils.Encrypt([]byte(plaintext), v.key)
}

func (v *tokenVault) Decrypt(ciphertext string) (string, error) {
	return utils.Decrypt(ciphertext, v.key)
}

func (v *tokenVault) Resolve(stored string) string {
	cred := utils.ParseCredential(stored)
	if cred.Kind == utils.CredentialPlain {
		return cred.Value
	}

	plaintext, err := v.Decrypt(cred.Value)
	if err != nil {
		slog.Warn("stored token looks encrypted but did not decrypt, using raw value", "error", err)
		return cred.Value
	}
	return plaintext
}

// CheckPage verifies one page token and persists the outcome. A rejection from the
// platform marks the token expired, anything else unexpected marks it error.
func (v *tokenVault) CheckPage(ctx context.Context, page *models.SocialPage) (status string) {
	now := v.now()

	defer func() {
		if p := recover(); p != nil {
			slog.Error("token check panicked", "page_id", page.ID, "panic", p)
			status = models.TokenStatusError
		}
		if err := v.pages.UpdateTokenStatus(ctx, page.ID, status, now); err != nil {
			slog.Error("failed to store token status", "page_id", page.ID, "status", status, "error", err)
		}
	}()

	_, err := v.verifier.Me(ctx, v.Resolve(page.AccessToken))
	var apiErr *graph.APIError
	switch {
	case err == nil:
		if page.TokenExpiresAt != nil && page.TokenExpiresAt.Sub(now) < tokenExpiryWarning {
			status = models.TokenStatusExpiring
		} else {
			status = models.TokenStatusValid
		}
	case errors.As(err, &apiErr):
		slog.Warn("page token rejected", "page_id", page.ID, "error", err)
		status = models.TokenStatusExpired
	default:
		slog.Error("page token check failed", "page_id", page.ID, "error", err)
		status = models.TokenStatusError
	}
	return status
}

func (v *tokenVault) CheckAndRefreshTokens(ctx context.Context) TokenCheckSummary {
	summary := TokenCheckSummary{}

	pages, err := v.pages.ListActive(ctx)
	if err != nil {
		slog.Error("token check: failed to list pages", "error", err)
		return summary
	}

	for _, page := range pages {
		if ctx.Err() != nil {
			slog.Warn("token check interrupted", "error", ctx.Err())
			break
		}
		summary[v.CheckPage(ctx, page)]++
	}

	slog.Info("token check finished", "pages", len(pages), "summary", summary)
	return summary
}
