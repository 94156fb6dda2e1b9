package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

var ErrInvalidPage = errors.New("invalid page")

type PageService interface {
	Add(ctx context.Context, userID int64, pc *transfer.PageCreation) (*models.SocialPage, error)
	List(ctx context.Context, userID int64) ([]*models.SocialPage, error)
	Remove(ctx context.Context, userID, pageID int64) error
	Owns(ctx context.Context, userID, pageID int64) (bool, error)
}

type pageService struct {
	pages repository.SocialPageRepository
	vault TokenVault
}

func NewPageService(pages repository.SocialPageRepository, vault TokenVault) PageService {
	return &pageService{pages: pages, vault: vault}
}

// Add stores a page with its token encrypted, then checks the token once so the status
// reflects reality from the start.
func (s *pageService) Add(ctx context.Context, userID int64, pc *transfer.PageCreation) (*models.SocialPage, error) {
	if pc == nil || pc.PageID == "" || pc.AccessToken == "" {
		return nil, fmt.Errorf("%w: page id and access token are required", ErrInvalidPage)
	}
	platform := pc.Platform
	if platform == "" {
		platform = models.PlatformFacebook
	}
	if platform != models.PlatformFacebook && platform != models.PlatformInstagram {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidPage, platform)
	}

	encrypted, err := s.vault.Encrypt(pc.AccessToken)
	if err != nil {
		return nil, err
	}

	page := &models.SocialPage{
		UserID:      userID,
		Platform:    platform,
		PageID:      pc.PageID,
		PageName:    pc.PageName,
		AccessToken: encrypted,
		TokenStatus: models.TokenStatusValid,
		IsActive:    true,
	}
	if pc.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(pc.ExpiresIn) * time.Second)
		page.TokenExpiresAt = &expiresAt
	}
	if page.ID, err = s.pages.Upsert(ctx, nil, page); err != nil {
		return nil, err
	}

	page.TokenStatus = s.vault.CheckPage(ctx, page)
	slog.Info("page added", "page_id", page.ID, "platform", platform, "token_status", page.TokenStatus)
	return page, nil
}

func (s *pageService) List(ctx context.Context, userID int64) ([]*models.SocialPage, error) {
	return s.pages.ListByUserID(ctx, userID)
}

func (s *pageService) Owns(ctx context.Context, userID, pageID int64) (bool, error) {
	return s.pages.CheckByUserID(ctx, pageID, userID)
}

func (s *pageService) Remove(ctx context.Context, userID, pageID int64) error {
	return s.pages.Remove(ctx, pageID, userID)
}
