package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxRemoteImageBytes = 20 << 20

var ErrUnsupportedMedia = errors.New("unsupported media type")

var allowedMedia = map[string]string{
	"jpg":  models.MediaTypeImage,
	"png":  models.MediaTypeImage,
	"gif":  models.MediaTypeImage,
	"webp": models.MediaTypeImage,
	"mp4":  models.MediaTypeVideo,
	"mov":  models.MediaTypeVideo,
}

type MediaService interface {
	UploadAsset(ctx context.Context, userID int64, data []byte, filename string) (*models.Media, error)
	List(ctx context.Context, userID int64) ([]*models.Media, error)
	Remove(ctx context.Context, userID, mediaID int64) error
	RenderStoryTextComposite(ctx context.Context, imageURL, text string) ([]byte, error)
	StoryCompositeURL(ctx context.Context, imageURL, text string) (string, error)
}

type mediaService struct {
	store      ObjectStore
	media      repository.MediaRepository
	httpClient *http.Client
}

func NewMediaService(store ObjectStore, media repository.MediaRepository, httpClient *http.Client) MediaService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &mediaService{store: store, media: media, httpClient: httpClient}
}

func (s *mediaService) UploadAsset(ctx context.Context, userID int64, data []byte, filename string) (*models.Media, error) {
	if len(data) == 0 {
		return nil, errors.New("file is empty")
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, ErrUnsupportedMedia
	}
	mediaType, ok := allowedMedia[kind.Extension]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := fmt.Sprintf("media/%d/%s.%s", userID, id, kind.Extension)

	url, err := s.store.Put(ctx, key, data, kind.MIME.Value)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	m := &models.Media{
		UserID:      userID,
		Type:        mediaType,
		StorageKey:  key,
		OriginalURL: url,
		FileName:    path.Base(filename),
		FileSize:    int64(len(data)),
		CreatedAt:   time.Now(),
	}

	m.ID, err = s.media.Create(ctx, nil, m)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to clean up orphaned object", "key", key, "error", delErr)
		}
		return nil, err
	}

	slog.Info("media uploaded", "media_id", m.ID, "type", m.Type, "size", m.FileSize)
	return m, nil
}

func (s *mediaService) List(ctx context.Context, userID int64) ([]*models.Media, error) {
	return s.media.ListByUserID(ctx, userID)
}

func (s *mediaService) Remove(ctx context.Context, userID, mediaID int64) error {
	m, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if m == nil || m.UserID != userID {
		return repository.ErrNotFound
	}

	if err := s.media.Remove(ctx, mediaID, userID); err != nil {
		return err
	}
	if m.StorageKey != "" {
		if err := s.store.Delete(ctx, m.StorageKey); err != nil {
			slog.Warn("failed to delete stored object", "key", m.StorageKey, "error", err)
		}
	}
	return nil
}

func (s *mediaService) RenderStoryTextComposite(ctx context.Context, imageURL, text string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch story image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch story image: status %d", resp.StatusCode)
	}

	return renderStoryComposite(io.LimitReader(resp.Body, maxRemoteImageBytes), text)
}

// StoryCompositeURL renders and stores the composite, returning its public URL.
func (s *mediaService) StoryCompositeURL(ctx context.Context, imageURL, text string) (string, error) {
	composite, err := s.RenderStoryTextComposite(ctx, imageURL, text)
	if err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	return s.store.Put(ctx, "stories/"+id+".jpg", composite, "image/jpeg")
}
