package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/socialflow/internal/models"
)

type Config struct {
	// TranscodeHosts are CDN hosts whose video URLs accept transformation parameters.
	TranscodeHosts []string
}

// Request is everything needed to publish one delivery unit.
type Request struct {
	Post        *models.Post
	Page        *models.SocialPage
	AccessToken string
	Shape       string
	Media       []*models.Media
	// Progress holds ids of story items already published by earlier attempts.
	Progress []string
}

type Result struct {
	ExternalID string
	Progress   []string
}

type Publisher interface {
	Publish(ctx context.Context, req Request) (Result, error)
}

// StoryComposer renders post text onto a story image and returns the hosted result.
type StoryComposer interface {
	StoryCompositeURL(ctx context.Context, imageURL, text string) (string, error)
}

// Registry dispatches to the publisher registered for the page's platform.
type Registry struct {
	publishers map[string]Publisher
}

func NewRegistry() *Registry {
	return &Registry{publishers: make(map[string]Publisher)}
}

func (r *Registry) Register(platform string, p Publisher) {
	r.publishers[platform] = p
}

func (r *Registry) Publish(ctx context.Context, req Request) (Result, error) {
	if req.Page == nil {
		return Result{}, fmt.Errorf("missing destination page: %w", ErrUnsupportedPlatform)
	}
	p, ok := r.publishers[req.Page.Platform]
	if !ok {
		slog.Warn("no publisher for platform", "platform", req.Page.Platform, "page_id", req.Page.ID)
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, req.Page.Platform)
	}
	return p.Publish(ctx, req)
}
