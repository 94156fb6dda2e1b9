package publisher

import (
	"fmt"

	"github.com/maheshrc27/socialflow/internal/models"
)

// Content is one platform publish. The set of implementations is closed.
type Content interface {
	kind() string
}

type FeedText struct{}

type FeedSinglePhoto struct {
	Photo *models.Media
}

type FeedCarousel struct {
	Photos []*models.Media
}

type FeedVideo struct {
	Video *models.Media
}

type PhotoStory struct {
	Photo *models.Media
}

type VideoStory struct {
	Video *models.Media
}

type Reel struct {
	Video *models.Media
	// Data, when set, is uploaded as bytes instead of letting the platform fetch the URL.
	Data []byte
}

func (FeedText) kind() string        { return "feed_text" }
func (FeedSinglePhoto) kind() string { return "feed_photo" }
func (FeedCarousel) kind() string    { return "feed_carousel" }
func (FeedVideo) kind() string       { return "feed_video" }
func (PhotoStory) kind() string      { return "photo_story" }
func (VideoStory) kind() string      { return "video_story" }
func (Reel) kind() string            { return "reel" }

// Kind is a stable label for logs and metrics.
func Kind(c Content) string {
	return c.kind()
}

// Plan is the ordered list of publishes a unit expands to. Only stories have more than
// one item.
type Plan struct {
	Shape string
	Items []Content
}

// Classify turns a unit's shape and its ordered media into a publish plan.
func Classify(shape string, media []*models.Media) (Plan, error) {
	switch shape {
	case models.PostTypeFeed:
		return Plan{Shape: shape, Items: []Content{classifyFeed(media)}}, nil

	case models.PostTypeStory:
		if len(media) == 0 {
			return Plan{}, fmt.Errorf("story: %w", ErrNoMedia)
		}
		items := make([]Content, 0, len(media))
		for _, m := range media {
			if m.IsVideo() {
				items = append(items, VideoStory{Video: m})
			} else {
				items = append(items, PhotoStory{Photo: m})
			}
		}
		return Plan{Shape: shape, Items: items}, nil

	case models.PostTypeReel:
		video := firstVideo(media)
		if video == nil {
			return Plan{}, fmt.Errorf("reel needs a video: %w", ErrNoMedia)
		}
		return Plan{Shape: shape, Items: []Content{Reel{Video: video}}}, nil

	case models.PostTypeBoth:
		return Plan{}, ErrCombinedShape

	default:
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownShape, shape)
	}
}

func classifyFeed(media []*models.Media) Content {
	if video := firstVideo(media); video != nil {
		return FeedVideo{Video: video}
	}
	switch len(media) {
	case 0:
		return FeedText{}
	case 1:
		return FeedSinglePhoto{Photo: media[0]}
	default:
		return FeedCarousel{Photos: media}
	}
}

func firstVideo(media []*models.Media) *models.Media {
	for _, m := range media {
		if m.IsVideo() {
			return m
		}
	}
	return nil
}
