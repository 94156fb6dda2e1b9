package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

var ErrInvalidPost = errors.New("invalid post")

// PostDetails is a post with its ordered media and delivery units.
type PostDetails struct {
	Post  *models.Post            `json:"post"`
	Media []*models.Media         `json:"media"`
	Units []*models.ScheduledPost `json:"units"`
}

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (*PostDetails, error)
	List(ctx context.Context, userID int64, status string) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*PostDetails, error)
	ListUnits(ctx context.Context, filter repository.UnitFilter) ([]*models.ScheduledPost, error)
	RemoveUnit(ctx context.Context, userID, unitID int64) error
	History(ctx context.Context, postID, userID int64) ([]*models.PostingHistory, error)
}

type postService struct {
	tx    repository.Transactor
	pr    repository.PostRepository
	sp    repository.ScheduledPostRepository
	pages repository.SocialPageRepository
	ma    repository.MediaRepository
	pm    repository.PostMediaRepository
	ph    repository.PostingHistoryRepository
	now   func() time.Time
}

func NewPostService(
	tx repository.Transactor,
	pr repository.PostRepository,
	sp repository.ScheduledPostRepository,
	pages repository.SocialPageRepository,
	ma repository.MediaRepository,
	pm repository.PostMediaRepository,
	ph repository.PostingHistoryRepository) PostService {
	return &postService{
		tx:    tx,
		pr:    pr,
		sp:    sp,
		pages: pages,
		ma:    ma,
		pm:    pm,
		ph:    ph,
		now:   time.Now,
	}
}

// ExpandShapes maps a requested shape to the unit shapes it fans out to. A combined
// feed and story request becomes two independent units.
func ExpandShapes(shape string) ([]string, error) {
	switch shape {
	case models.PostTypeFeed, models.PostTypeStory, models.PostTypeReel:
		return []string{shape}, nil
	case models.PostTypeBoth:
		return []string{models.PostTypeFeed, models.PostTypeStory}, nil
	default:
		return nil, fmt.Errorf("%w: unknown post type %q", ErrInvalidPost, shape)
	}
}

func parseScheduledFor(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid scheduled time %q", ErrInvalidPost, value)
}

// CreatePost stores the post, its ordered media and one unit per page and shape in a
// single transaction. Without pages the post is kept as a draft.
func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (*PostDetails, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return nil, err
	}
	if strings.TrimSpace(pc.Content) == "" && len(pc.MediaIDs) == 0 {
		return nil, fmt.Errorf("%w: content or media is required", ErrInvalidPost)
	}

	shape := pc.PostType
	if shape == "" {
		shape = models.PostTypeFeed
	}
	shapes, err := ExpandShapes(shape)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scheduledAt, err := parseScheduledFor(pc.ScheduledFor, now)
	if err != nil {
		return nil, err
	}

	media, err := s.resolveMedia(ctx, userID, pc.MediaIDs)
	if err != nil {
		return nil, err
	}
	if err := validateMediaForShapes(shapes, media); err != nil {
		return nil, err
	}

	for _, pageID := range pc.PageIDs {
		ok, err := s.pages.CheckByUserID(ctx, pageID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: page %d does not exist", ErrInvalidPost, pageID)
		}
	}

	post := &models.Post{
		UserID:    userID,
		Content:   pc.Content,
		Status:    models.PostStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(pc.PageIDs) > 0 {
		post.Status = models.PostStatusScheduled
		post.ScheduledFor = &scheduledAt
	}

	var units []*models.ScheduledPost
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		id, err := s.pr.Create(ctx, tx, post)
		if err != nil {
			return fmt.Errorf("error creating post: %w", err)
		}
		post.ID = id

		for i, m := range media {
			if err := s.pm.Create(ctx, tx, &models.PostMedia{PostID: id, MediaID: m.ID, DisplayOrder: i}); err != nil {
				return fmt.Errorf("error saving media %d: %w", m.ID, err)
			}
		}

		for _, pageID := range pc.PageIDs {
			for _, unitShape := range shapes {
				unit := &models.ScheduledPost{
					PostID:      id,
					PageID:      pageID,
					PostType:    unitShape,
					ScheduledAt: scheduledAt,
					CreatedAt:   now,
				}
				if unit.ID, err = s.sp.Create(ctx, tx, unit); err != nil {
					return fmt.Errorf("error scheduling page %d: %w", pageID, err)
				}
				units = append(units, unit)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("post created", "post_id", post.ID, "status", post.Status, "units", len(units))
	return &PostDetails{Post: post, Media: media, Units: units}, nil
}

// resolveMedia loads the user's media in the requested order.
func (s *postService) resolveMedia(ctx context.Context, userID int64, ids []int64) ([]*models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.ma.ListByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Media, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	media := make([]*models.Media, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: media %d does not exist", ErrInvalidPost, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: media %d listed twice", ErrInvalidPost, id)
		}
		seen[id] = true
		media = append(media, m)
	}
	return media, nil
}

func validateMediaForShapes(shapes []string, media []*models.Media) error {
	videos := 0
	for _, m := range media {
		if m.IsVideo() {
			videos++
		}
	}

	for _, shape := range shapes {
		switch shape {
		case models.PostTypeStory:
			if len(media) == 0 {
				return fmt.Errorf("%w: stories need at least one media item", ErrInvalidPost)
			}
		case models.PostTypeReel:
			if len(media) != 1 || videos != 1 {
				return fmt.Errorf("%w: reels need exactly one video", ErrInvalidPost)
			}
		}
	}
	return nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*PostDetails, error) {
	var err error

	if postID == 0 {
		err = errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		return nil, repository.ErrNotFound
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if post == nil {
		return nil, repository.ErrNotFound
	}

	media, err := s.pm.ListMediaByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	units, err := s.sp.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &PostDetails{Post: post, Media: media, Units: units}, nil
}

// History returns every publish attempt made for the post's units, oldest first.
func (s *postService) History(ctx context.Context, postID, userID int64) ([]*models.PostingHistory, error) {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		return nil, repository.ErrNotFound
	}

	history, err := s.ph.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting posting history: %w", err)
	}
	return history, nil
}

func (s *postService) List(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	posts, err := s.pr.List(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) ListUnits(ctx context.Context, filter repository.UnitFilter) ([]*models.ScheduledPost, error) {
	return s.sp.List(ctx, filter)
}

// RemoveUnit cancels a unit that has not been published yet.
func (s *postService) RemoveUnit(ctx context.Context, userID, unitID int64) error {
	if err := s.sp.DeletePending(ctx, unitID, userID); err != nil {
		return err
	}
	slog.Info("scheduled post removed", "unit_id", unitID, "user_id", userID)
	return nil
}
