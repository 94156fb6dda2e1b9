package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/socialflow/internal/models"
)

type AnalyticsRepository interface {
	UpsertPostAnalytics(ctx context.Context, a *models.PostAnalytics) error
	GetPostAnalytics(ctx context.Context, postID int64) (*models.PostAnalytics, error)
	InsertPageSnapshot(ctx context.Context, tx *sql.Tx, s *models.PageAnalyticsSnapshot) (int64, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) UpsertPostAnalytics(ctx context.Context, a *models.PostAnalytics) error {
	query := `
		INSERT INTO post_analytics (post_id, fetched_at, impressions, reach, engagement, reactions, comments, shares, clicks, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (post_id) DO UPDATE
		SET fetched_at = EXCLUDED.fetched_at,
			impressions = EXCLUDED.impressions,
			reach = EXCLUDED.reach,
			engagement = EXCLUDED.engagement,
			reactions = EXCLUDED.reactions,
			comments = EXCLUDED.comments,
			shares = EXCLUDED.shares,
			clicks = EXCLUDED.clicks,
			raw_data = EXCLUDED.raw_data
	`

	var raw any
	if len(a.RawData) > 0 {
		raw = []byte(a.RawData)
	}

	_, err := r.db.ExecContext(ctx, query, a.PostID, a.FetchedAt, a.Impressions, a.Reach, a.Engagement,
		a.Reactions, a.Comments, a.Shares, a.Clicks, raw)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *analyticsRepository) GetPostAnalytics(ctx context.Context, postID int64) (*models.PostAnalytics, error) {
	query := `
		SELECT id, post_id, fetched_at, impressions, reach, engagement, reactions, comments, shares, clicks, COALESCE(raw_data, 'null'::jsonb)
		FROM post_analytics
		WHERE post_id = $1
	`

	var a models.PostAnalytics
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, postID).Scan(&a.ID, &a.PostID, &a.FetchedAt, &a.Impressions, &a.Reach,
		&a.Engagement, &a.Reactions, &a.Comments, &a.Shares, &a.Clicks, &raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	a.RawData = raw
	return &a, nil
}

func (r *analyticsRepository) InsertPageSnapshot(ctx context.Context, tx *sql.Tx, s *models.PageAnalyticsSnapshot) (int64, error) {
	query := `
		INSERT INTO page_analytics_history (page_id, date, followers_count, page_views, page_reach)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, s.PageID, s.Date, s.FollowersCount, s.PageViews, s.PageReach).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, s.PageID, s.Date, s.FollowersCount, s.PageViews, s.PageReach).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}
