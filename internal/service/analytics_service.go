package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/socialflow/internal/graph"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

const (
	postInsightFields = "insights.metric(post_impressions,post_impressions_unique,post_engaged_users,post_clicks),shares,comments.summary(true),reactions.summary(true)"
	pageInsightFields = "insights.metric(page_impressions,page_views_total).period(day)"
)

// GraphReader performs authenticated Graph API reads.
type GraphReader interface {
	Get(ctx context.Context, path, accessToken string, params url.Values, out any) error
}

type AnalyticsService interface {
	SyncPostAnalytics(ctx context.Context, postID int64) (*models.PostAnalytics, error)
	SyncPageAnalytics(ctx context.Context, pageID int64) (*models.PageAnalyticsSnapshot, error)
	GetPostAnalytics(ctx context.Context, postID int64) (*models.PostAnalytics, error)
}

type analyticsService struct {
	tx        repository.Transactor
	units     repository.ScheduledPostRepository
	pages     repository.SocialPageRepository
	analytics repository.AnalyticsRepository
	vault     TokenVault
	graph     GraphReader
	now       func() time.Time
}

func NewAnalyticsService(
	tx repository.Transactor,
	units repository.ScheduledPostRepository,
	pages repository.SocialPageRepository,
	analytics repository.AnalyticsRepository,
	vault TokenVault,
	graph GraphReader) AnalyticsService {
	return &analyticsService{
		tx:        tx,
		units:     units,
		pages:     pages,
		analytics: analytics,
		vault:     vault,
		graph:     graph,
		now:       time.Now,
	}
}

type rawInsight struct {
	ID   string                        `json:"id"`
	Data transfer.PostInsightsResponse `json:"data"`
}

// SyncPostAnalytics sums metrics over every external post the post was published as.
// Failures for one external id are logged and skipped.
func (s *analyticsService) SyncPostAnalytics(ctx context.Context, postID int64) (*models.PostAnalytics, error) {
	units, err := s.units.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	result := &models.PostAnalytics{PostID: postID, FetchedAt: s.now()}
	var raw []rawInsight
	tokens := map[int64]string{}
	published := 0

	for _, unit := range units {
		if unit.PublishedAt == nil || unit.ExternalPostID == "" {
			continue
		}
		published++

		token, ok := tokens[unit.PageID]
		if !ok {
			page, err := s.pages.GetByID(ctx, unit.PageID)
			if err != nil || page == nil {
				slog.Warn("analytics: page not found for unit", "unit_id", unit.ID, "page_id", unit.PageID, "error", err)
				continue
			}
			token = s.vault.Resolve(page.AccessToken)
			tokens[unit.PageID] = token
		}

		for _, externalID := range strings.Split(unit.ExternalPostID, ",") {
			externalID = strings.TrimSpace(externalID)
			if externalID == "" {
				continue
			}

			var insights transfer.PostInsightsResponse
			err := s.graph.Get(ctx, "/"+externalID, token, url.Values{"fields": {postInsightFields}}, &insights)
			if err != nil {
				slog.Error("analytics: failed to fetch post insights", "unit_id", unit.ID, "external_id", externalID, "error", err)
				continue
			}
			raw = append(raw, rawInsight{ID: externalID, Data: insights})

			result.Impressions += insights.Metric("post_impressions")
			result.Reach += insights.Metric("post_impressions_unique")
			result.Engagement += insights.Metric("post_engaged_users")
			result.Clicks += insights.Metric("post_clicks")
			result.Reactions += insights.Reactions.Summary.TotalCount
			result.Comments += insights.Comments.Summary.TotalCount
			result.Shares += insights.Shares.Count
		}
	}

	if published == 0 {
		slog.Info("analytics: no published instances", "post_id", postID)
		return nil, nil
	}

	if result.RawData, err = json.Marshal(raw); err != nil {
		return nil, err
	}
	if err := s.analytics.UpsertPostAnalytics(ctx, result); err != nil {
		return nil, err
	}

	slog.Info("analytics: post synced", "post_id", postID, "impressions", result.Impressions, "reach", result.Reach)
	return result, nil
}

// SyncPageAnalytics refreshes the follower count and records a history snapshot. An auth
// error marks the page token expired and ends the sync without error.
func (s *analyticsService) SyncPageAnalytics(ctx context.Context, pageID int64) (*models.PageAnalyticsSnapshot, error) {
	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, repository.ErrNotFound
	}

	token := s.vault.Resolve(page.AccessToken)
	now := s.now()

	var info transfer.PageInfoResponse
	err = s.graph.Get(ctx, "/"+page.PageID, token, url.Values{"fields": {"fan_count"}}, &info)
	if err != nil {
		if graph.IsAuthError(err) {
			slog.Warn("analytics: page token expired", "page_id", pageID, "error", err)
			if err := s.pages.UpdateTokenStatus(ctx, pageID, models.TokenStatusExpired, now); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch basic info: %w", err)
	}

	followers := page.FollowersCount
	if info.FanCount != nil {
		followers = *info.FanCount
	}

	snapshot := &models.PageAnalyticsSnapshot{
		PageID:         pageID,
		Date:           now,
		FollowersCount: followers,
		CreatedAt:      now,
	}

	var insights transfer.PageInfoResponse
	if err := s.graph.Get(ctx, "/"+page.PageID, token, url.Values{"fields": {pageInsightFields}}, &insights); err != nil {
		slog.Warn("analytics: page insights unavailable", "page_id", pageID, "error", err)
	} else {
		snapshot.PageReach = insights.Metric("page_impressions")
		snapshot.PageViews = insights.Metric("page_views_total")
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.pages.UpdateFollowers(ctx, tx, pageID, followers); err != nil {
			return err
		}
		snapshot.ID, err = s.analytics.InsertPageSnapshot(ctx, tx, snapshot)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("analytics: page synced", "page_id", pageID, "followers", followers, "reach", snapshot.PageReach)
	return snapshot, nil
}

func (s *analyticsService) GetPostAnalytics(ctx context.Context, postID int64) (*models.PostAnalytics, error) {
	return s.analytics.GetPostAnalytics(ctx, postID)
}
