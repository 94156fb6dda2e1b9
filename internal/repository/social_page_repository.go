package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
)

type SocialPageRepository interface {
	Upsert(ctx context.Context, tx *sql.Tx, page *models.SocialPage) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialPage, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialPage, error)
	ListActive(ctx context.Context) ([]*models.SocialPage, error)
	CheckByUserID(ctx context.Context, pageID, userID int64) (bool, error)
	UpdateTokenStatus(ctx context.Context, id int64, status string, checkedAt time.Time) error
	UpdateFollowers(ctx context.Context, tx *sql.Tx, id int64, followers int) error
	Remove(ctx context.Context, id, userID int64) error
}

type socialPageRepository struct {
	db *sql.DB
}

func NewSocialPageRepository(db *sql.DB) SocialPageRepository {
	return &socialPageRepository{db: db}
}

const socialPageColumns = `id, user_id, platform, page_id, page_name, access_token, token_expires_at,
	token_status, last_token_check, followers_count, is_active, created_at`

func scanSocialPage(row interface{ Scan(...any) error }) (*models.SocialPage, error) {
	var p models.SocialPage
	err := row.Scan(&p.ID, &p.UserID, &p.Platform, &p.PageID, &p.PageName, &p.AccessToken, &p.TokenExpiresAt,
		&p.TokenStatus, &p.LastTokenCheck, &p.FollowersCount, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert stores a connected page. Reconnecting the same remote page replaces its token
// and reactivates it.
func (r *socialPageRepository) Upsert(ctx context.Context, tx *sql.Tx, page *models.SocialPage) (int64, error) {
	var err error
	var id int64

	query := `
		INSERT INTO social_pages (
			user_id,
			platform,
			page_id,
			page_name,
			access_token,
			token_expires_at,
			token_status,
			is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		ON CONFLICT (user_id, platform, page_id) DO UPDATE
		SET page_name = EXCLUDED.page_name,
			access_token = EXCLUDED.access_token,
			token_expires_at = EXCLUDED.token_expires_at,
			token_status = EXCLUDED.token_status,
			is_active = TRUE
		RETURNING id
	`

	status := page.TokenStatus
	if status == "" {
		status = models.TokenStatusValid
	}

	args := []any{page.UserID, page.Platform, page.PageID, page.PageName, page.AccessToken, page.TokenExpiresAt, status}
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialPageRepository) GetByID(ctx context.Context, id int64) (*models.SocialPage, error) {
	query := `SELECT ` + socialPageColumns + ` FROM social_pages WHERE id = $1`

	page, err := scanSocialPage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return page, nil
}

func (r *socialPageRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialPage, error) {
	query := `SELECT ` + socialPageColumns + ` FROM social_pages WHERE user_id = $1 AND is_active ORDER BY id`
	return r.list(ctx, query, userID)
}

func (r *socialPageRepository) ListActive(ctx context.Context) ([]*models.SocialPage, error) {
	query := `SELECT ` + socialPageColumns + ` FROM social_pages WHERE is_active ORDER BY id`
	return r.list(ctx, query)
}

func (r *socialPageRepository) list(ctx context.Context, query string, args ...any) ([]*models.SocialPage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var pages []*models.SocialPage
	for rows.Next() {
		page, err := scanSocialPage(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func (r *socialPageRepository) CheckByUserID(ctx context.Context, pageID, userID int64) (bool, error) {
	query := "SELECT 1 FROM social_pages WHERE id = $1 AND user_id = $2 AND is_active"

	var result int
	err := r.db.QueryRowContext(ctx, query, pageID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *socialPageRepository) UpdateTokenStatus(ctx context.Context, id int64, status string, checkedAt time.Time) error {
	query := `UPDATE social_pages SET token_status = $1, last_token_check = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, checkedAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialPageRepository) UpdateFollowers(ctx context.Context, tx *sql.Tx, id int64, followers int) error {
	query := `UPDATE social_pages SET followers_count = $1 WHERE id = $2`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, followers, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, followers, id)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Remove deactivates the page so historical units keep their destination.
func (r *socialPageRepository) Remove(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE social_pages SET is_active = FALSE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
