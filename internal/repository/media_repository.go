package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/socialflow/internal/models"
)

type MediaRepository interface {
	Create(ctx context.Context, tx *sql.Tx, m *models.Media) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Media, error)
	ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Media, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Media, error)
	Remove(ctx context.Context, id, userID int64) error
}

type mediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func mediaColumns(prefix string) string {
	cols := []string{"id", "user_id", "type", "storage_key", "original_url", "facebook_feed_url",
		"instagram_story_url", "file_name", "file_size", "created_at"}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += prefix + c
	}
	return out
}

func scanMedia(row interface{ Scan(...any) error }) (*models.Media, error) {
	var m models.Media
	err := row.Scan(&m.ID, &m.UserID, &m.Type, &m.StorageKey, &m.OriginalURL, &m.FacebookFeedURL,
		&m.InstagramStoryURL, &m.FileName, &m.FileSize, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mediaRepository) Create(ctx context.Context, tx *sql.Tx, m *models.Media) (int64, error) {
	var id int64
	var err error

	query := `
		INSERT INTO media (user_id, type, storage_key, original_url, facebook_feed_url, instagram_story_url, file_name, file_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	args := []any{m.UserID, m.Type, m.StorageKey, m.OriginalURL, m.FacebookFeedURL, m.InstagramStoryURL, m.FileName, m.FileSize}
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

func (r *mediaRepository) GetByID(ctx context.Context, id int64) (*models.Media, error) {
	query := `SELECT ` + mediaColumns("") + ` FROM media WHERE id = $1`

	m, err := scanMedia(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return m, nil
}

// ListByIDs returns the user's media among ids. Order follows the database, not ids.
func (r *mediaRepository) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Media, error) {
	query := `SELECT ` + mediaColumns("") + ` FROM media WHERE user_id = $1 AND id = ANY($2)`
	return r.list(ctx, query, userID, pq.Array(ids))
}

func (r *mediaRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Media, error) {
	query := `SELECT ` + mediaColumns("") + ` FROM media WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *mediaRepository) list(ctx context.Context, query string, args ...any) ([]*models.Media, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var media []*models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

func (r *mediaRepository) Remove(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
