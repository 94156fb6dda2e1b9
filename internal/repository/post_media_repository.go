package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/socialflow/internal/models"
)

type PostMediaRepository interface {
	Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error
	ListMediaByPostID(ctx context.Context, postID int64) ([]*models.Media, error)
	Update(ctx context.Context, pm *models.PostMedia) error
	Remove(ctx context.Context, postID int64) error
}

type postMediaRepository struct {
	db *sql.DB
}

func NewPostMediaRepository(db *sql.DB) PostMediaRepository {
	return &postMediaRepository{db: db}
}

func (r *postMediaRepository) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error {
	var err error

	query := `
		INSERT INTO post_media (post_id, media_id, display_order)
		VALUES ($1, $2, $3)
	`
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, pm.PostID, pm.MediaID, pm.DisplayOrder)
	} else {
		_, err = r.db.ExecContext(ctx, query, pm.PostID, pm.MediaID, pm.DisplayOrder)
	}

	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

// ListMediaByPostID returns the post's media in display order.
func (r *postMediaRepository) ListMediaByPostID(ctx context.Context, postID int64) ([]*models.Media, error) {
	query := `
		SELECT ` + mediaColumns("m.") + `
		FROM post_media pm
		JOIN media m ON m.id = pm.media_id
		WHERE pm.post_id = $1
		ORDER BY pm.display_order, m.id
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
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

	if err = rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return media, nil
}

func (r *postMediaRepository) Remove(ctx context.Context, postID int64) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM post_media WHERE post_id = $1`, postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postMediaRepository) Update(ctx context.Context, pm *models.PostMedia) error {
	query := `
		UPDATE post_media
		SET display_order = $1
		WHERE post_id = $2 AND media_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, pm.DisplayOrder, pm.PostID, pm.MediaID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affectedRows, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affectedRows == 0 {
		return errors.New("no rows affected")
	}

	return nil
}
