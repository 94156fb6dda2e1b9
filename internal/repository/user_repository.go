package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/socialflow/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	GetByFacebookID(ctx context.Context, facebookID string) (*models.User, bool, error)
	Upsert(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error)
	Remove(ctx context.Context, id int64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	var user models.User
	query := "SELECT id, COALESCE(facebook_id, ''), email, name, profile_picture, created_at, updated_at FROM users WHERE id = $1"
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.FacebookID, &user.Email, &user.Name, &user.ProfilePicture, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) GetByFacebookID(ctx context.Context, facebookID string) (*models.User, bool, error) {
	var user models.User
	query := "SELECT id, facebook_id, email, name, profile_picture, created_at, updated_at FROM users WHERE facebook_id = $1"
	err := r.db.QueryRowContext(ctx, query, facebookID).Scan(&user.ID, &user.FacebookID, &user.Email, &user.Name, &user.ProfilePicture, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

// Upsert inserts the user or refreshes name, email and picture when the Facebook id is known.
func (r *userRepository) Upsert(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (facebook_id, email, name, profile_picture)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (facebook_id) DO UPDATE
		SET email = EXCLUDED.email,
			name = EXCLUDED.name,
			profile_picture = EXCLUDED.profile_picture,
			updated_at = NOW()
		RETURNING id
	`

	var err error
	var id int64

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, user.FacebookID, user.Email, user.Name, user.ProfilePicture).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, user.FacebookID, user.Email, user.Name, user.ProfilePicture).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *userRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
