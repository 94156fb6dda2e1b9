package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	RemoveUser(ctx context.Context, userID int64) error
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, found, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user info: %w", err)
	}
	if !found {
		slog.Info("user not found", "user_id", id)
		return nil, repository.ErrNotFound
	}
	return user, nil
}

// RemoveUser deletes the account. Pages, posts and units go with it through the schema's
// cascading foreign keys.
func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	if err := s.u.Remove(ctx, userID); err != nil {
		return err
	}
	slog.Info("user removed", "user_id", userID)
	return nil
}
