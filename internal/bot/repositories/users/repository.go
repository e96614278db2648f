package users

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUserID(ctx context.Context, userID int64) (*models.User, error)
	SetAuthorized(ctx context.Context, userID int64, authorized bool) (int64, error)
}
