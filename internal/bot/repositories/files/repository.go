package files

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error)
	GetByID(ctx context.Context, id int64) (*models.StoredFile, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]*models.StoredFile, error)
}
