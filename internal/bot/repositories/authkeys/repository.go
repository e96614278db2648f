package authkeys

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
)

type Repository interface {
	GetForUpdate(ctx context.Context, token string) (*models.AuthKey, error)
	MarkUsed(ctx context.Context, token string) error
	Count(ctx context.Context) (int64, error)
	Seed(ctx context.Context, tokens []string) error
}
