// Package services contains the bot's business logic: registration and
// single-use key redemption, blob/ledger file storage, and audit logging.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
	"github.com/dmitrijs2005/filekeeper/internal/bot/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
)

// AuthService handles user registration and authorization key redemption.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewAuthService constructs an AuthService over the given database and
// repositories.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AuthService {
	return &AuthService{db: db, repomanager: m, logger: logger}
}

// Register creates a user record. Registration is always explicit; no other
// operation creates users as a side effect.
func (s *AuthService) Register(ctx context.Context, userID int64, displayName string) (*models.User, error) {
	user := &models.User{UserID: userID, DisplayName: displayName}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return u, nil
}

// Lookup fetches the user record; common.ErrorNotFound when unregistered.
func (s *AuthService) Lookup(ctx context.Context, userID int64) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	return repo.GetByUserID(ctx, userID)
}

// IsAuthorized reports whether the user currently holds authorization.
// Unregistered users are simply unauthorized, not an error.
func (s *AuthService) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	user, err := s.Lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAuthorized, nil
}

// Redeem consumes a single-use key and flips the user's authorized flag, both
// inside one transaction. The key row stays locked for the duration, so of
// two concurrent redemptions of the same token exactly one wins and the other
// sees common.ErrKeyUsed. An unknown token yields common.ErrKeyInvalid.
func (s *AuthService) Redeem(ctx context.Context, userID int64, token string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		keyRepo := s.repomanager.AuthKeys(tx)

		key, err := keyRepo.GetForUpdate(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrKeyInvalid
			}
			return err
		}
		if key.IsUsed {
			return common.ErrKeyUsed
		}

		if err := keyRepo.MarkUsed(ctx, token); err != nil {
			return err
		}

		userRepo := s.repomanager.Users(tx)
		n, err := userRepo.SetAuthorized(ctx, userID, true)
		if err != nil {
			return err
		}
		if n == 0 {
			// Abort so the key is not consumed for an unregistered user.
			return common.ErrorNotFound
		}
		return nil
	})

	switch {
	case err == nil:
		s.logger.Info(ctx, "user authorized", "user_id", userID)
		return nil
	case errors.Is(err, common.ErrKeyInvalid):
		s.logger.Warn(ctx, "authorization attempt with invalid key", "user_id", userID)
		return err
	case errors.Is(err, common.ErrKeyUsed):
		s.logger.Warn(ctx, "authorization attempt with already used key", "user_id", userID)
		return err
	default:
		return fmt.Errorf("error redeeming key: %v", err)
	}
}

// Deauthorize resets the authorized flag unconditionally. Affecting no rows
// is logged as a warning, not reported as an error.
func (s *AuthService) Deauthorize(ctx context.Context, userID int64) error {
	repo := s.repomanager.Users(s.db)
	n, err := repo.SetAuthorized(ctx, userID, false)
	if err != nil {
		return fmt.Errorf("error updating authorization status: %v", err)
	}
	if n == 0 {
		s.logger.Warn(ctx, "deauthorize affected no rows", "user_id", userID)
	}
	return nil
}
