package auditlog

import "context"

type Repository interface {
	Record(ctx context.Context, userID int64, description string) error
}
