package consumption

import "context"

type Store interface {
	Spend(ctx context.Context, userID int, req SpendRequest) (*Record, int64, error)
	ListByUser(ctx context.Context, userID int, productType string, limit, offset int) ([]Record, error)
}
