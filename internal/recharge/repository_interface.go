package recharge

import "context"

type Store interface {
	Create(ctx context.Context, id string, userID int, amountCents int64) (*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	SetPaymentID(ctx context.Context, id, paymentID string) error
	Complete(ctx context.Context, id, paymentID string) (newly bool, err error)
	Fail(ctx context.Context, id, paymentID string) (newly bool, err error)
	ListByUser(ctx context.Context, userID int, limit, offset int) ([]Record, error)
}
