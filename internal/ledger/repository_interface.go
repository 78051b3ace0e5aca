package ledger

import "context"

type Store interface {
	GetOrCreateAccount(ctx context.Context, userID int) (*Account, error)
	Credit(ctx context.Context, userID int, amountCents int64, idempotencyKey string) (int64, error)
	Debit(ctx context.Context, userID int, amountCents int64, idempotencyKey string) (int64, error)
	ListEntries(ctx context.Context, userID int, limit, offset int) ([]Entry, error)
}
