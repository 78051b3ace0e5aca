package ledger

import "time"

// Account — денежный счёт пользователя.
type Account struct {
	UserID       int       `db:"user_id" json:"user_id"`
	BalanceCents int64     `db:"balance_cents" json:"balance_cents"`
	FrozenCents  int64     `db:"frozen_cents" json:"frozen_cents"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Entry struct {
	ID             int       `db:"id" json:"id"`
	UserID         int       `db:"user_id" json:"user_id"`
	AmountCents    int64     `db:"amount_cents" json:"amount_cents"` // signed: credit > 0, debit < 0
	BalanceAfter   int64     `db:"balance_after" json:"balance_after"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
