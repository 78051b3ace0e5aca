package recharge

import "time"

type Status string

// Статусы монотонные: из терминального состояния выхода нет.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Record is one purchase-of-credit attempt. The id doubles as the
// cross-system correlation token: it is handed to the payment provider at
// checkout creation and comes back in webhook events as request_id, and it
// is the idempotency key for the eventual ledger credit.
type Record struct {
	ID          string    `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Status      Status    `db:"status" json:"status"`
	PaymentID   string    `db:"payment_id" json:"payment_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}
