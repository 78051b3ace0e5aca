package webhook

// Provider event kinds this ledger cares about. Anything else is
// acknowledged and dropped, never coerced into a completion.
const (
	EventCheckoutCompleted = "checkout.completed"

	BillingTypeOnetime   = "onetime"
	BillingTypeRecurring = "recurring"
)

type Event struct {
	EventType string      `json:"event_type" binding:"required"`
	Object    EventObject `json:"object"`
}

type EventObject struct {
	// RequestID carries back the recharge record id we tagged the checkout
	// session with.
	RequestID string       `json:"request_id"`
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Product   EventProduct `json:"product"`
}

type EventProduct struct {
	BillingType string `json:"billing_type"`
}

// Relevant reports whether the event can drive a recharge transition.
// Subscription billing is settled by the provider directly and never touches
// this ledger.
func (e *Event) Relevant() bool {
	if e.EventType != EventCheckoutCompleted {
		return false
	}
	if e.Object.Product.BillingType == BillingTypeRecurring {
		return false
	}
	return true
}
