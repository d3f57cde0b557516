package checkout

// Status is the checkout session state.
type Status string

const (
	StatusCollectingShipping Status = "COLLECTING_SHIPPING"
	StatusValidating         Status = "VALIDATING"
	StatusOrderCreated       Status = "ORDER_CREATED"
	StatusAwaitingPayment    Status = "AWAITING_PAYMENT"
	StatusCompleted          Status = "COMPLETED"
	StatusPaymentFailed      Status = "PAYMENT_FAILED"
)

// transitions is the full set of legal moves. Payment failure returns to
// AwaitingPayment for retry, never back to shipping; a validation failure
// returns to CollectingShipping.
var transitions = map[Status][]Status{
	StatusCollectingShipping: {StatusValidating},
	StatusValidating:         {StatusCollectingShipping, StatusOrderCreated},
	StatusOrderCreated:       {StatusAwaitingPayment},
	StatusAwaitingPayment:    {StatusCompleted, StatusPaymentFailed},
	StatusPaymentFailed:      {StatusAwaitingPayment},
}

// CanTransitionTo reports whether moving from one status to another is
// legal.
func CanTransitionTo(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session is finished.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

func (s Status) String() string {
	return string(s)
}
