package models

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderServed    OrderStatus = "SERVED"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// happyPath is the linear progression of an order.
var happyPath = []OrderStatus{OrderPending, OrderPreparing, OrderReady, OrderServed, OrderPaid}

// ActiveOrderStatuses are the non-terminal statuses that keep a table busy.
var ActiveOrderStatuses = []OrderStatus{OrderPending, OrderPreparing, OrderReady, OrderServed}

func (s OrderStatus) Valid() bool {
	return s == OrderCancelled || s.rank() >= 0
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderPaid || s == OrderCancelled
}

func (s OrderStatus) rank() int {
	for i, st := range happyPath {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo allows forward moves along the happy path (skipping steps
// is fine) and cancellation of any non-terminal order.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return next.rank() > s.rank()
}
