package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Location{},
		&Supplier{},
		&Brand{},
		&Table{},
		&MenuItem{},
		&StockMovement{},
		&Order{},
		&OrderItem{},
	}
}
