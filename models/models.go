package models

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&CustomerProfile{},
		&TailorProfile{},
		&AdminProfile{},
		&TailorReview{},
		&Measurement{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&Payment{},
		&DeliveryTracking{},
		&Conversation{},
		&Message{},
		&Dispute{},
		&DisputeMessage{},
	}
}
