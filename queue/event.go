// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published after a booking commits. Consumers can
// notify, log or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     int64   `json:"booking_id"`
	UserID        int64   `json:"user_id"`
	VehicleID     int64   `json:"vehicle_id"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TotalPrice    float64 `json:"total_price"`
	PointsEarned  int64   `json:"points_earned"`
	TransactionID string  `json:"transaction_id"`
	ConfirmedAt   string  `json:"confirmed_at"`
}

// LoyaltyDriftEvent is published when reconciliation finds the denormalized
// balance out of sync with the ledger sum. It is the operational alert the
// accrual contract calls for.
type LoyaltyDriftEvent struct {
	UserID     int64  `json:"user_id"`
	Stored     int64  `json:"stored_balance"`
	Computed   int64  `json:"ledger_balance"`
	Repaired   bool   `json:"repaired"`
	DetectedAt string `json:"detected_at"`
}
