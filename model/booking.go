// model/booking.go
package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingActive    BookingStatus = "ACTIVE"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// legalTransitions is the full status machine. Terminal states have no
// outgoing edges; CONFIRMED must pass through ACTIVE before COMPLETED.
var legalTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingActive, BookingCancelled},
	BookingActive:    {BookingCompleted, BookingCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// CanTransition reports whether a status overwrite from -> to is legal.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Insurance struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Extra struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type PaymentInfo struct {
	Status        string `json:"status"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

type Booking struct {
	ID             int64         `json:"id"`
	UserID         int64         `json:"user_id"`
	VehicleID      int64         `json:"vehicle_id"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `json:"end_date"`
	TotalPrice     float64       `json:"total_price"`
	Status         BookingStatus `json:"status"`
	PickupLocation string        `json:"pickup_location"`
	ReturnLocation string        `json:"return_location"`
	Insurance      *Insurance    `json:"insurance,omitempty"`
	Extras         []Extra       `json:"extras,omitempty"`
	Payment        PaymentInfo   `json:"payment"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// BookingDetail is the denormalized view returned to callers: the raw row
// plus resolved vehicle and user references.
type BookingDetail struct {
	Booking
	VehicleName     string `json:"vehicle_name"`
	VehicleCategory string `json:"vehicle_category"`
	UserFirstName   string `json:"user_first_name"`
	UserLastName    string `json:"user_last_name"`
	UserEmail       string `json:"user_email"`
}
