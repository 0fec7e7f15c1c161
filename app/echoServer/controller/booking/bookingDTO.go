package booking

type InsuranceReq struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

type ExtraReq struct {
	ID    string  `json:"id" validate:"required"`
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

type CreateBookingReq struct {
	VehicleID      int64         `json:"vehicle_id" validate:"required,gt=0"`
	StartDate      string        `json:"start_date" validate:"required"`
	EndDate        string        `json:"end_date" validate:"required"`
	PickupLocation string        `json:"pickup_location" validate:"required"`
	ReturnLocation string        `json:"return_location" validate:"required"`
	TotalPrice     float64       `json:"total_price" validate:"gte=0"`
	Insurance      *InsuranceReq `json:"insurance,omitempty"`
	Extras         []ExtraReq    `json:"extras,omitempty" validate:"dive"`
	PaymentMethod  string        `json:"payment_method"`
}

type UpdateStatusReq struct {
	Status string `json:"status" validate:"required"`
}
