// model/vehicle.go
package model

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
	VehicleRetired     VehicleStatus = "RETIRED"
)

// Vehicle is owned by the catalog; the booking core only needs identity
// and whether the vehicle can be booked at all.
type Vehicle struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Status   VehicleStatus `json:"status"`
}

func (v *Vehicle) Biddable() bool { return v.Status == VehicleAvailable }
