package domain

// Airport is one end of a route as reported in the extract.
// State and Region belong to the optional geographic group and are nil
// when the source does not carry them.
type Airport struct {
	Code      string  `json:"code" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Country   string  `json:"country" validate:"required"`
	Continent string  `json:"continent" validate:"required"`
	State     *string `json:"state,omitempty"`
	Region    *string `json:"region,omitempty"`
}

// FlightRecord is the canonical unit of storage: one airline, route, month
// and flight nature combination with its traffic, cargo and operational measures.
type FlightRecord struct {
	AirlineCode        string `json:"airline_code" validate:"required"`
	AirlineName        string `json:"airline_name" validate:"required"`
	AirlineNationality string `json:"airline_nationality" validate:"required"`

	Year  int `json:"year" validate:"required,gt=0"`
	Month int `json:"month" validate:"required,min=1,max=12"`

	Origin      Airport `json:"origin"`
	Destination Airport `json:"destination"`

	Nature      string `json:"nature" validate:"required"`
	FlightGroup string `json:"flight_group" validate:"required"`

	PaidPassengers int64 `json:"paid_passengers" validate:"min=0"`
	FreePassengers int64 `json:"free_passengers" validate:"min=0"`

	PaidCargoKg float64 `json:"paid_cargo_kg" validate:"min=0"`
	FreeCargoKg float64 `json:"free_cargo_kg" validate:"min=0"`
	MailKg      float64 `json:"mail_kg" validate:"min=0"`
	BaggageKg   float64 `json:"baggage_kg" validate:"min=0"`

	ASK float64 `json:"ask" validate:"min=0"`
	RPK float64 `json:"rpk" validate:"min=0"`
	ATK float64 `json:"atk" validate:"min=0"`
	RTK float64 `json:"rtk" validate:"min=0"`

	FuelLiters  float64 `json:"fuel_liters" validate:"min=0"`
	DistanceKm  float64 `json:"distance_km" validate:"min=0"`
	Takeoffs    int64   `json:"takeoffs" validate:"min=0"`
	Seats       int64   `json:"seats" validate:"min=0"`
	Payload     float64 `json:"payload" validate:"min=0"`
	FlightHours float64 `json:"flight_hours" validate:"min=0"`
	PaidCargoKm float64 `json:"paid_cargo_km" validate:"min=0"`
	FreeCargoKm float64 `json:"free_cargo_km" validate:"min=0"`
	MailKm      float64 `json:"mail_km" validate:"min=0"`
}

// Passengers returns paid plus free passengers.
func (r FlightRecord) Passengers() int64 {
	return r.PaidPassengers + r.FreePassengers
}

// SnapshotInfo describes the canonical relation currently visible to readers.
type SnapshotInfo struct {
	RunID         string `json:"run_id"`
	Source        string `json:"source"`
	SchemaVersion string `json:"schema_version"`
	TotalRows     int    `json:"total_rows"`
	RetainedRows  int    `json:"retained_rows"`
	DroppedRows   int    `json:"dropped_rows"`
	Checksum      string `json:"checksum"`
	LoadedAt      string `json:"loaded_at"`
}
