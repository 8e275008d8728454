package testutil

import "flightstats/pkg/contracts/domain"

// Flight returns a valid canonical record. Callers adjust fields through opts.
func Flight(opts ...func(*domain.FlightRecord)) domain.FlightRecord {
	r := domain.FlightRecord{
		AirlineCode:        "AAA",
		AirlineName:        "COMPANY A",
		AirlineNationality: "BRASILEIRA",
		Year:               2025,
		Month:              1,
		Origin: domain.Airport{
			Code: "SBGR", Name: "GUARULHOS", Country: "BRASIL", Continent: "AMÉRICA DO SUL",
		},
		Destination: domain.Airport{
			Code: "SBRJ", Name: "SANTOS DUMONT", Country: "BRASIL", Continent: "AMÉRICA DO SUL",
		},
		Nature:         "DOMÉSTICA",
		FlightGroup:    "REGULAR",
		PaidPassengers: 100,
		FreePassengers: 10,
		ASK:            1000,
		RPK:            500,
		FuelLiters:     3000,
		DistanceKm:     350,
		Takeoffs:       4,
		Seats:          180,
		FlightHours:    5.5,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// ScenarioFlights is the reference data set used across packages:
// CompanyA flies 150 passengers over two months, CompanyB 20 in January.
func ScenarioFlights() []domain.FlightRecord {
	return []domain.FlightRecord{
		Flight(),
		Flight(func(r *domain.FlightRecord) {
			r.Month = 2
			r.PaidPassengers, r.FreePassengers = 50, 5
			r.ASK, r.RPK = 500, 250
			r.FuelLiters, r.DistanceKm = 1000, 350
		}),
		Flight(func(r *domain.FlightRecord) {
			r.AirlineCode, r.AirlineName = "BBB", "COMPANY B"
			r.AirlineNationality = "ESTRANGEIRA"
			r.PaidPassengers, r.FreePassengers = 20, 0
			r.ASK, r.RPK = 200, 0
			r.Nature = "INTERNACIONAL"
			r.Destination = domain.Airport{Code: "KMIA", Name: "MIAMI", Country: "ESTADOS UNIDOS", Continent: "AMÉRICA DO NORTE"}
			r.FuelLiters, r.DistanceKm = 0, 0
			r.Takeoffs = 1
			r.FlightHours = 8
		}),
	}
}

// StringPtr returns a pointer to s for optional record fields.
func StringPtr(s string) *string { return &s }
