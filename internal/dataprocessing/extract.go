package dataprocessing

import (
	"strconv"
	"strings"

	"flightstats/pkg/contracts/domain"
)

// ExtractHeader returns the source header of the canonical dictionary in
// schema order. Writing ExtractHeader and ExtractCells with a ';' delimiter
// produces a file the pipeline reads back to the same records.
func ExtractHeader() []string {
	header := make([]string, len(CanonicalSchema))
	for i, f := range CanonicalSchema {
		header[i] = f.Header
	}
	return header
}

// ExtractCells renders r in schema order. Reals use a '.' decimal mark and
// no grouping; absent optional fields are empty.
func ExtractCells(r domain.FlightRecord) []string {
	cells := make([]string, len(CanonicalSchema))
	for i, f := range CanonicalSchema {
		cells[i] = cellValue(r, f)
	}
	return cells
}

// ExtractCellsWith renders r like ExtractCells but with the decimal mark of
// policy, so the cells read back under that policy. Only DecimalComma
// differs from ExtractCells.
func ExtractCellsWith(r domain.FlightRecord, policy DecimalPolicy) []string {
	cells := ExtractCells(r)
	if policy != DecimalComma {
		return cells
	}
	for i, f := range CanonicalSchema {
		if f.Kind == KindReal {
			cells[i] = strings.Replace(cells[i], ".", ",", 1)
		}
	}
	return cells
}

func cellValue(r domain.FlightRecord, f FieldSpec) string {
	if f.Group == GroupOptionalGeo {
		if v := optionalGetters[f.Name](r); v != nil {
			return *v
		}
		return ""
	}
	switch f.Kind {
	case KindInt:
		return strconv.FormatInt(intGetters[f.Name](r), 10)
	case KindReal:
		return strconv.FormatFloat(realGetters[f.Name](r), 'f', -1, 64)
	}
	return textGetters[f.Name](r)
}

var textGetters = map[string]func(domain.FlightRecord) string{
	ColAirlineCode:        func(r domain.FlightRecord) string { return r.AirlineCode },
	ColAirlineName:        func(r domain.FlightRecord) string { return r.AirlineName },
	ColAirlineNationality: func(r domain.FlightRecord) string { return r.AirlineNationality },
	ColOriginCode:         func(r domain.FlightRecord) string { return r.Origin.Code },
	ColOriginName:         func(r domain.FlightRecord) string { return r.Origin.Name },
	ColOriginCountry:      func(r domain.FlightRecord) string { return r.Origin.Country },
	ColOriginContinent:    func(r domain.FlightRecord) string { return r.Origin.Continent },
	ColDestCode:           func(r domain.FlightRecord) string { return r.Destination.Code },
	ColDestName:           func(r domain.FlightRecord) string { return r.Destination.Name },
	ColDestCountry:        func(r domain.FlightRecord) string { return r.Destination.Country },
	ColDestContinent:      func(r domain.FlightRecord) string { return r.Destination.Continent },
	ColNature:             func(r domain.FlightRecord) string { return r.Nature },
	ColFlightGroup:        func(r domain.FlightRecord) string { return r.FlightGroup },
}

var optionalGetters = map[string]func(domain.FlightRecord) *string{
	ColOriginState:  func(r domain.FlightRecord) *string { return r.Origin.State },
	ColOriginRegion: func(r domain.FlightRecord) *string { return r.Origin.Region },
	ColDestState:    func(r domain.FlightRecord) *string { return r.Destination.State },
	ColDestRegion:   func(r domain.FlightRecord) *string { return r.Destination.Region },
}

var intGetters = map[string]func(domain.FlightRecord) int64{
	ColYear:           func(r domain.FlightRecord) int64 { return int64(r.Year) },
	ColMonth:          func(r domain.FlightRecord) int64 { return int64(r.Month) },
	ColPaidPassengers: func(r domain.FlightRecord) int64 { return r.PaidPassengers },
	ColFreePassengers: func(r domain.FlightRecord) int64 { return r.FreePassengers },
	ColTakeoffs:       func(r domain.FlightRecord) int64 { return r.Takeoffs },
	ColSeats:          func(r domain.FlightRecord) int64 { return r.Seats },
}

var realGetters = map[string]func(domain.FlightRecord) float64{
	ColPaidCargoKg: func(r domain.FlightRecord) float64 { return r.PaidCargoKg },
	ColFreeCargoKg: func(r domain.FlightRecord) float64 { return r.FreeCargoKg },
	ColMailKg:      func(r domain.FlightRecord) float64 { return r.MailKg },
	ColBaggageKg:   func(r domain.FlightRecord) float64 { return r.BaggageKg },
	ColASK:         func(r domain.FlightRecord) float64 { return r.ASK },
	ColRPK:         func(r domain.FlightRecord) float64 { return r.RPK },
	ColATK:         func(r domain.FlightRecord) float64 { return r.ATK },
	ColRTK:         func(r domain.FlightRecord) float64 { return r.RTK },
	ColFuelLiters:  func(r domain.FlightRecord) float64 { return r.FuelLiters },
	ColDistanceKm:  func(r domain.FlightRecord) float64 { return r.DistanceKm },
	ColPayload:     func(r domain.FlightRecord) float64 { return r.Payload },
	ColFlightHours: func(r domain.FlightRecord) float64 { return r.FlightHours },
	ColPaidCargoKm: func(r domain.FlightRecord) float64 { return r.PaidCargoKm },
	ColFreeCargoKm: func(r domain.FlightRecord) float64 { return r.FreeCargoKm },
	ColMailKm:      func(r domain.FlightRecord) float64 { return r.MailKm },
}
