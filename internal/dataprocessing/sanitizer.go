package dataprocessing

import (
	"fmt"
	"strings"

	"flightstats/pkg/contracts/domain"
)

// RowRejection explains why a source row was left out of the canonical set.
type RowRejection struct {
	Line    int      `json:"line"`
	Columns []string `json:"columns"`
	Reason  string   `json:"reason"`
}

// Sanitizer coerces mapped rows into canonical records. A row with any
// empty or unparseable required field is rejected as a whole.
type Sanitizer struct {
	fields  *FieldMap
	decimal DecimalPolicy
}

// NewSanitizer binds a sanitizer to a resolved header.
func NewSanitizer(fields *FieldMap, decimal DecimalPolicy) *Sanitizer {
	if decimal == "" {
		decimal = DecimalAuto
	}
	return &Sanitizer{fields: fields, decimal: decimal}
}

// Sanitize converts one row. The returned rejection is nil when the row is kept.
func (s *Sanitizer) Sanitize(line int, cells []string) (domain.FlightRecord, *RowRejection) {
	var (
		rec     domain.FlightRecord
		columns []string
		reasons []string
	)

	for _, f := range CanonicalSchema {
		idx, ok := s.fields.Index(f.Name)
		if !ok {
			continue
		}
		raw := ""
		if idx < len(cells) {
			raw = strings.TrimSpace(cells[idx])
		}

		if f.Group == GroupOptionalGeo {
			if raw != "" {
				v := raw
				optionalSetters[f.Name](&rec, &v)
			}
			continue
		}

		if err := s.assign(&rec, f, raw); err != nil {
			columns = append(columns, f.Name)
			reasons = append(reasons, fmt.Sprintf("%s: %v", f.Name, err))
		}
	}

	if len(columns) == 0 {
		switch {
		case rec.Month < 1 || rec.Month > 12:
			columns = append(columns, ColMonth)
			reasons = append(reasons, fmt.Sprintf("%s: month %d outside 1..12", ColMonth, rec.Month))
		case rec.Year <= 0:
			columns = append(columns, ColYear)
			reasons = append(reasons, fmt.Sprintf("%s: year must be positive", ColYear))
		case rec.RPK > rec.ASK:
			columns = append(columns, ColRPK)
			reasons = append(reasons, fmt.Sprintf("%s: %g exceeds %s %g", ColRPK, rec.RPK, ColASK, rec.ASK))
		}
	}

	if len(columns) > 0 {
		return domain.FlightRecord{}, &RowRejection{
			Line:    line,
			Columns: columns,
			Reason:  strings.Join(reasons, "; "),
		}
	}
	return rec, nil
}

func (s *Sanitizer) assign(rec *domain.FlightRecord, f FieldSpec, raw string) error {
	if raw == "" {
		return errEmpty
	}
	switch f.Kind {
	case KindInt:
		n, err := ParseCount(raw, s.decimal)
		if err != nil {
			return err
		}
		intSetters[f.Name](rec, n)
	case KindReal:
		v, err := ParseReal(raw, s.decimal)
		if err != nil {
			return err
		}
		realSetters[f.Name](rec, v)
	default:
		textSetters[f.Name](rec, raw)
	}
	return nil
}

var textSetters = map[string]func(*domain.FlightRecord, string){
	ColAirlineCode:        func(r *domain.FlightRecord, v string) { r.AirlineCode = v },
	ColAirlineName:        func(r *domain.FlightRecord, v string) { r.AirlineName = v },
	ColAirlineNationality: func(r *domain.FlightRecord, v string) { r.AirlineNationality = v },
	ColOriginCode:         func(r *domain.FlightRecord, v string) { r.Origin.Code = v },
	ColOriginName:         func(r *domain.FlightRecord, v string) { r.Origin.Name = v },
	ColOriginCountry:      func(r *domain.FlightRecord, v string) { r.Origin.Country = v },
	ColOriginContinent:    func(r *domain.FlightRecord, v string) { r.Origin.Continent = v },
	ColDestCode:           func(r *domain.FlightRecord, v string) { r.Destination.Code = v },
	ColDestName:           func(r *domain.FlightRecord, v string) { r.Destination.Name = v },
	ColDestCountry:        func(r *domain.FlightRecord, v string) { r.Destination.Country = v },
	ColDestContinent:      func(r *domain.FlightRecord, v string) { r.Destination.Continent = v },
	ColNature:             func(r *domain.FlightRecord, v string) { r.Nature = v },
	ColFlightGroup:        func(r *domain.FlightRecord, v string) { r.FlightGroup = v },
}

var optionalSetters = map[string]func(*domain.FlightRecord, *string){
	ColOriginState:  func(r *domain.FlightRecord, v *string) { r.Origin.State = v },
	ColOriginRegion: func(r *domain.FlightRecord, v *string) { r.Origin.Region = v },
	ColDestState:    func(r *domain.FlightRecord, v *string) { r.Destination.State = v },
	ColDestRegion:   func(r *domain.FlightRecord, v *string) { r.Destination.Region = v },
}

var intSetters = map[string]func(*domain.FlightRecord, int64){
	ColYear:           func(r *domain.FlightRecord, v int64) { r.Year = int(v) },
	ColMonth:          func(r *domain.FlightRecord, v int64) { r.Month = int(v) },
	ColPaidPassengers: func(r *domain.FlightRecord, v int64) { r.PaidPassengers = v },
	ColFreePassengers: func(r *domain.FlightRecord, v int64) { r.FreePassengers = v },
	ColTakeoffs:       func(r *domain.FlightRecord, v int64) { r.Takeoffs = v },
	ColSeats:          func(r *domain.FlightRecord, v int64) { r.Seats = v },
}

var realSetters = map[string]func(*domain.FlightRecord, float64){
	ColPaidCargoKg: func(r *domain.FlightRecord, v float64) { r.PaidCargoKg = v },
	ColFreeCargoKg: func(r *domain.FlightRecord, v float64) { r.FreeCargoKg = v },
	ColMailKg:      func(r *domain.FlightRecord, v float64) { r.MailKg = v },
	ColBaggageKg:   func(r *domain.FlightRecord, v float64) { r.BaggageKg = v },
	ColASK:         func(r *domain.FlightRecord, v float64) { r.ASK = v },
	ColRPK:         func(r *domain.FlightRecord, v float64) { r.RPK = v },
	ColATK:         func(r *domain.FlightRecord, v float64) { r.ATK = v },
	ColRTK:         func(r *domain.FlightRecord, v float64) { r.RTK = v },
	ColFuelLiters:  func(r *domain.FlightRecord, v float64) { r.FuelLiters = v },
	ColDistanceKm:  func(r *domain.FlightRecord, v float64) { r.DistanceKm = v },
	ColPayload:     func(r *domain.FlightRecord, v float64) { r.Payload = v },
	ColFlightHours: func(r *domain.FlightRecord, v float64) { r.FlightHours = v },
	ColPaidCargoKm: func(r *domain.FlightRecord, v float64) { r.PaidCargoKm = v },
	ColFreeCargoKm: func(r *domain.FlightRecord, v float64) { r.FreeCargoKm = v },
	ColMailKm:      func(r *domain.FlightRecord, v float64) { r.MailKm = v },
}
