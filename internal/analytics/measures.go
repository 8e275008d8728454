package analytics

import (
	"fmt"
	"sort"
	"strings"
)

// Measure names a summable column expression or a ratio of two of them.
type Measure string

const (
	MeasurePassengers     Measure = "passengers"
	MeasurePaidPassengers Measure = "paid_passengers"
	MeasureFreePassengers Measure = "free_passengers"
	MeasureCargo          Measure = "cargo_kg"
	MeasureMail           Measure = "mail_kg"
	MeasureBaggage        Measure = "baggage_kg"
	MeasureFuel           Measure = "fuel_liters"
	MeasureDistance       Measure = "distance_km"
	MeasureTakeoffs       Measure = "takeoffs"
	MeasureFlightHours    Measure = "flight_hours"
	MeasureFlights        Measure = "flights"
	MeasureSeats          Measure = "seats"
	MeasurePayload        Measure = "payload"
	MeasureASK            Measure = "ask"
	MeasureRPK            Measure = "rpk"
	MeasureATK            Measure = "atk"
	MeasureRTK            Measure = "rtk"

	MeasureOccupancy          Measure = "occupancy_rate"
	MeasureFuelPerKm          Measure = "fuel_per_km"
	MeasurePassengersPerLiter Measure = "passengers_per_liter"
	MeasureFuelPerHour        Measure = "fuel_per_flight_hour"
	MeasureFuelPerTakeoff     Measure = "fuel_per_takeoff"
	MeasureCargoPerKm         Measure = "cargo_per_km"
)

var sumExpr = map[Measure]string{
	MeasurePassengers:     "passageiros_pagos + passageiros_gratis",
	MeasurePaidPassengers: "passageiros_pagos",
	MeasureFreePassengers: "passageiros_gratis",
	MeasureCargo:          "carga_paga_kg + carga_gratis_kg",
	MeasureMail:           "correio_kg",
	MeasureBaggage:        "bagagem_kg",
	MeasureFuel:           "combustivel_litros",
	MeasureDistance:       "distancia_voada_km",
	MeasureTakeoffs:       "decolagens",
	MeasureFlightHours:    "horas_voadas",
	MeasureFlights:        "1",
	MeasureSeats:          "assentos",
	MeasurePayload:        "payload",
	MeasureASK:            "ask",
	MeasureRPK:            "rpk",
	MeasureATK:            "atk",
	MeasureRTK:            "rtk",
}

type ratioDef struct {
	num, den Measure
	scale    float64
	// ceiling caps the scaled value when non-zero.
	ceiling  float64
}

var ratios = map[Measure]ratioDef{
	MeasureOccupancy:          {num: MeasureRPK, den: MeasureASK, scale: 100, ceiling: 100},
	MeasureFuelPerKm:          {num: MeasureFuel, den: MeasureDistance, scale: 1},
	MeasurePassengersPerLiter: {num: MeasurePassengers, den: MeasureFuel, scale: 1},
	MeasureFuelPerHour:        {num: MeasureFuel, den: MeasureFlightHours, scale: 1},
	MeasureFuelPerTakeoff:     {num: MeasureFuel, den: MeasureTakeoffs, scale: 1},
	MeasureCargoPerKm:         {num: MeasureCargo, den: MeasureDistance, scale: 1},
}

var units = map[Measure]string{
	MeasurePassengers:         "passengers",
	MeasurePaidPassengers:     "passengers",
	MeasureFreePassengers:     "passengers",
	MeasureCargo:              "kg",
	MeasureMail:               "kg",
	MeasureBaggage:            "kg",
	MeasureFuel:               "l",
	MeasureDistance:           "km",
	MeasureTakeoffs:           "takeoffs",
	MeasureFlightHours:        "h",
	MeasureFlights:            "records",
	MeasureSeats:              "seats",
	MeasurePayload:            "kg",
	MeasureASK:                "seat-km",
	MeasureRPK:                "passenger-km",
	MeasureATK:                "ton-km",
	MeasureRTK:                "ton-km",
	MeasureOccupancy:          "%",
	MeasureFuelPerKm:          "l/km",
	MeasurePassengersPerLiter: "passengers/l",
	MeasureFuelPerHour:        "l/h",
	MeasureFuelPerTakeoff:     "l/takeoff",
	MeasureCargoPerKm:         "kg/km",
}

// Valid reports whether m is a known measure.
func (m Measure) Valid() bool {
	_, s := sumExpr[m]
	_, r := ratios[m]
	return s || r
}

// IsRatio reports whether m is computed as a ratio of two sums.
func (m Measure) IsRatio() bool {
	_, ok := ratios[m]
	return ok
}

// Unit returns the display unit of m.
func (m Measure) Unit() string { return units[m] }

// Measures lists every known measure, sorted.
func Measures() []Measure {
	out := make([]Measure, 0, len(sumExpr)+len(ratios))
	for m := range sumExpr {
		out = append(out, m)
	}
	for m := range ratios {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func unknownMeasure(m Measure) error {
	known := make([]string, 0, len(sumExpr)+len(ratios))
	for _, k := range Measures() {
		known = append(known, string(k))
	}
	return fmt.Errorf("%w: %s (known: %s)", ErrUnknownMeasure, m, strings.Join(known, ", "))
}

// terms returns the sum expressions needed to evaluate m: one for a plain
// measure, numerator and denominator for a ratio.
func (m Measure) terms() []string {
	if r, ok := ratios[m]; ok {
		return []string{sumExpr[r.num], sumExpr[r.den]}
	}
	return []string{sumExpr[m]}
}

// Dimension names a grouping key.
type Dimension string

const (
	DimCompany            Dimension = "company"
	DimNationality        Dimension = "nationality"
	DimOriginAirport      Dimension = "origin_airport"
	DimDestinationAirport Dimension = "destination_airport"
	DimOriginCountry      Dimension = "origin_country"
	DimDestinationCountry Dimension = "destination_country"
	DimOriginContinent    Dimension = "origin_continent"
	DimDestContinent      Dimension = "destination_continent"
	DimOriginState        Dimension = "origin_state"
	DimDestinationState   Dimension = "destination_state"
	DimOriginRegion       Dimension = "origin_region"
	DimDestinationRegion  Dimension = "destination_region"
	DimNature             Dimension = "nature"
	DimFlightGroup        Dimension = "flight_group"
)

type dimensionDef struct {
	key   string
	label string
}

var dimensions = map[Dimension]dimensionDef{
	DimCompany:            {key: "empresa_sigla", label: "empresa_nome"},
	DimNationality:        {key: "empresa_nacionalidade"},
	DimOriginAirport:      {key: "origem_sigla", label: "origem_nome"},
	DimDestinationAirport: {key: "destino_sigla", label: "destino_nome"},
	DimOriginCountry:      {key: "origem_pais"},
	DimDestinationCountry: {key: "destino_pais"},
	DimOriginContinent:    {key: "origem_continente"},
	DimDestContinent:      {key: "destino_continente"},
	DimOriginState:        {key: "origem_uf"},
	DimDestinationState:   {key: "destino_uf"},
	DimOriginRegion:       {key: "origem_regiao"},
	DimDestinationRegion:  {key: "destino_regiao"},
	DimNature:             {key: "natureza"},
	DimFlightGroup:        {key: "grupo_voo"},
}

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	_, ok := dimensions[d]
	return ok
}

// Entity names something counted distinctly.
type Entity string

const (
	EntityAirports            Entity = "airports"
	EntityOriginAirports      Entity = "origin_airports"
	EntityDestinationAirports Entity = "destination_airports"
	EntityCountries           Entity = "countries"
	EntityContinents          Entity = "continents"
	EntityCompanies           Entity = "companies"
)

// entityColumns lists the columns whose union of values is counted.
var entityColumns = map[Entity][]string{
	EntityAirports:            {"origem_sigla", "destino_sigla"},
	EntityOriginAirports:      {"origem_sigla"},
	EntityDestinationAirports: {"destino_sigla"},
	EntityCountries:           {"origem_pais", "destino_pais"},
	EntityContinents:          {"origem_continente", "destino_continente"},
	EntityCompanies:           {"empresa_sigla"},
}

// Valid reports whether e is a known entity.
func (e Entity) Valid() bool {
	_, ok := entityColumns[e]
	return ok
}

// Order is the sort direction of a ranking.
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// Aggregation selects how a plain measure is folded per group.
type Aggregation string

const (
	AggSum  Aggregation = "sum"
	AggMean Aggregation = "mean"
)
