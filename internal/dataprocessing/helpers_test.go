package dataprocessing

import (
	"strings"
)

// validCells returns a complete, valid row keyed by canonical name.
func validCells() map[string]string {
	return map[string]string{
		ColAirlineCode:        "AAA",
		ColAirlineName:        "COMPANY A",
		ColAirlineNationality: "BRASILEIRA",
		ColYear:               "2025",
		ColMonth:              "1",
		ColOriginCode:         "SBGR",
		ColOriginName:         "GUARULHOS",
		ColOriginState:        "SP",
		ColOriginRegion:       "SUDESTE",
		ColOriginCountry:      "BRASIL",
		ColOriginContinent:    "AMÉRICA DO SUL",
		ColDestCode:           "SBRJ",
		ColDestName:           "SANTOS DUMONT",
		ColDestState:          "RJ",
		ColDestRegion:         "SUDESTE",
		ColDestCountry:        "BRASIL",
		ColDestContinent:      "AMÉRICA DO SUL",
		ColNature:             "DOMÉSTICA",
		ColFlightGroup:        "REGULAR",
		ColPaidPassengers:     "100",
		ColFreePassengers:     "10",
		ColPaidCargoKg:        "1500,5",
		ColFreeCargoKg:        "0",
		ColMailKg:             "12.25",
		ColASK:                "1000",
		ColRPK:                "500",
		ColATK:                "90,5",
		ColRTK:                "40",
		ColFuelLiters:         "3000",
		ColDistanceKm:         "350",
		ColTakeoffs:           "4",
		ColPaidCargoKm:        "10",
		ColFreeCargoKm:        "0",
		ColMailKm:             "1",
		ColSeats:              "180",
		ColPayload:            "20000",
		ColFlightHours:        "5,5",
		ColBaggageKg:          "800",
	}
}

// sourceHeader returns the extract headers in dictionary order, optionally
// without the optional geographic group.
func sourceHeader(withGeo bool) []string {
	var out []string
	for _, f := range CanonicalSchema {
		if f.Group == GroupOptionalGeo && !withGeo {
			continue
		}
		out = append(out, f.Header)
	}
	return out
}

func rowFor(withGeo bool, cells map[string]string) []string {
	var out []string
	for _, f := range CanonicalSchema {
		if f.Group == GroupOptionalGeo && !withGeo {
			continue
		}
		out = append(out, cells[f.Name])
	}
	return out
}

func with(overrides map[string]string) map[string]string {
	cells := validCells()
	for k, v := range overrides {
		cells[k] = v
	}
	return cells
}

// extractText renders a semicolon separated extract.
func extractText(withGeo bool, rows ...map[string]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(sourceHeader(withGeo), ";"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(strings.Join(rowFor(withGeo, r), ";"))
		b.WriteString("\n")
	}
	return b.String()
}

// utf8Options reads test extracts written as Go (UTF-8) strings.
var utf8Options = ReaderOptions{Delimiter: ";", Encoding: "utf-8"}
