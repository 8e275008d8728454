package storage

import (
	"fmt"
	"strings"

	"flightstats/pkg/contracts/domain"
)

// Physical table names.
const (
	FlightsTable = "voos"
	stagingTable = "voos_staging"
)

// Column is one physical column of the canonical relation.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// Columns is the physical schema, in insert order. It mirrors the canonical
// record field for field; only the optional geographic columns are nullable.
var Columns = []Column{
	{Name: "empresa_sigla", Type: "TEXT"},
	{Name: "empresa_nome", Type: "TEXT"},
	{Name: "empresa_nacionalidade", Type: "TEXT"},
	{Name: "ano", Type: "INTEGER"},
	{Name: "mes", Type: "INTEGER"},
	{Name: "origem_sigla", Type: "TEXT"},
	{Name: "origem_nome", Type: "TEXT"},
	{Name: "origem_uf", Type: "TEXT", Nullable: true},
	{Name: "origem_regiao", Type: "TEXT", Nullable: true},
	{Name: "origem_pais", Type: "TEXT"},
	{Name: "origem_continente", Type: "TEXT"},
	{Name: "destino_sigla", Type: "TEXT"},
	{Name: "destino_nome", Type: "TEXT"},
	{Name: "destino_uf", Type: "TEXT", Nullable: true},
	{Name: "destino_regiao", Type: "TEXT", Nullable: true},
	{Name: "destino_pais", Type: "TEXT"},
	{Name: "destino_continente", Type: "TEXT"},
	{Name: "natureza", Type: "TEXT"},
	{Name: "grupo_voo", Type: "TEXT"},
	{Name: "passageiros_pagos", Type: "INTEGER"},
	{Name: "passageiros_gratis", Type: "INTEGER"},
	{Name: "carga_paga_kg", Type: "REAL"},
	{Name: "carga_gratis_kg", Type: "REAL"},
	{Name: "correio_kg", Type: "REAL"},
	{Name: "ask", Type: "REAL"},
	{Name: "rpk", Type: "REAL"},
	{Name: "atk", Type: "REAL"},
	{Name: "rtk", Type: "REAL"},
	{Name: "combustivel_litros", Type: "REAL"},
	{Name: "distancia_voada_km", Type: "REAL"},
	{Name: "decolagens", Type: "INTEGER"},
	{Name: "carga_paga_km", Type: "REAL"},
	{Name: "carga_gratis_km", Type: "REAL"},
	{Name: "correio_km", Type: "REAL"},
	{Name: "assentos", Type: "INTEGER"},
	{Name: "payload", Type: "REAL"},
	{Name: "horas_voadas", Type: "REAL"},
	{Name: "bagagem_kg", Type: "REAL"},
}

var indexes = []struct{ name, columns string }{
	{"idx_voos_empresa", "empresa_sigla, empresa_nome"},
	{"idx_voos_periodo", "ano, mes"},
	{"idx_voos_origem", "origem_sigla"},
	{"idx_voos_destino", "destino_sigla"},
	{"idx_voos_origem_pais", "origem_pais"},
	{"idx_voos_destino_pais", "destino_pais"},
}

func createTableSQL(table string) string {
	defs := make([]string, len(Columns))
	for i, c := range Columns {
		def := c.Name + " " + c.Type
		if !c.Nullable {
			def += " NOT NULL"
		}
		if c.Type != "TEXT" && !c.Nullable {
			def += fmt.Sprintf(" CHECK (%s >= 0)", c.Name)
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n) STRICT", table, strings.Join(defs, ",\n\t"))
}

func insertSQL(table string) string {
	names := make([]string, len(Columns))
	marks := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(marks, ", "))
}

func columnList() string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// recordValues returns r in Columns order.
func recordValues(r domain.FlightRecord) []interface{} {
	return []interface{}{
		r.AirlineCode, r.AirlineName, r.AirlineNationality,
		r.Year, r.Month,
		r.Origin.Code, r.Origin.Name, nullable(r.Origin.State), nullable(r.Origin.Region),
		r.Origin.Country, r.Origin.Continent,
		r.Destination.Code, r.Destination.Name, nullable(r.Destination.State), nullable(r.Destination.Region),
		r.Destination.Country, r.Destination.Continent,
		r.Nature, r.FlightGroup,
		r.PaidPassengers, r.FreePassengers,
		r.PaidCargoKg, r.FreeCargoKg, r.MailKg,
		r.ASK, r.RPK, r.ATK, r.RTK,
		r.FuelLiters, r.DistanceKm, r.Takeoffs,
		r.PaidCargoKm, r.FreeCargoKm, r.MailKm,
		r.Seats, r.Payload, r.FlightHours, r.BaggageKg,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s rowScanner) (domain.FlightRecord, error) {
	var r domain.FlightRecord
	err := s.Scan(
		&r.AirlineCode, &r.AirlineName, &r.AirlineNationality,
		&r.Year, &r.Month,
		&r.Origin.Code, &r.Origin.Name, &r.Origin.State, &r.Origin.Region,
		&r.Origin.Country, &r.Origin.Continent,
		&r.Destination.Code, &r.Destination.Name, &r.Destination.State, &r.Destination.Region,
		&r.Destination.Country, &r.Destination.Continent,
		&r.Nature, &r.FlightGroup,
		&r.PaidPassengers, &r.FreePassengers,
		&r.PaidCargoKg, &r.FreeCargoKg, &r.MailKg,
		&r.ASK, &r.RPK, &r.ATK, &r.RTK,
		&r.FuelLiters, &r.DistanceKm, &r.Takeoffs,
		&r.PaidCargoKm, &r.FreeCargoKm, &r.MailKm,
		&r.Seats, &r.Payload, &r.FlightHours, &r.BaggageKg,
	)
	return r, err
}

// SelectList is the column list in canonical order, for SELECTs whose rows
// are read back with ScanRecord.
func SelectList() string { return columnList() }

// ScanRecord reads one row selected with SelectList.
func ScanRecord(s interface{ Scan(dest ...interface{}) error }) (domain.FlightRecord, error) {
	return scanRecord(s)
}
