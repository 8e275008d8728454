package dataprocessing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SchemaVersion identifies the header dictionary below. It is reported with
// every ingestion so operators can tell which layout a snapshot was read with.
const SchemaVersion = "resumo-anual/2025.1"

// FieldKind is the semantic type a source column is coerced to.
type FieldKind int

const (
	KindText FieldKind = iota
	KindInt
	KindReal
)

func (k FieldKind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindReal:
		return "real"
	default:
		return "text"
	}
}

// FieldGroup separates fields that must be present from the optional
// geographic subdivision columns.
type FieldGroup int

const (
	GroupRequired FieldGroup = iota
	GroupOptionalGeo
)

// FieldSpec is one entry of the canonical dictionary.
type FieldSpec struct {
	Name    string
	Header  string
	Aliases []string
	Kind    FieldKind
	Group   FieldGroup
}

// Canonical column names. They double as physical column names in storage.
const (
	ColAirlineCode        = "empresa_sigla"
	ColAirlineName        = "empresa_nome"
	ColAirlineNationality = "empresa_nacionalidade"
	ColYear               = "ano"
	ColMonth              = "mes"
	ColOriginCode         = "origem_sigla"
	ColOriginName         = "origem_nome"
	ColOriginState        = "origem_uf"
	ColOriginRegion       = "origem_regiao"
	ColOriginCountry      = "origem_pais"
	ColOriginContinent    = "origem_continente"
	ColDestCode           = "destino_sigla"
	ColDestName           = "destino_nome"
	ColDestState          = "destino_uf"
	ColDestRegion         = "destino_regiao"
	ColDestCountry        = "destino_pais"
	ColDestContinent      = "destino_continente"
	ColNature             = "natureza"
	ColFlightGroup        = "grupo_voo"
	ColPaidPassengers     = "passageiros_pagos"
	ColFreePassengers     = "passageiros_gratis"
	ColPaidCargoKg        = "carga_paga_kg"
	ColFreeCargoKg        = "carga_gratis_kg"
	ColMailKg             = "correio_kg"
	ColASK                = "ask"
	ColRPK                = "rpk"
	ColATK                = "atk"
	ColRTK                = "rtk"
	ColFuelLiters         = "combustivel_litros"
	ColDistanceKm         = "distancia_voada_km"
	ColTakeoffs           = "decolagens"
	ColPaidCargoKm        = "carga_paga_km"
	ColFreeCargoKm        = "carga_gratis_km"
	ColMailKm             = "correio_km"
	ColSeats              = "assentos"
	ColPayload            = "payload"
	ColFlightHours        = "horas_voadas"
	ColBaggageKg          = "bagagem_kg"
)

// CanonicalSchema is the header dictionary of the annual summary extract,
// in physical column order.
var CanonicalSchema = []FieldSpec{
	{Name: ColAirlineCode, Header: "EMPRESA (SIGLA)", Kind: KindText},
	{Name: ColAirlineName, Header: "EMPRESA (NOME)", Kind: KindText},
	{Name: ColAirlineNationality, Header: "EMPRESA (NACIONALIDADE)", Kind: KindText},
	{Name: ColYear, Header: "ANO", Kind: KindInt},
	{Name: ColMonth, Header: "MÊS", Kind: KindInt},
	{Name: ColOriginCode, Header: "AEROPORTO DE ORIGEM (SIGLA)", Kind: KindText},
	{Name: ColOriginName, Header: "AEROPORTO DE ORIGEM (NOME)", Kind: KindText},
	{Name: ColOriginState, Header: "AEROPORTO DE ORIGEM (UF)", Kind: KindText, Group: GroupOptionalGeo},
	{Name: ColOriginRegion, Header: "AEROPORTO DE ORIGEM (REGIÃO)", Kind: KindText, Group: GroupOptionalGeo},
	{Name: ColOriginCountry, Header: "AEROPORTO DE ORIGEM (PAÍS)", Kind: KindText},
	{Name: ColOriginContinent, Header: "AEROPORTO DE ORIGEM (CONTINENTE)", Kind: KindText},
	{Name: ColDestCode, Header: "AEROPORTO DE DESTINO (SIGLA)", Kind: KindText},
	{Name: ColDestName, Header: "AEROPORTO DE DESTINO (NOME)", Kind: KindText},
	{Name: ColDestState, Header: "AEROPORTO DE DESTINO (UF)", Kind: KindText, Group: GroupOptionalGeo},
	{Name: ColDestRegion, Header: "AEROPORTO DE DESTINO (REGIÃO)", Kind: KindText, Group: GroupOptionalGeo},
	{Name: ColDestCountry, Header: "AEROPORTO DE DESTINO (PAÍS)", Kind: KindText},
	{Name: ColDestContinent, Header: "AEROPORTO DE DESTINO (CONTINENTE)", Kind: KindText},
	{Name: ColNature, Header: "NATUREZA", Kind: KindText},
	{Name: ColFlightGroup, Header: "GRUPO DE VOO", Kind: KindText},
	{Name: ColPaidPassengers, Header: "PASSAGEIROS PAGOS", Kind: KindInt},
	{Name: ColFreePassengers, Header: "PASSAGEIROS GRÁTIS", Kind: KindInt},
	{Name: ColPaidCargoKg, Header: "CARGA PAGA (KG)", Kind: KindReal},
	{Name: ColFreeCargoKg, Header: "CARGA GRÁTIS (KG)", Kind: KindReal},
	{Name: ColMailKg, Header: "CORREIO (KG)", Kind: KindReal},
	{Name: ColASK, Header: "ASK", Kind: KindReal},
	{Name: ColRPK, Header: "RPK", Kind: KindReal},
	{Name: ColATK, Header: "ATK", Kind: KindReal},
	{Name: ColRTK, Header: "RTK", Kind: KindReal},
	{Name: ColFuelLiters, Header: "COMBUSTÍVEL (LITROS)", Kind: KindReal},
	{Name: ColDistanceKm, Header: "DISTÂNCIA VOADA (KM)", Kind: KindReal},
	{Name: ColTakeoffs, Header: "DECOLAGENS", Kind: KindInt},
	{Name: ColPaidCargoKm, Header: "CARGA PAGA KM", Aliases: []string{"CARGA PAGA (KM)"}, Kind: KindReal},
	{Name: ColFreeCargoKm, Header: "CARGA GRATIS KM", Aliases: []string{"CARGA GRÁTIS (KM)"}, Kind: KindReal},
	{Name: ColMailKm, Header: "CORREIO KM", Aliases: []string{"CORREIO (KM)"}, Kind: KindReal},
	{Name: ColSeats, Header: "ASSENTOS", Kind: KindInt},
	{Name: ColPayload, Header: "PAYLOAD", Kind: KindReal},
	{Name: ColFlightHours, Header: "HORAS VOADAS", Kind: KindReal},
	{Name: ColBaggageKg, Header: "BAGAGEM (KG)", Kind: KindReal},
}

// LookupField returns the dictionary entry for a canonical name.
func LookupField(name string) (FieldSpec, bool) {
	for _, f := range CanonicalSchema {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// NormalizeHeader folds a header cell to the form used for dictionary
// lookups: BOM removed, accents stripped, upper case, single spaces.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}
