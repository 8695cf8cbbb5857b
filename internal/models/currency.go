package models

import "strings"

type Currency struct {
	Code   string  `json:"code"`
	Symbol string  `json:"symbol"`
	Rate   float64 `json:"rate"`
}

// Taux fixes par rapport à l'unité de base (USD).
var Currencies = map[string]Currency{
	"USD": {Code: "USD", Symbol: "$", Rate: 1},
	"EUR": {Code: "EUR", Symbol: "€", Rate: 0.85},
	"GBP": {Code: "GBP", Symbol: "£", Rate: 0.73},
	"CAD": {Code: "CAD", Symbol: "C$", Rate: 1.25},
	"AUD": {Code: "AUD", Symbol: "A$", Rate: 1.35},
}

var CountryCurrency = map[string]string{
	"US": "USD",
	"CA": "CAD",
	"GB": "GBP",
	"AU": "AUD",
	"DE": "EUR",
	"FR": "EUR",
	"IT": "EUR",
	"ES": "EUR",
	"NL": "EUR",
}

// LookupCurrency retrouve une devise par son code (insensible à la casse).
func LookupCurrency(code string) (Currency, bool) {
	c, ok := Currencies[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// CurrencyForCountry mappe un code pays vers sa devise d'affichage.
func CurrencyForCountry(countryCode string) (Currency, bool) {
	code, ok := CountryCurrency[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		return Currency{}, false
	}
	return LookupCurrency(code)
}
