package validator

import "regexp"

// CountryVATRates lists the standard VAT rate percentages per ISO 3166-1
// alpha-2 country. Data, not logic: replace per deployment as jurisdictions
// change their rates.
var CountryVATRates = map[string][]float64{
	"AT": {20, 10, 13},
	"BE": {21, 12, 6},
	"BG": {20, 9},
	"CY": {19, 9, 5},
	"CZ": {21, 15, 10},
	"DE": {19, 7},
	"DK": {25},
	"EE": {22, 9},
	"ES": {21, 10, 4},
	"FI": {24, 14, 10},
	"FR": {20, 10, 5.5},
	"GR": {24, 13, 6},
	"HR": {25, 13, 5},
	"HU": {27, 18, 5},
	"IE": {23, 13.5, 9},
	"IT": {22, 10, 5},
	"LT": {21, 9, 5},
	"LU": {17, 14, 8},
	"LV": {21, 12, 5},
	"MT": {18, 7, 5},
	"NL": {21, 9},
	"PL": {23, 8, 5},
	"PT": {23, 13, 6},
	"RO": {19, 9, 5},
	"SE": {25, 12, 6},
	"SI": {22, 9.5},
	"SK": {20, 10},
	"GB": {20, 5},
	"CH": {8.1, 2.6},
	"NO": {25, 15, 12},
}

// VATIDPatterns maps a country prefix to the expected VAT identifier format.
// Greek VAT IDs use the EL prefix rather than GR.
var VATIDPatterns = map[string]*regexp.Regexp{
	"AT": regexp.MustCompile(`^ATU\d{8}$`),
	"BE": regexp.MustCompile(`^BE[01]\d{9}$`),
	"BG": regexp.MustCompile(`^BG\d{9,10}$`),
	"CY": regexp.MustCompile(`^CY\d{8}[A-Z]$`),
	"CZ": regexp.MustCompile(`^CZ\d{8,10}$`),
	"DE": regexp.MustCompile(`^DE\d{9}$`),
	"DK": regexp.MustCompile(`^DK\d{8}$`),
	"EE": regexp.MustCompile(`^EE\d{9}$`),
	"ES": regexp.MustCompile(`^ES[A-Z0-9]\d{7}[A-Z0-9]$`),
	"FI": regexp.MustCompile(`^FI\d{8}$`),
	"FR": regexp.MustCompile(`^FR[A-Z0-9]{2}\d{9}$`),
	"GB": regexp.MustCompile(`^GB(\d{9}|\d{12}|(GD|HA)\d{3})$`),
	"EL": regexp.MustCompile(`^EL\d{9}$`),
	"HR": regexp.MustCompile(`^HR\d{11}$`),
	"HU": regexp.MustCompile(`^HU\d{8}$`),
	"IE": regexp.MustCompile(`^IE\d{7}[A-Z]{1,2}$`),
	"IT": regexp.MustCompile(`^IT\d{11}$`),
	"LT": regexp.MustCompile(`^LT(\d{9}|\d{12})$`),
	"LU": regexp.MustCompile(`^LU\d{8}$`),
	"LV": regexp.MustCompile(`^LV\d{11}$`),
	"MT": regexp.MustCompile(`^MT\d{8}$`),
	"NL": regexp.MustCompile(`^NL\d{9}B\d{2}$`),
	"PL": regexp.MustCompile(`^PL\d{10}$`),
	"PT": regexp.MustCompile(`^PT\d{9}$`),
	"RO": regexp.MustCompile(`^RO\d{2,10}$`),
	"SE": regexp.MustCompile(`^SE\d{12}$`),
	"SI": regexp.MustCompile(`^SI\d{8}$`),
	"SK": regexp.MustCompile(`^SK\d{10}$`),
}

// vatCountryPrefix maps a document country code to the VAT ID prefix used on
// identifiers from that country.
func vatCountryPrefix(country string) string {
	if country == "GR" {
		return "EL"
	}
	return country
}
