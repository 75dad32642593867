package ui

import (
	"github.com/yllada/ipcountry-tray/common"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var regionNamer = display.English.Regions()

// CountryName returns the English name of an ISO 3166-1 alpha-2 code.
// The unknown sentinel and unparseable codes return "Unknown".
func CountryName(code string) string {
	code = common.NormalizeCountry(code)
	if !common.IsKnownCountry(code) {
		return "Unknown"
	}

	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}

	name := regionNamer.Name(region)
	if name == "" {
		return code
	}
	return name
}

// countryLabel formats "United States (US)".
func countryLabel(code string) string {
	code = common.NormalizeCountry(code)
	return CountryName(code) + " (" + code + ")"
}
