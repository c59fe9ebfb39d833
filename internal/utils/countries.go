package utils

// UnknownCountry is used when a dial code has no known country.
const UnknownCountry = "Autre"

// DefaultDialCode is preselected on the public contact form.
const DefaultDialCode = "+225"

var dialCodeCountries = map[string]string{
	"+225": "Côte d'Ivoire",
	"+221": "Sénégal",
	"+237": "Cameroun",
	"+212": "Maroc",
	"+213": "Algérie",
	"+216": "Tunisie",
	"+223": "Mali",
	"+226": "Burkina Faso",
	"+227": "Niger",
	"+228": "Togo",
	"+229": "Bénin",
	"+241": "Gabon",
	"+242": "Congo-Brazzaville",
	"+243": "RD Congo",
	"+261": "Madagascar",
	"+234": "Nigéria",
	"+254": "Kenya",
	"+27":  "Afrique du Sud",
}

// CountryForDialCode maps an international dial code to a country name.
func CountryForDialCode(code string) string {
	if c, ok := dialCodeCountries[code]; ok {
		return c
	}
	return UnknownCountry
}
