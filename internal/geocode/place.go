package geocode

import "strings"

// DefaultHomeCountry is the ISO 3166-1 alpha-2 code whose addresses are
// rendered as "city, district" instead of "city, country".
const DefaultHomeCountry = "kr"

// Address is the addressdetails object of a reverse-geocoding response.
type Address struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	Province     string `json:"province"`
	State        string `json:"state"`
	CityDistrict string `json:"city_district"`
	District     string `json:"district"`
	Borough      string `json:"borough"`
	Suburb       string `json:"suburb"`
	County       string `json:"county"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
}

// PlaceName reduces an address to a short display name. Home-country
// addresses become "city-or-province, district"; others become
// "locality, country". It returns "" when no level resolves.
func PlaceName(addr Address, homeCountry string) string {
	var levels []string
	if homeCountry != "" && strings.EqualFold(addr.CountryCode, homeCountry) {
		levels = []string{
			firstNonEmpty(addr.City, addr.Province, addr.State),
			firstNonEmpty(addr.CityDistrict, addr.District, addr.Borough, addr.Suburb, addr.County),
		}
	} else {
		levels = []string{
			firstNonEmpty(addr.City, addr.Town, addr.Village, addr.Municipality),
			addr.Country,
		}
	}

	parts := levels[:0]
	for _, l := range levels {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
