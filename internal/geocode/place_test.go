package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceName(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{
			name: "home country city and borough",
			addr: Address{City: "Seoul", Borough: "Jung-gu", Country: "South Korea", CountryCode: "kr"},
			want: "Seoul, Jung-gu",
		},
		{
			name: "home country falls back to province and county",
			addr: Address{Province: "Gangwon", County: "Yangyang-gun", CountryCode: "KR"},
			want: "Gangwon, Yangyang-gun",
		},
		{
			name: "home country with only a district",
			addr: Address{CityDistrict: "Haeundae-gu", CountryCode: "kr"},
			want: "Haeundae-gu",
		},
		{
			name: "foreign town and country",
			addr: Address{Town: "Hallstatt", State: "Upper Austria", Country: "Austria", CountryCode: "at"},
			want: "Hallstatt, Austria",
		},
		{
			name: "foreign village",
			addr: Address{Village: "Giethoorn", Country: "Netherlands", CountryCode: "nl"},
			want: "Giethoorn, Netherlands",
		},
		{
			name: "foreign ignores district levels",
			addr: Address{Suburb: "Shibuya", Country: "Japan", CountryCode: "jp"},
			want: "Japan",
		},
		{
			name: "nothing resolves",
			addr: Address{CountryCode: "kr"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaceName(tt.addr, DefaultHomeCountry))
		})
	}
}
