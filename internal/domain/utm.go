package domain

import (
	"strconv"
	"strings"

	"github.com/im7mortal/UTM"
)

// utmZoneLetter is the latitude band of all supported registries (48°N–56°N).
const utmZoneLetter = "U"

// maxEastingDigits is the width of the integer part of a valid UTM easting.
const maxEastingDigits = 6

// CorrectEasting removes a zone number that a registry glued in front of the
// easting, e.g. 32412345.67 in zone 32 becomes 412345.67. Eastings without the
// artifact are returned unchanged.
func CorrectEasting(east float64, zone int) float64 {
	s := strconv.FormatFloat(east, 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	prefix := strconv.Itoa(zone)
	if len(intPart) <= maxEastingDigits || !strings.HasPrefix(intPart, prefix) {
		return east
	}

	trimmed := intPart[len(prefix):]
	if frac != "" {
		trimmed += "." + frac
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return east
	}
	return v
}

// UTMToLatLon converts a northern-hemisphere UTM coordinate to WGS-84 after
// correcting the easting. Coordinates outside the projection's domain
// report false.
func UTMToLatLon(east, north float64, zone int) (Point, bool) {
	east = CorrectEasting(east, zone)
	lat, lon, err := UTM.ToLatLon(east, north, zone, utmZoneLetter)
	if err != nil {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}
