package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	berlinCentroid = Point{Lat: 52.52, Lon: 13.40}
	parisCentroid  = Point{Lat: 48.85, Lon: 2.35}
)

func newTestGeoreferencer() *Georeferencer {
	postcodes := NewCentroidIndex([]CentroidEntry{
		{Country: CountryDE, Key: "10115", Point: Point{Lat: 1, Lon: 1}},
		{Country: CountryDE, Key: "10115", Point: berlinCentroid}, // last wins
		{Country: CountryDK, Key: "8000", Point: Point{Lat: 56.15, Lon: 10.21}},
	})
	municipalities := NewCentroidIndex([]CentroidEntry{
		{Country: CountryFR, Key: "75056", Point: parisCentroid},
	})
	return NewGeoreferencer(postcodes, municipalities)
}

func TestCorrectEasting(t *testing.T) {
	tests := []struct {
		name string
		east float64
		zone int
		want float64
	}{
		{"zone prefix stripped", 32412345.67, 32, 412345.67},
		{"zone prefix stripped integer", 32512000, 32, 512000},
		{"regular easting untouched", 412345.67, 32, 412345.67},
		{"six digit easting starting with zone untouched", 325000.5, 32, 325000.5},
		{"other zone prefix untouched", 33412345.67, 32, 33412345.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CorrectEasting(tt.east, tt.zone))
		})
	}
}

func TestUTMToLatLon(t *testing.T) {
	t.Run("central meridian of zone 32", func(t *testing.T) {
		p, ok := UTMToLatLon(500000, 6200000, 32)
		require.True(t, ok)
		assert.InDelta(t, 9.0, p.Lon, 1e-6)
		assert.Greater(t, p.Lat, 55.0)
		assert.Less(t, p.Lat, 57.0)
	})

	t.Run("prefixed easting converts like the corrected one", func(t *testing.T) {
		want, ok := UTMToLatLon(512000, 6200000, 32)
		require.True(t, ok)
		got, ok := UTMToLatLon(32512000, 6200000, 32)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("out of range", func(t *testing.T) {
		_, ok := UTMToLatLon(5, 6200000, 32)
		assert.False(t, ok)
	})
}

func TestGeoreferencer_Resolve(t *testing.T) {
	g := newTestGeoreferencer()

	t.Run("UTM wins over postcode", func(t *testing.T) {
		rec := Record{
			Country:  CountryDK,
			UTMZone:  Ptr(32),
			UTMEast:  Ptr(500000.0),
			UTMNorth: Ptr(6200000.0),
			Postcode: "8000",
		}
		got := g.Resolve(rec)
		require.True(t, got.HasCoordinates())
		assert.Equal(t, GeoUTM, got.GeoSource)
		assert.InDelta(t, 9.0, *got.Longitude, 1e-6)
		assert.Equal(t, 500000.0, *got.UTMEast, "location fields untouched")
	})

	t.Run("postcode centroid", func(t *testing.T) {
		got := g.Resolve(Record{Country: CountryDE, Postcode: "10115"})
		require.True(t, got.HasCoordinates())
		assert.Equal(t, GeoPostcode, got.GeoSource)
		assert.Equal(t, berlinCentroid.Lat, *got.Latitude)
		assert.Equal(t, berlinCentroid.Lon, *got.Longitude)
	})

	t.Run("failed UTM falls back to postcode", func(t *testing.T) {
		rec := Record{Country: CountryDE, UTMZone: Ptr(32), UTMEast: Ptr(5.0), UTMNorth: Ptr(1.0), Postcode: "10115"}
		got := g.Resolve(rec)
		assert.Equal(t, GeoPostcode, got.GeoSource)
	})

	t.Run("municipality code centroid", func(t *testing.T) {
		got := g.Resolve(Record{Country: CountryFR, MunicipalityCode: "75056"})
		require.True(t, got.HasCoordinates())
		assert.Equal(t, GeoMunicipalityCode, got.GeoSource)
		assert.Equal(t, parisCentroid.Lat, *got.Latitude)
	})

	t.Run("lookups are country scoped", func(t *testing.T) {
		got := g.Resolve(Record{Country: CountryDK, Postcode: "10115"})
		assert.False(t, got.HasCoordinates())
	})

	t.Run("unresolvable stays null", func(t *testing.T) {
		got := g.Resolve(Record{Country: CountryPL, District: "krakowski"})
		assert.Nil(t, got.Latitude)
		assert.Nil(t, got.Longitude)
		assert.Empty(t, got.GeoSource)
	})

	t.Run("existing coordinates kept", func(t *testing.T) {
		got := g.Resolve(Record{Country: CountryDE, Latitude: Ptr(50.0), Longitude: Ptr(8.0), Postcode: "10115"})
		assert.Equal(t, 50.0, *got.Latitude)
		assert.Equal(t, GeoOriginal, got.GeoSource)
	})
}

func TestGeoreferencer_NilLocators(t *testing.T) {
	g := NewGeoreferencer(nil, nil)
	got := g.Resolve(Record{Country: CountryDE, Postcode: "10115", MunicipalityCode: "11000000"})
	assert.False(t, got.HasCoordinates())
}

func TestGeoreferencer_Apply(t *testing.T) {
	g := newTestGeoreferencer()
	in := []Record{
		{ID: "a", Country: CountryDE, Postcode: "10115", DataSource: SourceBNetzA, EnergySource: EnergySolar},
		{ID: "b", Country: CountryDE, Postcode: "99999", DataSource: SourceBNetzA, EnergySource: EnergySolar},
		{ID: "c", Country: CountryPL, DataSource: SourceURE, EnergySource: EnergyWind},
	}

	out := g.Apply(in)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Nil(t, in[0].Latitude, "input not modified")
	assert.Equal(t, []NullCoordinateCount{
		{DataSource: SourceBNetzA, EnergySource: EnergySolar, Count: 1},
		{DataSource: SourceURE, EnergySource: EnergyWind, Count: 1},
	}, NullCoordinates(out))
}
