package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/tabular"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestColumnEntries(t *testing.T) {
	path := writeFile(t, "columns.csv", "country,original_name,opsd_name\nDE,Anlagentyp,energy_source\nDK,,skip\n")

	got, err := ColumnEntries(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.ColumnEntry{{Country: domain.CountryDE, Original: "Anlagentyp", Canonical: "energy_source"}}, got)
}

func TestColumnEntries_Malformed(t *testing.T) {
	path := writeFile(t, "columns.csv", "country,name\nDE,x\n")

	_, err := ColumnEntries(path)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValueEntries(t *testing.T) {
	path := writeFile(t, "values.csv", "country,original_name,opsd_name,energy_source\nDE,Windkraft an Land,Wind onshore,Wind\nFR,Eolien,Wind,\n")

	got, err := ValueEntries(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.ValueEntry{
		{Country: domain.CountryDE, Original: "Windkraft an Land", Canonical: "Wind onshore", EnergySource: "Wind"},
		{Country: domain.CountryFR, Original: "Eolien", Canonical: "Wind"},
	}, got)
}

func TestCentroids(t *testing.T) {
	tests := []struct {
		name    string
		content string
		spec    CentroidSpec
	}{
		{
			name:    "lat lon columns",
			content: "postcode,lat,lon\n10115,52.53,13.38\n99999,,\n",
			spec:    CentroidSpec{Country: domain.CountryDE, KeyCol: "postcode"},
		},
		{
			name:    "geo point column",
			content: "Code INSEE;Geo Point\n10115;52.53, 13.38\n99999;nowhere\n",
			spec:    CentroidSpec{Country: domain.CountryDE, KeyCol: "Code INSEE", Options: tabular.Options{Delimiter: ';'}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.spec.Path = writeFile(t, "centroids.csv", tt.content)

			got, err := Centroids(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, []domain.CentroidEntry{
				{Country: domain.CountryDE, Key: "10115", Point: domain.Point{Lat: 52.53, Lon: 13.38}},
			}, got)
		})
	}
}

func TestCentroids_MissingKey(t *testing.T) {
	path := writeFile(t, "centroids.csv", "plz,lat,lon\n")

	_, err := Centroids(CentroidSpec{Path: path, KeyCol: "postcode"})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestReference(t *testing.T) {
	path := writeFile(t, "reference.csv", "year,solar,hydro,total\n2014,38000,5600,\n2015,39000,5600,44600\nsum,1,1,1\n")

	got, err := Reference(path)
	require.NoError(t, err)
	assert.Equal(t, report.Reference{
		2014: {"solar": 38000, "hydro": 5600},
		2015: {"solar": 39000, "hydro": 5600, "total": 44600},
	}, got)
}
