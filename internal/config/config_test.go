package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pipeline.yml", cfg.PipelineConfig)
	assert.Equal(t, "input", cfg.InputDir)
	assert.Equal(t, "input/original_data", cfg.CacheDir)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.ServeAfterRun)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 60*time.Second, cfg.FetchTimeout)
	assert.Zero(t, cfg.FetchMaxAge)
	assert.Equal(t, 5, cfg.FetchRetries)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "renewable-power-plants", cfg.KafkaSinkTopic)
	assert.Equal(t, []string{"csv", "xlsx", "sqlite"}, cfg.ExportFormats)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("PIPELINE_CONFIG", "/etc/rpp/pipeline.yml")
	t.Setenv("INPUT_DIR", "/data/in")
	t.Setenv("OUTPUT_DIR", "/data/out")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SERVE_AFTER_RUN", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FETCH_TIMEOUT", "2m")
	t.Setenv("FETCH_MAX_AGE", "24h")
	t.Setenv("FETCH_RETRIES", "0")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("EXPORT_FORMATS", "csv, sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/rpp/pipeline.yml", cfg.PipelineConfig)
	assert.Equal(t, "/data/in", cfg.InputDir)
	assert.Equal(t, "/data/in/original_data", cfg.CacheDir)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.ServeAfterRun)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 2*time.Minute, cfg.FetchTimeout)
	assert.Equal(t, 24*time.Hour, cfg.FetchMaxAge)
	assert.Zero(t, cfg.FetchRetries)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, []string{"csv", "sqlite"}, cfg.ExportFormats)
}

func TestLoad_EmptyHTTPAddrDisablesServer(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		env, value, want string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"FETCH_TIMEOUT", "soon", "FETCH_TIMEOUT"},
		{"FETCH_MAX_AGE", "-1h", "FETCH_MAX_AGE"},
		{"FETCH_RETRIES", "many", "FETCH_RETRIES"},
		{"SERVE_AFTER_RUN", "maybe", "SERVE_AFTER_RUN"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ServeAfterRunWithoutServer(t *testing.T) {
	t.Setenv("SERVE_AFTER_RUN", "true")
	t.Setenv("HTTP_ADDR", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_ADDR")
}

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPipeline_Defaults(t *testing.T) {
	path := writePipeline(t, `
sources:
  - name: TenneT
    role: tso
    file: TenneT_Anlagenstammdaten_2015.csv
    delimiter: ";"
    encoding: cp1252
    decimal: comma
`)

	p, err := LoadPipeline(path, "input")
	require.NoError(t, err)

	require.Len(t, p.Sources, 1)
	src := p.Sources[0]
	assert.Equal(t, "TenneT", src.Name)
	assert.Equal(t, domain.CountryDE, src.Country())
	assert.Equal(t, domain.CommaDecimal, src.NumberFormat())
	assert.Equal(t, ";", src.Delimiter)
	assert.Equal(t, "cp1252", src.Encoding)
	assert.Equal(t, []domain.Country{domain.CountryDE}, p.Countries())

	assert.Equal(t, filepath.Join("input", "column_translation_list.csv"), p.Lookups.Columns)
	assert.Equal(t, filepath.Join("input", "value_translation_list.csv"), p.Lookups.Values)

	want := domain.DefaultRuleConfig()
	assert.True(t, want.StaleCutoff.Equal(p.Rules.StaleCutoff))
	assert.Equal(t, want.StaleSources, p.Rules.StaleSources)
	assert.Equal(t, want.StatusSource, p.Rules.StatusSource)
	assert.Equal(t, want.CommissionedStatus, p.Rules.CommissionedStatus)
	assert.Equal(t, want.EarliestCommissioning, p.Rules.EarliestCommissioning)
	assert.Equal(t, want.UnavailableSource, p.Rules.UnavailableSource)

	assert.Equal(t, domain.CountryDE, p.Report.Country)
	assert.Equal(t, report.DefaultCategories(), p.Report.Categories)
	require.NotEmpty(t, p.Report.Daily.Points)
	assert.Equal(t, "2005-01-01", p.Report.Daily.Points[0].Format(time.DateOnly))
	assert.Equal(t, "2016-01-31", p.Report.Daily.Points[len(p.Report.Daily.Points)-1].Format(time.DateOnly))
	assert.Len(t, p.Report.Yearly.Points, 26)
}

func TestLoadPipeline_Overrides(t *testing.T) {
	path := writePipeline(t, `
sources:
  - name: Energistyrelsen
    role: dk_wind
    url: https://example.org/anlaeg.xlsx
lookups:
  columns: /abs/columns.csv
  reference: reference.csv
  postcodes:
    - country: DK
      key: postcode
      file: dk_postcodes.csv
rules:
  stale_cutoff: "2013-12-31"
  status_source: ""
  earliest_commissioning:
    Solar: "1980-01-01"
    Wind: "1975-06-01"
report:
  country: dk
  daily:
    start: "2015-01-01"
    end: "2015-01-10"
  yearly:
    first: 2010
    last: 2015
  categories:
    - name: wind
      energy_source: Wind
  mapping:
    wind: [wind_onshore, wind_offshore]
`)

	p, err := LoadPipeline(path, "in")
	require.NoError(t, err)

	assert.Equal(t, []domain.Country{domain.CountryDK}, p.Countries())
	assert.Equal(t, "/abs/columns.csv", p.Lookups.Columns)
	assert.Equal(t, filepath.Join("in", "reference.csv"), p.Lookups.Reference)
	require.Len(t, p.Lookups.Postcodes, 1)
	assert.Equal(t, filepath.Join("in", "dk_postcodes.csv"), p.Lookups.Postcodes[0].File)
	assert.Equal(t, domain.CountryDK, p.Lookups.Postcodes[0].Country)

	assert.Equal(t, "2013-12-31", p.Rules.StaleCutoff.Format(time.DateOnly))
	assert.Empty(t, p.Rules.StatusSource)
	assert.Equal(t, map[string]time.Time{
		domain.EnergySolar: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		domain.EnergyWind:  time.Date(1975, 6, 1, 0, 0, 0, 0, time.UTC),
	}, p.Rules.EarliestCommissioning)

	assert.Equal(t, domain.CountryDK, p.Report.Country)
	assert.Len(t, p.Report.Daily.Points, 10)
	assert.Len(t, p.Report.Yearly.Points, 6)
	assert.Equal(t, []report.Category{{Name: "wind", EnergySource: "Wind"}}, p.Report.Categories)
	assert.Equal(t, report.ReferenceMapping{"wind": {"wind_onshore", "wind_offshore"}}, p.Report.Mapping)
}

func TestLoadPipeline_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown role":      "sources:\n  - {name: X, role: nuclear, file: x.csv}\n",
		"no file":           "sources:\n  - {name: X, role: fr}\n",
		"duplicate fr":      "sources:\n  - {name: A, role: fr, file: a.xlsx}\n  - {name: B, role: fr, file: b.xlsx}\n",
		"bad cutoff":        "rules:\n  stale_cutoff: yesterday\n",
		"reversed grid":     "report:\n  daily: {start: \"2016-01-01\", end: \"2015-01-01\"}\n",
		"reversed years":    "report:\n  yearly: {first: 2015, last: 1990}\n",
		"nameless category": "report:\n  categories:\n    - {energy_source: Wind}\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPipeline(writePipeline(t, content), "")
			assert.ErrorIs(t, err, ErrInvalidPipeline)
		})
	}
}

func TestLoadPipeline_MissingFile(t *testing.T) {
	_, err := LoadPipeline(filepath.Join(t.TempDir(), "absent.yml"), "")
	assert.Error(t, err)
}
