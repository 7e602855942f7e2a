// Package export writes the run outputs (master table, time series,
// deviation and validation marker tables) as CSV, XLSX and SQLite files.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
)

// Output file names.
const (
	MasterBase       = "renewable_power_plants"
	DailyFile        = "renewable_capacity_timeseries_daily.csv"
	YearlyFile       = "renewable_capacity_timeseries_yearly.csv"
	ValidationReport = "validation_report.csv"
)

// Table names used by the SQLite and XLSX exports.
const (
	TableMaster    = "renewable_power_plants"
	TableMarker    = "validation_marker"
	TableDaily     = "timeseries_daily"
	TableYearly    = "timeseries_yearly"
	TableDeviation = "deviation"
)

// field is one master table column.
type field struct {
	name string
	kind kind
	get  func(r *domain.Record) string
	set  func(r *domain.Record, v string) error
}

// kind is the SQL affinity of a column.
type kind int

const (
	kindText kind = iota
	kindReal
	kindInteger
)

var fields = []field{
	strField("id", func(r *domain.Record) *string { return &r.ID }),
	{
		name: "country",
		get:  func(r *domain.Record) string { return string(r.Country) },
		set:  func(r *domain.Record, v string) error { r.Country = domain.Country(v); return nil },
	},
	strField("data_source", func(r *domain.Record) *string { return &r.DataSource }),
	dateField("commissioning_date", func(r *domain.Record) **time.Time { return &r.CommissioningDate }),
	dateField("decommissioning_date", func(r *domain.Record) **time.Time { return &r.DecommissioningDate }),
	strField("notification_reason", func(r *domain.Record) *string { return &r.NotificationReason }),
	strField("energy_source", func(r *domain.Record) *string { return &r.EnergySource }),
	strField("energy_source_subtype", func(r *domain.Record) *string { return &r.EnergySourceSubtype }),
	floatField("electrical_capacity", func(r *domain.Record) **float64 { return &r.ElectricalCapacity }),
	floatField("thermal_capacity", func(r *domain.Record) **float64 { return &r.ThermalCapacity }),
	intField("number_of_installations", func(r *domain.Record) **int { return &r.NumberOfInstallations }),
	strField("installation_count_marker", func(r *domain.Record) *string { return &r.InstallationCountMarker }),
	strField("voltage_level", func(r *domain.Record) *string { return &r.VoltageLevel }),
	strField("dso", func(r *domain.Record) *string { return &r.DSO }),
	strField("tso", func(r *domain.Record) *string { return &r.TSO }),
	strField("eeg_id", func(r *domain.Record) *string { return &r.EEGID }),
	strField("bnetza_id", func(r *domain.Record) *string { return &r.BNetzAID }),
	strField("gsrn_id", func(r *domain.Record) *string { return &r.GSRNID }),
	strField("federal_state", func(r *domain.Record) *string { return &r.FederalState }),
	strField("district", func(r *domain.Record) *string { return &r.District }),
	strField("municipality", func(r *domain.Record) *string { return &r.Municipality }),
	strField("municipality_code", func(r *domain.Record) *string { return &r.MunicipalityCode }),
	strField("postcode", func(r *domain.Record) *string { return &r.Postcode }),
	strField("address", func(r *domain.Record) *string { return &r.Address }),
	strField("address_number", func(r *domain.Record) *string { return &r.AddressNumber }),
	intField("utm_zone", func(r *domain.Record) **int { return &r.UTMZone }),
	floatField("utm_east", func(r *domain.Record) **float64 { return &r.UTMEast }),
	floatField("utm_north", func(r *domain.Record) **float64 { return &r.UTMNorth }),
	floatField("lat", func(r *domain.Record) **float64 { return &r.Latitude }),
	floatField("lon", func(r *domain.Record) **float64 { return &r.Longitude }),
	strField("geo_source", func(r *domain.Record) *string { return &r.GeoSource }),
	floatField("hub_height", func(r *domain.Record) **float64 { return &r.HubHeight }),
	floatField("rotor_diameter", func(r *domain.Record) **float64 { return &r.RotorDiameter }),
	strField("manufacturer", func(r *domain.Record) *string { return &r.Manufacturer }),
	strField("model", func(r *domain.Record) *string { return &r.Model }),
	{
		name: "comment",
		get:  func(r *domain.Record) string { return r.CommentText() },
		set:  func(r *domain.Record, v string) error { r.Comment = domain.ParseComment(v); return nil },
	},
}

// MasterColumns returns the master table header.
func MasterColumns() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.name
	}
	return out
}

// RecordRow renders rec in MasterColumns order. Missing values are empty.
func RecordRow(rec domain.Record) []string {
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = f.get(&rec)
	}
	return row
}

// ParseRecordRow is the inverse of RecordRow for a row read under header.
// Unknown columns are ignored.
func ParseRecordRow(header, row []string) (domain.Record, error) {
	var rec domain.Record
	for i, name := range header {
		if i >= len(row) {
			break
		}
		f, ok := fieldByName[strings.TrimSpace(name)]
		if !ok {
			continue
		}
		if err := f.set(&rec, row[i]); err != nil {
			return domain.Record{}, fmt.Errorf("parse column %s: %w", f.name, err)
		}
	}
	return rec, nil
}

var fieldByName = func() map[string]field {
	m := make(map[string]field, len(fields))
	for _, f := range fields {
		m[f.name] = f
	}
	return m
}()

// FormatFloat renders v with the shortest exact representation.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func strField(name string, p func(r *domain.Record) *string) field {
	return field{
		name: name,
		get:  func(r *domain.Record) string { return *p(r) },
		set:  func(r *domain.Record, v string) error { *p(r) = v; return nil },
	}
}

func dateField(name string, p func(r *domain.Record) **time.Time) field {
	return field{
		name: name,
		get: func(r *domain.Record) string {
			if t := *p(r); t != nil {
				return t.Format(time.DateOnly)
			}
			return ""
		},
		set: func(r *domain.Record, v string) error {
			if v == "" {
				return nil
			}
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				return err
			}
			*p(r) = &t
			return nil
		},
	}
}

func floatField(name string, p func(r *domain.Record) **float64) field {
	return field{
		name: name,
		kind: kindReal,
		get: func(r *domain.Record) string {
			if v := *p(r); v != nil {
				return FormatFloat(*v)
			}
			return ""
		},
		set: func(r *domain.Record, v string) error {
			if v == "" {
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			*p(r) = &f
			return nil
		},
	}
}

func intField(name string, p func(r *domain.Record) **int) field {
	return field{
		name: name,
		kind: kindInteger,
		get: func(r *domain.Record) string {
			if v := *p(r); v != nil {
				return strconv.Itoa(*v)
			}
			return ""
		},
		set: func(r *domain.Record, v string) error {
			if v == "" {
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*p(r) = &n
			return nil
		},
	}
}

// value returns the typed cell of f for rec: nil for missing values,
// float64 or int for numeric columns and string otherwise.
func (f field) value(rec *domain.Record) any {
	s := f.get(rec)
	if s == "" {
		return nil
	}
	switch f.kind {
	case kindReal:
		v, _ := strconv.ParseFloat(s, 64)
		return v
	case kindInteger:
		v, _ := strconv.Atoi(s)
		return v
	default:
		return s
	}
}
