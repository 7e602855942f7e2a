// Package source converts the national registry extracts into canonical
// records. Each country has a typed raw input and a pure adapter function.
package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
)

// ErrMissingColumn is returned when an extract lacks a column the adapter
// cannot do without.
var ErrMissingColumn = errors.New("missing required column")

// ErrEmptySource is returned when a configured extract yields no data: an
// empty sheet, a header skipped past the end of the file or a report without
// a single parsable block.
var ErrEmptySource = errors.New("source has no data")

// Table is a raw extract as read from a file or sheet: a header row and
// string data rows. Rows may be shorter than the header.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Canonical column names the adapters read after translation.
const (
	colCommissioningDate     = "commissioning_date"
	colDecommissioningDate   = "decommissioning_date"
	colNotificationReason    = "notification_reason"
	colEnergySource          = "energy_source"
	colEnergySourceSubtype   = "energy_source_subtype"
	colElectricalCapacity    = "electrical_capacity"
	colThermalCapacity       = "thermal_capacity"
	colNumberOfInstallations = "number_of_installations"
	colVoltageLevel          = "voltage_level"
	colDSO                   = "dso"
	colTSO                   = "tso"
	colEEGID                 = "eeg_id"
	colBNetzAID              = "bnetza_id"
	colGSRNID                = "gsrn_id"
	colFederalState          = "federal_state"
	colMunicipality          = "municipality"
	colMunicipalityCode      = "municipality_code"
	colPostcode              = "postcode"
	colAddress               = "address"
	colAddressNumber         = "address_number"
	colUTMZone               = "utm_zone"
	colUTMEast               = "utm_east"
	colUTMNorth              = "utm_north"
	colLatitude              = "lat"
	colLongitude             = "lon"
	colHubHeight             = "hub_height"
	colRotorDiameter         = "rotor_diameter"
	colManufacturer          = "manufacturer"
	colModel                 = "model"
)

// kWSuffix marks canonical capacity columns published in kW.
const kWSuffix = "_kW"

// columns indexes a table's translated header.
type columns struct {
	table string
	index map[string]int
}

// translateHeader renames t's header through the country's column table.
// When two source columns translate to the same name the first one wins.
func translateHeader(t Table, tr *domain.Translator, country domain.Country) columns {
	c := columns{table: t.Name, index: make(map[string]int, len(t.Header))}
	for i, h := range t.Header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		name := tr.Column(country, h)
		if _, dup := c.index[name]; !dup {
			c.index[name] = i
		}
	}
	return c
}

// checkHeader fails with ErrEmptySource when t was read without a header row.
func checkHeader(t Table) error {
	if len(t.Header) == 0 {
		return fmt.Errorf("%s: %w", t.Name, ErrEmptySource)
	}
	return nil
}

func (c columns) has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// require fails with ErrMissingColumn unless every name, or one of its
// "|"-separated alternatives, is present.
func (c columns) require(names ...string) error {
	for _, name := range names {
		found := false
		for _, alt := range strings.Split(name, "|") {
			if c.has(alt) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: %w %q", c.table, ErrMissingColumn, name)
		}
	}
	return nil
}

// get returns the trimmed cell of row under name, or "" when the column or
// the cell is absent.
func (c columns) get(row []string, name string) string {
	i, ok := c.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// capacity returns the cell of the capacity column base, converted to MW
// when the table publishes it in kW.
func (c columns) capacity(row []string, base string, f domain.NumberFormat) *float64 {
	if c.has(base + kWSuffix) {
		return domain.KWToMW(domain.ParseNumber(c.get(row, base+kWSuffix), f))
	}
	return domain.ParseNumber(c.get(row, base), f)
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseZone(s string) *int {
	return domain.ParseCount(s, domain.PointDecimal)
}
