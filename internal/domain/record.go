package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Country is the ISO 3166-1 alpha-2 code of the registry a record came from.
type Country string

const (
	CountryDE Country = "DE"
	CountryDK Country = "DK"
	CountryFR Country = "FR"
	CountryPL Country = "PL"
)

// Data source tags attached by the source adapters.
const (
	SourceTransnetBW      = "TransnetBW"
	SourceTenneT          = "TenneT"
	SourceAmprion         = "Amprion"
	Source50Hertz         = "50Hertz"
	SourceBNetzA          = "BNetzA"
	SourceBNetzAPV        = "BNetzA_PV"
	SourceEnergistyrelsen = "Energistyrelsen"
	SourceEnerginet       = "Energinet.dk"
	SourceGouvFR          = "gouv.fr"
	SourceURE             = "Urzad Regulacji Energetyki"
)

// Canonical energy sources and the subtypes the pipeline treats specially.
const (
	EnergyWind       = "Wind"
	EnergySolar      = "Solar"
	EnergyBiomass    = "Biomass"
	EnergyHydro      = "Hydro"
	EnergyGas        = "Gas"
	EnergyGeothermal = "Geothermal"

	SubtypeWindOnshore   = "Wind onshore"
	SubtypeWindOffshore  = "Wind offshore"
	SubtypePhotovoltaics = "Photovoltaics"
)

// Geo sources record which strategy produced a record's coordinates.
const (
	GeoOriginal         = "original"
	GeoUTM              = "utm"
	GeoPostcode         = "postcode"
	GeoMunicipalityCode = "municipality_code"
)

// CommentSeparator terminates every validation tag in the rendered comment.
const CommentSeparator = ", "

// Record is one row of the harmonized master table. Capacities are in MW.
// Nullable values are pointers; a nil pointer is a missing value.
type Record struct {
	ID         string  `json:"id"`
	Country    Country `json:"country"`
	DataSource string  `json:"data_source"`

	CommissioningDate   *time.Time `json:"commissioning_date,omitempty"`
	DecommissioningDate *time.Time `json:"decommissioning_date,omitempty"`
	NotificationReason  string     `json:"notification_reason,omitempty"`

	EnergySource        string   `json:"energy_source"`
	EnergySourceSubtype string   `json:"energy_source_subtype,omitempty"`
	ElectricalCapacity  *float64 `json:"electrical_capacity,omitempty"`
	ThermalCapacity     *float64 `json:"thermal_capacity,omitempty"`

	NumberOfInstallations   *int   `json:"number_of_installations,omitempty"`
	InstallationCountMarker string `json:"installation_count_marker,omitempty"` // "< 3" for suppressed counts

	VoltageLevel string `json:"voltage_level,omitempty"`
	DSO          string `json:"dso,omitempty"`
	TSO          string `json:"tso,omitempty"`
	EEGID        string `json:"eeg_id,omitempty"`
	BNetzAID     string `json:"bnetza_id,omitempty"`
	GSRNID       string `json:"gsrn_id,omitempty"`

	FederalState     string `json:"federal_state,omitempty"`
	District         string `json:"district,omitempty"`
	Municipality     string `json:"municipality,omitempty"`
	MunicipalityCode string `json:"municipality_code,omitempty"`
	Postcode         string `json:"postcode,omitempty"`
	Address          string `json:"address,omitempty"`
	AddressNumber    string `json:"address_number,omitempty"`

	UTMZone  *int     `json:"utm_zone,omitempty"`
	UTMEast  *float64 `json:"utm_east,omitempty"`
	UTMNorth *float64 `json:"utm_north,omitempty"`

	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lon,omitempty"`
	GeoSource string   `json:"geo_source,omitempty"` // "original", "utm", "postcode", "municipality_code"

	HubHeight     *float64 `json:"hub_height,omitempty"`
	RotorDiameter *float64 `json:"rotor_diameter,omitempty"`
	Manufacturer  string   `json:"manufacturer,omitempty"`
	Model         string   `json:"model,omitempty"`

	Comment []string `json:"comment,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (r Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// CommentText renders the comment tags the way the master table stores them,
// each tag followed by CommentSeparator.
func (r Record) CommentText() string {
	var b strings.Builder
	for _, tag := range r.Comment {
		b.WriteString(tag)
		b.WriteString(CommentSeparator)
	}
	return b.String()
}

// ParseComment splits a rendered comment back into its tags.
func ParseComment(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, strings.TrimSpace(CommentSeparator)) {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// NewRecordID produces a deterministic ID from the data source, the row's
// ordinal within that source and its key fields. Rerunning the pipeline on
// the same inputs yields the same IDs.
func NewRecordID(country Country, dataSource string, ordinal int, key ...string) string {
	input := fmt.Sprintf("%s|%s|%d|%s", country, dataSource, ordinal, strings.Join(key, "|"))
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if country == "" {
		return short
	}
	return strings.ToLower(string(country)) + "-" + short
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
