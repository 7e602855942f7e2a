package source

import (
	"fmt"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
)

// dkUTMZone is the UTM zone the Danish wind register publishes coordinates in.
const dkUTMZone = 32

// DKInput holds the Danish wind turbine register (Energistyrelsen) and the
// solar installation list (Energinet.dk). A nil table is not part of the run.
type DKInput struct {
	Wind  *Table
	Solar *Table
}

// DKWindRow is one turbine of the Danish wind register after column
// translation.
type DKWindRow struct {
	Ordinal             int
	CommissioningDate   string
	DecommissioningDate string
	Placement           string // translated to the wind subtype
	ElectricalCapacity  *float64
	GSRNID              string
	Manufacturer        string
	Model               string
	HubHeight           string
	RotorDiameter       string
	Municipality        string
	MunicipalityCode    string
	Postcode            string
	Address             string
	UTMEast             string
	UTMNorth            string
}

// DKSolarRow is one installation of the Danish solar list after column
// translation.
type DKSolarRow struct {
	Ordinal            int
	CommissioningDate  string
	ElectricalCapacity *float64
	GSRNID             string
	Postcode           string
	Municipality       string
	Address            string
}

// DK converts the Danish extracts into records, wind before solar. Wind
// turbines carry UTM coordinates in zone 32; solar installations are located
// by postcode only.
func DK(in DKInput, tr *domain.Translator) ([]domain.Record, error) {
	wind, err := decodeDKWind(in.Wind, tr)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", domain.SourceEnergistyrelsen, err)
	}
	solar, err := decodeDKSolar(in.Solar, tr)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", domain.SourceEnerginet, err)
	}

	out := make([]domain.Record, 0, len(wind)+len(solar))
	for _, row := range wind {
		out = append(out, dkWindRecord(row, tr))
	}
	for _, row := range solar {
		out = append(out, dkSolarRecord(row))
	}
	return out, nil
}

func decodeDKWind(t *Table, tr *domain.Translator) ([]DKWindRow, error) {
	if t == nil {
		return nil, nil
	}
	if err := checkHeader(*t); err != nil {
		return nil, err
	}
	c := translateHeader(*t, tr, domain.CountryDK)
	if err := c.require(colElectricalCapacity + kWSuffix + "|" + colElectricalCapacity); err != nil {
		return nil, err
	}

	rows := make([]DKWindRow, 0, len(t.Rows))
	for i, raw := range t.Rows {
		if blank(raw) {
			continue
		}
		rows = append(rows, DKWindRow{
			Ordinal:             i + 1,
			CommissioningDate:   c.get(raw, colCommissioningDate),
			DecommissioningDate: c.get(raw, colDecommissioningDate),
			Placement:           c.get(raw, colEnergySourceSubtype),
			ElectricalCapacity:  c.capacity(raw, colElectricalCapacity, domain.PointDecimal),
			GSRNID:              c.get(raw, colGSRNID),
			Manufacturer:        c.get(raw, colManufacturer),
			Model:               c.get(raw, colModel),
			HubHeight:           c.get(raw, colHubHeight),
			RotorDiameter:       c.get(raw, colRotorDiameter),
			Municipality:        c.get(raw, colMunicipality),
			MunicipalityCode:    c.get(raw, colMunicipalityCode),
			Postcode:            c.get(raw, colPostcode),
			Address:             c.get(raw, colAddress),
			UTMEast:             c.get(raw, colUTMEast),
			UTMNorth:            c.get(raw, colUTMNorth),
		})
	}
	return rows, nil
}

func decodeDKSolar(t *Table, tr *domain.Translator) ([]DKSolarRow, error) {
	if t == nil {
		return nil, nil
	}
	if err := checkHeader(*t); err != nil {
		return nil, err
	}
	c := translateHeader(*t, tr, domain.CountryDK)
	if err := c.require(colElectricalCapacity + kWSuffix + "|" + colElectricalCapacity); err != nil {
		return nil, err
	}

	rows := make([]DKSolarRow, 0, len(t.Rows))
	for i, raw := range t.Rows {
		if blank(raw) {
			continue
		}
		rows = append(rows, DKSolarRow{
			Ordinal:            i + 1,
			CommissioningDate:  c.get(raw, colCommissioningDate),
			ElectricalCapacity: c.capacity(raw, colElectricalCapacity, domain.PointDecimal),
			GSRNID:             c.get(raw, colGSRNID),
			Postcode:           c.get(raw, colPostcode),
			Municipality:       c.get(raw, colMunicipality),
			Address:            c.get(raw, colAddress),
		})
	}
	return rows, nil
}

func dkWindRecord(row DKWindRow, tr *domain.Translator) domain.Record {
	// Placements without a wind parent are not a wind subtype.
	subtype := tr.Value(domain.CountryDK, row.Placement)
	if tr.Parent(domain.CountryDK, subtype) != domain.EnergyWind {
		subtype = ""
	}
	return domain.Record{
		ID:                  domain.NewRecordID(domain.CountryDK, domain.SourceEnergistyrelsen, row.Ordinal, row.GSRNID),
		Country:             domain.CountryDK,
		DataSource:          domain.SourceEnergistyrelsen,
		CommissioningDate:   domain.ParseDate(row.CommissioningDate),
		DecommissioningDate: domain.ParseDate(row.DecommissioningDate),
		EnergySource:        domain.EnergyWind,
		EnergySourceSubtype: subtype,
		ElectricalCapacity:  row.ElectricalCapacity,
		GSRNID:              row.GSRNID,
		Manufacturer:        row.Manufacturer,
		Model:               row.Model,
		HubHeight:           domain.ParseNumber(row.HubHeight, domain.PointDecimal),
		RotorDiameter:       domain.ParseNumber(row.RotorDiameter, domain.PointDecimal),
		Municipality:        row.Municipality,
		MunicipalityCode:    row.MunicipalityCode,
		Postcode:            row.Postcode,
		Address:             row.Address,
		UTMZone:             domain.Ptr(dkUTMZone),
		UTMEast:             domain.ParseNumber(row.UTMEast, domain.PointDecimal),
		UTMNorth:            domain.ParseNumber(row.UTMNorth, domain.PointDecimal),
	}
}

func dkSolarRecord(row DKSolarRow) domain.Record {
	return domain.Record{
		ID:                  domain.NewRecordID(domain.CountryDK, domain.SourceEnerginet, row.Ordinal, row.GSRNID),
		Country:             domain.CountryDK,
		DataSource:          domain.SourceEnerginet,
		CommissioningDate:   domain.ParseDate(row.CommissioningDate),
		EnergySource:        domain.EnergySolar,
		EnergySourceSubtype: domain.SubtypePhotovoltaics,
		ElectricalCapacity:  row.ElectricalCapacity,
		GSRNID:              row.GSRNID,
		Postcode:            row.Postcode,
		Municipality:        row.Municipality,
		Address:             row.Address,
	}
}
