package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
)

// DEExtract is one German registry extract with the data source tag it is
// published under and the number notation it uses.
type DEExtract struct {
	DataSource string
	Format     domain.NumberFormat
	Table      Table
}

// DEInput holds every German extract of a run. TSO holds the four grid
// operator lists, BNetzAPV the photovoltaic registry sheets and BNetzA the
// general registry, nil when the run does not include it.
type DEInput struct {
	TSO      []DEExtract
	BNetzAPV []DEExtract
	BNetzA   *DEExtract
}

// DERow is one German plant entry after column translation. Capacities are
// already in MW; every other value is still the raw cell text.
type DERow struct {
	DataSource          string
	Ordinal             int
	CommissioningDate   string
	DecommissioningDate string
	NotificationReason  string
	EnergySource        string
	ElectricalCapacity  *float64
	ThermalCapacity     *float64
	VoltageLevel        string
	DSO                 string
	TSO                 string
	EEGID               string
	BNetzAID            string
	FederalState        string
	Postcode            string
	MunicipalityCode    string
	Municipality        string
	Address             string
	AddressNumber       string
	UTMZone             string
	UTMEast             string
	UTMNorth            string
	Format              domain.NumberFormat
}

// DE converts the German extracts into records. Extracts are unioned in the
// order grid operators, BNetzA_PV, BNetzA; rows keep their order within each.
func DE(in DEInput, tr *domain.Translator) ([]domain.Record, error) {
	var rows []DERow
	for _, x := range in.TSO {
		r, err := decodeDE(x, tr, true)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", x.DataSource, err)
		}
		rows = append(rows, r...)
	}
	ordinal := 0
	for _, x := range in.BNetzAPV {
		r, err := decodeDE(x, tr, false)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", x.DataSource, err)
		}
		// Sheets share one ordinal sequence.
		for i := range r {
			ordinal++
			r[i].Ordinal = ordinal
		}
		rows = append(rows, r...)
	}
	if in.BNetzA != nil {
		r, err := decodeDE(*in.BNetzA, tr, true)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", in.BNetzA.DataSource, err)
		}
		for i := range r {
			r[i].DecommissioningDate = normalizeDecommissioning(r[i].DecommissioningDate)
		}
		rows = append(rows, r...)
	}

	out := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, deRecord(row, tr))
	}
	return out, nil
}

func decodeDE(x DEExtract, tr *domain.Translator, needsSource bool) ([]DERow, error) {
	if err := checkHeader(x.Table); err != nil {
		return nil, err
	}
	c := translateHeader(x.Table, tr, domain.CountryDE)
	required := []string{colElectricalCapacity + kWSuffix + "|" + colElectricalCapacity}
	if needsSource {
		required = append(required, colEnergySource)
	}
	if err := c.require(required...); err != nil {
		return nil, err
	}

	rows := make([]DERow, 0, len(x.Table.Rows))
	for i, raw := range x.Table.Rows {
		if blank(raw) {
			continue
		}
		rows = append(rows, DERow{
			DataSource:          x.DataSource,
			Ordinal:             i + 1,
			CommissioningDate:   c.get(raw, colCommissioningDate),
			DecommissioningDate: c.get(raw, colDecommissioningDate),
			NotificationReason:  c.get(raw, colNotificationReason),
			EnergySource:        c.get(raw, colEnergySource),
			ElectricalCapacity:  c.capacity(raw, colElectricalCapacity, x.Format),
			ThermalCapacity:     c.capacity(raw, colThermalCapacity, x.Format),
			VoltageLevel:        c.get(raw, colVoltageLevel),
			DSO:                 c.get(raw, colDSO),
			TSO:                 c.get(raw, colTSO),
			EEGID:               c.get(raw, colEEGID),
			BNetzAID:            c.get(raw, colBNetzAID),
			FederalState:        c.get(raw, colFederalState),
			Postcode:            c.get(raw, colPostcode),
			MunicipalityCode:    c.get(raw, colMunicipalityCode),
			Municipality:        c.get(raw, colMunicipality),
			Address:             c.get(raw, colAddress),
			AddressNumber:       c.get(raw, colAddressNumber),
			UTMZone:             c.get(raw, colUTMZone),
			UTMEast:             c.get(raw, colUTMEast),
			UTMNorth:            c.get(raw, colUTMNorth),
			Format:              x.Format,
		})
	}
	return rows, nil
}

func deRecord(row DERow, tr *domain.Translator) domain.Record {
	var source, subtype string
	if row.DataSource == domain.SourceBNetzAPV {
		source, subtype = domain.EnergySolar, domain.SubtypePhotovoltaics
	} else {
		source, subtype = tr.HarmonizeEnergySource(domain.CountryDE, row.EnergySource)
	}

	zone := parseZone(row.UTMZone)
	east := domain.ParseNumber(row.UTMEast, row.Format)
	if zone != nil && east != nil {
		east = domain.Ptr(domain.CorrectEasting(*east, *zone))
	}

	return domain.Record{
		ID:                  domain.NewRecordID(domain.CountryDE, row.DataSource, row.Ordinal, row.EEGID, row.BNetzAID, row.CommissioningDate),
		Country:             domain.CountryDE,
		DataSource:          row.DataSource,
		CommissioningDate:   domain.ParseDate(row.CommissioningDate),
		DecommissioningDate: domain.ParseDate(row.DecommissioningDate),
		NotificationReason:  row.NotificationReason,
		EnergySource:        source,
		EnergySourceSubtype: subtype,
		ElectricalCapacity:  row.ElectricalCapacity,
		ThermalCapacity:     row.ThermalCapacity,
		VoltageLevel:        row.VoltageLevel,
		DSO:                 row.DSO,
		TSO:                 row.TSO,
		EEGID:               row.EEGID,
		BNetzAID:            row.BNetzAID,
		FederalState:        row.FederalState,
		Postcode:            row.Postcode,
		MunicipalityCode:    row.MunicipalityCode,
		Municipality:        row.Municipality,
		Address:             row.Address,
		AddressNumber:       row.AddressNumber,
		UTMZone:             zone,
		UTMEast:             east,
		UTMNorth:            domain.ParseNumber(row.UTMNorth, row.Format),
	}
}

// normalizeDecommissioning repairs BNetzA decommissioning cells: the "nan"
// sentinel becomes empty and anything longer than a date is cut to its first
// ten characters.
func normalizeDecommissioning(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	if len(s) > 10 {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			// Spreadsheet serial with a time fraction.
			return s
		}
		return s[:10]
	}
	return s
}
