// Command genmock writes a small deterministic input bundle covering all four
// countries: registry extracts in their native formats, the translation and
// centroid lookup tables, a reference statistic and the pipeline definition
// tying them together. The bundle is meant for smoke runs of cmd/etl.
//
// Usage:
//
//	go run ./cmd/genmock -out input -pipeline pipeline.yml
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Cache directory below the input directory, matching the CACHE_DIR default.
const originalData = "original_data"

// sheet is one worksheet of a generated workbook.
type sheet struct {
	name string
	rows [][]any
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "input", "input directory to write the lookup tables into")
	pipelinePath := flag.String("pipeline", "pipeline.yml", "path of the generated pipeline definition")
	flag.Parse()

	raw := filepath.Join(*out, originalData)
	if err := os.MkdirAll(raw, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", raw, err)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"column translations", func() error { return writeCSV(filepath.Join(*out, "column_translation_list.csv"), columnTranslations) }},
		{"value translations", func() error { return writeCSV(filepath.Join(*out, "value_translation_list.csv"), valueTranslations) }},
		{"postcode centroids DE", func() error { return writeCSV(filepath.Join(*out, "postcodes_de.csv"), postcodesDE) }},
		{"postcode centroids DK", func() error { return writeCSV(filepath.Join(*out, "postcodes_dk.csv"), postcodesDK) }},
		{"municipality centroids FR", func() error { return writeCSV(filepath.Join(*out, "communes_fr.csv"), communesFR) }},
		{"reference statistic", func() error { return writeCSV(filepath.Join(*out, "reference_bmwi.csv"), referenceDE) }},
		{"DE grid operator extract", func() error {
			return writeEncoded(filepath.Join(raw, "50Hertz_Anlagenstammdaten.csv"), tsoExtract(), charmap.Windows1252)
		}},
		{"DE photovoltaics registry", func() error {
			return writeXLSX(filepath.Join(raw, "Meldungen_PV.xlsx"), bnetzaPVSheets())
		}},
		{"DE general registry", func() error {
			return writeXLSX(filepath.Join(raw, "Anlagenregister.xlsx"), []sheet{{"Gesamtübersicht", bnetzaRows()}})
		}},
		{"DK wind register", func() error {
			return writeXLSX(filepath.Join(raw, "anlaegprodtilnettet.xlsx"), []sheet{{"Data", dkWindRows()}})
		}},
		{"DK solar list", func() error {
			return writeXLSX(filepath.Join(raw, "SolcellerGraf.xlsx"), []sheet{{"Solceller", dkSolarRows()}})
		}},
		{"FR cross tabulation", func() error {
			return writeXLSX(filepath.Join(raw, "prod_elec_commune.xlsx"), []sheet{{"Commune", frRows()}})
		}},
		{"PL report", func() error {
			return writeEncoded(filepath.Join(raw, "moc_zainstalowana.rtf"), plReport(), charmap.ISO8859_2)
		}},
		{"pipeline definition", func() error {
			return os.WriteFile(*pipelinePath, []byte(pipelineDefinition), 0o600)
		}},
	}

	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("write %s: %w", s.name, err)
		}
		log.Printf("%s written", s.name)
	}
	log.Printf("bundle written to %s, definition to %s", *out, *pipelinePath)
	return nil
}

// ── lookup tables ──

var columnTranslations = [][]string{
	{"country", "original_name", "opsd_name"},
	{"DE", "Inbetriebnahmedatum", "commissioning_date"},
	{"DE", "Außerbetriebnahmedatum", "decommissioning_date"},
	{"DE", "Meldegrund", "notification_reason"},
	{"DE", "Energieträger", "energy_source"},
	{"DE", "Installierte Leistung [kW]", "electrical_capacity_kW"},
	{"DE", "Spannungsebene", "voltage_level"},
	{"DE", "Netzbetreiber", "dso"},
	{"DE", "EEG-Anlagenschlüssel", "eeg_id"},
	{"DE", "Bundesland", "federal_state"},
	{"DE", "PLZ", "postcode"},
	{"DE", "Ort", "municipality"},
	{"DE", "Gemeindeschlüssel", "municipality_code"},
	{"DE", "UTM-Zone", "utm_zone"},
	{"DE", "UTM-Ost", "utm_east"},
	{"DE", "UTM-Nord", "utm_north"},
	{"DK", "Møllenummer (GSRN)", "gsrn_id"},
	{"DK", "Dato for oprindelig nettilslutning", "commissioning_date"},
	{"DK", "Kapacitet (kW)", "electrical_capacity_kW"},
	{"DK", "Type af placering", "energy_source_subtype"},
	{"DK", "X (øst) koordinat UTM 32 Euref89", "utm_east"},
	{"DK", "Y (nord) koordinat UTM 32 Euref89", "utm_north"},
	{"DK", "Postnr", "postcode"},
	{"DK", "Installeret effekt (kW)", "electrical_capacity_kW"},
	{"FR", "Nombre d'installations", "number_of_installations"},
	{"FR", "Puissance installée (MW)", "electrical_capacity"},
}

var valueTranslations = [][]string{
	{"country", "original_name", "opsd_name", "energy_source"},
	{"DE", "Solar", "Photovoltaics", "Solar"},
	{"DE", "Wind an Land", "Wind onshore", "Wind"},
	{"DE", "Wind auf See", "Wind offshore", "Wind"},
	{"DE", "Biomasse", "Biomass and biogas", "Biomass"},
	{"DE", "Wasserkraft", "Run-of-river", "Hydro"},
	{"DE", "Klärgas", "Sewage and landfill gas", "Gas"},
	{"DK", "LAND", "Wind onshore", "Wind"},
	{"DK", "HAV", "Wind offshore", "Wind"},
	{"FR", "Eolien", "Wind", "Wind"},
	{"FR", "Photovoltaïque", "Photovoltaics", "Solar"},
	{"FR", "Hydraulique", "Run-of-river", "Hydro"},
	{"PL", "elektrownie wiatrowe", "Wind onshore", "Wind"},
	{"PL", "elektrownie słoneczne", "Photovoltaics", "Solar"},
	{"PL", "biogazownie", "Biogas", "Biomass"},
}

var postcodesDE = [][]string{
	{"postcode", "lat", "lon"},
	{"10115", "52.5323", "13.3846"},
	{"01067", "51.0574", "13.7215"},
	{"18055", "54.0887", "12.1405"},
	{"39104", "52.1205", "11.6276"},
}

var postcodesDK = [][]string{
	{"postcode", "lat", "lon"},
	{"8000", "56.1567", "10.2108"},
	{"5000", "55.4038", "10.4024"},
}

var communesFR = [][]string{
	{"code_insee", "Geo Point"},
	{"01001", "46.1534, 4.9260"},
	{"75056", "48.8566, 2.3522"},
	{"2A004", "41.9192, 8.7386"},
}

var referenceDE = [][]string{
	{"year", "hydro", "wind_onshore", "wind_offshore", "solar", "biomass", "biomass_liquid", "biomass_gas", "sewage_gas", "landfill_gas", "geothermal", "total"},
	{"2014", "0", "2.5", "0", "0.01", "0.5", "0", "0", "0", "0", "0", "3.01"},
	{"2015", "0.3", "5", "5", "0.1", "0.5", "0", "0", "0.05", "0", "0", "10.95"},
}

// ── registry extracts ──

func tsoExtract() string {
	rows := [][]string{
		{"EEG-Anlagenschlüssel", "Inbetriebnahmedatum", "Außerbetriebnahmedatum", "Energieträger", "Installierte Leistung [kW]",
			"Spannungsebene", "Netzbetreiber", "Bundesland", "PLZ", "Ort", "UTM-Zone", "UTM-Ost", "UTM-Nord"},
		{"E1234501", "01.03.2012", "", "Wind an Land", "2.500,0", "HS", "50Hertz", "Brandenburg", "", "Prenzlau", "33", "33414000", "5920000"},
		{"E1234502", "15.06.2015", "", "Wind auf See", "5.000", "HöS", "50Hertz", "Mecklenburg-Vorpommern", "18055", "Rostock", "", "", ""},
		{"E1234503", "30.09.2009", "31.12.2015", "Biomasse", "500", "MS", "50Hertz", "Sachsen", "01067", "Dresden", "", "", ""},
		{"E1234504", "", "", "Klärgas", "50", "NS", "50Hertz", "Sachsen-Anhalt", "39104", "Magdeburg", "", "", ""},
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Comma = ';'
	w.WriteAll(rows) //nolint:errcheck // strings.Builder does not fail
	return b.String()
}

func bnetzaPVSheets() []sheet {
	header := []any{"Inbetriebnahmedatum", "Bundesland", "PLZ", "Installierte Leistung [kW]"}
	return []sheet{
		{"Januar 2015", [][]any{header, {"2015-01-12", "Berlin", "10115", "9.8"}, {"2015-01-20", "Sachsen", "01067", "30"}}},
		{"Februar 2015", [][]any{header, {"2015-02-03", "Berlin", "10115", "120"}}},
	}
}

func bnetzaRows() [][]any {
	return [][]any{
		{"Meldegrund", "Inbetriebnahmedatum", "Außerbetriebnahmedatum", "Energieträger", "Installierte Leistung [kW]", "PLZ", "Gemeindeschlüssel"},
		{"Inbetriebnahme", "2015-03-01", "nan", "Solar", "500", "10115", "11000000"},
		{"Inbetriebnahme", "2014-08-01", "nan", "Wasserkraft", "300", "", "14612000"},
		{"Leistungserhöhung", "2015-07-01", "nan", "Wind an Land", "0", "39104", ""},
		{"Inbetriebnahme", "1970-05-01", "nan", "Solar", "10", "01067", ""},
		{"Inbetriebnahme", "2015-11-30", "nan", "#NV", "75", "", ""},
	}
}

func dkWindRows() [][]any {
	return [][]any{
		{"Møllenummer (GSRN)", "Dato for oprindelig nettilslutning", "Kapacitet (kW)", "Type af placering",
			"X (øst) koordinat UTM 32 Euref89", "Y (nord) koordinat UTM 32 Euref89"},
		{"570714700000000001", "1991-09-01", "450", "LAND", "512000", "6200000"},
		{"570714700000000002", "2003-12-01", "2300", "HAV", "32612000", "6150000"},
		{"570714700000000003", "2013-04-15", "3600", "LAND", "", ""},
	}
}

func dkSolarRows() [][]any {
	return [][]any{
		{"Postnr", "Installeret effekt (kW)", "Dato for oprindelig nettilslutning"},
		{"8000", "6", "2012-11-15"},
		{"5000", "4.5", "2013-02-01"},
		{"9999", "3", "2013-03-01"},
	}
}

func frRows() [][]any {
	const count, capacity = "Nombre d'installations", "Puissance installée (MW)"
	return [][]any{
		{"Code INSEE", "Commune", "Eolien", "Eolien", "Photovoltaïque", "Photovoltaïque", "Hydraulique", "Hydraulique"},
		{"", "", count, capacity, count, capacity, count, capacity},
		{"1001", "L'Abergement-Clémenciat", "", "", "s", "0.012", "", ""},
		{"75056", "Paris", "", "", "412", "3.5", "", ""},
		{"2A004", "Ajaccio", "2", "12", "35", "0.4", "1", "0.9"},
	}
}

// plReport renders the district report in the layout of the regulator's
// RTF export.
func plReport() string {
	label := func(pattern, text string) string {
		return `\fs12 \f1 \pard \intbl \ql \cbpat` + pattern + ` {\fs12 \f1  ` + text + `}\cell `
	}
	value := func(pattern, text string) string {
		return `\fs12 \f1 \pard \intbl \qr \cbpat` + pattern + ` {\fs12 \f1 ` + text + `}\cell `
	}
	district := func(name string, rows ...string) string {
		return `{\b Powiat: ` + name + `}\trql` + strings.Join(rows, `\trql`)
	}
	header := label("1", "Rodzaj instalacji") + value("1", "Liczba") + value("1", "Moc [MW]")

	return strings.Join([]string{
		`{\rtf1\ansi\deff0 {\fonttbl{\f1 Arial;}}`,
		district("krakowski",
			header,
			label("3", "elektrownie wiatrowe")+value("3", "12")+value("3", "24.5"),
			label("4", "elektrownie wiatrowe")+value("4", "1,003")+value("4", "5.5"),
			label("2", "biogazownie")+label("2", "elektrownie słoneczne")+
				value("3", "3")+value("3", "1.2")+value("3", "40")+value("3", "0.8"),
		),
		district(`\uc0\u322 \uc0\u243 dzki`,
			header,
			label("3", "elektrownie wiatrowe")+value("3", "1")+value("3", "2"),
		),
		district("pusty", header),
		`}`,
	}, `{\fs12 \f1 \line }`)
}

const pipelineDefinition = `sources:
  - name: 50Hertz
    role: tso
    file: 50Hertz_Anlagenstammdaten.csv
    delimiter: ";"
    encoding: cp1252
    decimal: comma
  - name: BNetzA_PV
    role: bnetza_pv
    file: Meldungen_PV.xlsx
    all_sheets: true
  - name: BNetzA
    role: bnetza
    file: Anlagenregister.xlsx
    sheet: Gesamtübersicht
  - name: Energistyrelsen
    role: dk_wind
    file: anlaegprodtilnettet.xlsx
  - name: Energinet.dk
    role: dk_solar
    file: SolcellerGraf.xlsx
  - name: gouv.fr
    role: fr
    file: prod_elec_commune.xlsx
  - name: Urzad Regulacji Energetyki
    role: pl
    file: moc_zainstalowana.rtf
    encoding: iso-8859-2

lookups:
  columns: column_translation_list.csv
  values: value_translation_list.csv
  reference: reference_bmwi.csv
  postcodes:
    - file: postcodes_de.csv
      country: DE
    - file: postcodes_dk.csv
      country: DK
  municipalities:
    - file: communes_fr.csv
      country: FR
      key: code_insee

report:
  country: DE
  daily:
    start: "2012-01-01"
    end: "2016-01-31"
  yearly:
    first: 2010
    last: 2015
`

// ── writers ──

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeEncoded(path, content string, enc encoding.Encoding) error {
	encoded, err := enc.NewEncoder().String(content)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, []byte(encoded), 0o600)
}

func writeXLSX(path string, sheets []sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return err
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}
