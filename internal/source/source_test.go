package source

import (
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
)

func newTestTranslator() *domain.Translator {
	columns := []domain.ColumnEntry{
		{Country: domain.CountryDE, Original: "Inbetriebnahmedatum", Canonical: "commissioning_date"},
		{Country: domain.CountryDE, Original: "Außerbetriebnahmedatum", Canonical: "decommissioning_date"},
		{Country: domain.CountryDE, Original: "Meldegrund", Canonical: "notification_reason"},
		{Country: domain.CountryDE, Original: "Energieträger", Canonical: "energy_source"},
		{Country: domain.CountryDE, Original: "Installierte Leistung [kW]", Canonical: "electrical_capacity_kW"},
		{Country: domain.CountryDE, Original: "PLZ", Canonical: "postcode"},
		{Country: domain.CountryDE, Original: "EEG-Anlagenschlüssel", Canonical: "eeg_id"},
		{Country: domain.CountryDE, Original: "UTM-Zone", Canonical: "utm_zone"},
		{Country: domain.CountryDE, Original: "UTM-Ost", Canonical: "utm_east"},
		{Country: domain.CountryDE, Original: "UTM-Nord", Canonical: "utm_north"},

		{Country: domain.CountryDK, Original: "Dato for oprindelig nettilslutning", Canonical: "commissioning_date"},
		{Country: domain.CountryDK, Original: "Kapacitet (kW)", Canonical: "electrical_capacity_kW"},
		{Country: domain.CountryDK, Original: "Type af placering", Canonical: "energy_source_subtype"},
		{Country: domain.CountryDK, Original: "X (øst) koordinat UTM 32 Euref89", Canonical: "utm_east"},
		{Country: domain.CountryDK, Original: "Y (nord) koordinat UTM 32 Euref89", Canonical: "utm_north"},
		{Country: domain.CountryDK, Original: "Møllenummer (GSRN)", Canonical: "gsrn_id"},
		{Country: domain.CountryDK, Original: "Postnr", Canonical: "postcode"},
		{Country: domain.CountryDK, Original: "Installeret effekt (kW)", Canonical: "electrical_capacity_kW"},

		{Country: domain.CountryFR, Original: "Nombre d'installations", Canonical: "number_of_installations"},
		{Country: domain.CountryFR, Original: "Puissance installée (MW)", Canonical: "electrical_capacity"},
	}
	values := []domain.ValueEntry{
		{Country: domain.CountryDE, Original: "Solar", Canonical: "Photovoltaics", EnergySource: "Solar"},
		{Country: domain.CountryDE, Original: "Wind an Land", Canonical: "Wind onshore", EnergySource: "Wind"},
		{Country: domain.CountryDE, Original: "Biomasse", Canonical: "Biomass and biogas", EnergySource: "Biomass"},
		{Country: domain.CountryDK, Original: "LAND", Canonical: "Wind onshore", EnergySource: "Wind"},
		{Country: domain.CountryDK, Original: "HAV", Canonical: "Wind offshore", EnergySource: "Wind"},
		{Country: domain.CountryFR, Original: "Eolien", Canonical: "Wind", EnergySource: "Wind"},
		{Country: domain.CountryFR, Original: "Photovoltaïque", Canonical: "Photovoltaics", EnergySource: "Solar"},
		{Country: domain.CountryPL, Original: "elektrownie wiatrowe", Canonical: "Wind onshore", EnergySource: "Wind"},
		{Country: domain.CountryPL, Original: "elektrownie słoneczne", Canonical: "Photovoltaics", EnergySource: "Solar"},
		{Country: domain.CountryPL, Original: "biogazownie", Canonical: "Biogas", EnergySource: "Biomass"},
	}
	return domain.NewTranslator(columns, values)
}
