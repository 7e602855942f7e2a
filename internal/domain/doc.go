// Package domain models the harmonized master table of renewable power plants
// and the pure stages that operate on it.
//
// # Registries
//
// Records originate from national registries that publish plant lists in
// their own formats and vocabulary:
//
//	DE  TransnetBW, TenneT, Amprion, 50Hertz  grid operator lists (CSV, decimal comma)
//	DE  BNetzA, BNetzA_PV                     Federal Network Agency registry (XLSX)
//	DK  Energistyrelsen                       wind turbine register with UTM coordinates
//	DK  Energinet.dk                          solar installations by postcode
//	FR  gouv.fr                               municipality × energy source cross tabulation
//	PL  Urzad Regulacji Energetyki            RTF report aggregated per district
//
// The source adapters in package source turn each of them into [Record]
// values; this package holds everything that is shared afterwards.
//
// # Canonical Vocabulary
//
// Column names and categorical values are translated by a [Translator] built
// from two tables keyed by (country, original name). The value table also
// names the parent energy source of each canonical value, which yields the
// subtype dictionary:
//
//	"Windkraft an Land" → subtype "Wind onshore" → energy source "Wind"
//
// Every record's energy_source_subtype resolves to its energy_source through
// that dictionary. Values with no parent are their own energy source.
//
// Capacities are stored in MW. Registries that publish kW are converted with
// decimal arithmetic ([KWToMW]) so that 500 kW is exactly 0.5 MW.
//
// # Georeferencing
//
// [Georeferencer] fills latitude and longitude in priority order: existing
// coordinates, UTM conversion (zone letter U, northern hemisphere), postcode
// centroid, municipality code centroid. Some registries glue the zone number
// in front of the easting (32412345.67 in zone 32); [CorrectEasting] strips it
// when the integer part is wider than six digits.
//
// # Validation
//
// [Validator] runs the ordered rules R_1 through R_7 over each record and
// appends the tag of each violated rule to the record's comment. Tags are
// only ever appended. A record with an empty comment is clean and feeds the
// capacity statistics; all others are suspect but stay in the master table.
//
//	R_1  commissioned on/before the cutoff and listed by BNetzA or BNetzA_PV
//	R_2  commissioning date missing
//	R_3  BNetzA notification reason other than "Inbetriebnahme"
//	R_4  commissioning date earlier than plausible (solar before 1975)
//	R_5  energy source is the registry's "#NV" placeholder
//	R_6  electrical capacity zero or negative
//	R_7  electrical capacity missing
//
// # ID Generation
//
// Record IDs are deterministic SHA-256 hashes of country|data source|ordinal
// and key fields, so reruns over the same inputs produce identical IDs. See
// [NewRecordID].
package domain
