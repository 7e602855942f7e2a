package domain

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// ColumnEntry maps a source column name of one country to its canonical name.
type ColumnEntry struct {
	Country   Country
	Original  string
	Canonical string
}

// ValueEntry maps a categorical source value of one country to its canonical
// value. EnergySource, when set, is the parent energy source of Canonical and
// feeds the subtype dictionary.
type ValueEntry struct {
	Country      Country
	Original     string
	Canonical    string
	EnergySource string
}

// Miss kinds.
const (
	MissColumn = "column"
	MissValue  = "value"
)

// Miss describes a name the translation tables did not cover.
type Miss struct {
	Kind     string
	Country  Country
	Original string
}

// MissCount is a Miss with the number of times it was observed.
type MissCount struct {
	Miss
	Count int
}

type lookupKey struct {
	country Country
	name    string
}

// Translator renames columns and categorical values into the canonical
// vocabulary. Lookups are total: unmapped names pass through unchanged and
// are recorded as misses. The tables are immutable after construction, so a
// Translator is safe for concurrent use.
type Translator struct {
	columns map[lookupKey]string
	values  map[lookupKey]string
	parents map[lookupKey]string

	onMiss func(Miss)

	mu     sync.Mutex
	misses map[Miss]int
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*Translator)

// WithMissHook registers fn to be called the first time each distinct miss
// is observed. fn may be called from several goroutines at once.
func WithMissHook(fn func(Miss)) TranslatorOption {
	return func(t *Translator) { t.onMiss = fn }
}

// NewTranslator builds a Translator from the column and value tables. When a
// key appears twice the last entry wins.
func NewTranslator(columns []ColumnEntry, values []ValueEntry, opts ...TranslatorOption) *Translator {
	t := &Translator{
		columns: make(map[lookupKey]string, len(columns)),
		values:  make(map[lookupKey]string, len(values)),
		parents: make(map[lookupKey]string),
		misses:  make(map[Miss]int),
	}
	for _, c := range columns {
		t.columns[lookupKey{c.Country, strings.TrimSpace(c.Original)}] = c.Canonical
	}
	for _, v := range values {
		t.values[lookupKey{v.Country, strings.TrimSpace(v.Original)}] = v.Canonical
		if v.EnergySource != "" {
			t.parents[lookupKey{v.Country, v.Canonical}] = v.EnergySource
		}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Column returns the canonical name of a source column.
func (t *Translator) Column(country Country, original string) string {
	name := strings.TrimSpace(original)
	if canonical, ok := t.columns[lookupKey{country, name}]; ok {
		return canonical
	}
	t.miss(Miss{Kind: MissColumn, Country: country, Original: name})
	return name
}

// Value returns the canonical form of a categorical value. Empty values are
// returned as is.
func (t *Translator) Value(country Country, original string) string {
	v := strings.TrimSpace(original)
	if v == "" {
		return ""
	}
	if canonical, ok := t.values[lookupKey{country, v}]; ok {
		return canonical
	}
	t.miss(Miss{Kind: MissValue, Country: country, Original: v})
	return v
}

// Parent returns the energy source a canonical subtype belongs to. Values
// without a parent are their own energy source.
func (t *Translator) Parent(country Country, subtype string) string {
	if parent, ok := t.parents[lookupKey{country, subtype}]; ok {
		return parent
	}
	return subtype
}

// HarmonizeEnergySource translates a raw energy source value, keeps the
// translated value as the subtype and lifts the energy source to its parent.
func (t *Translator) HarmonizeEnergySource(country Country, raw string) (energySource, subtype string) {
	subtype = t.Value(country, raw)
	if subtype == "" {
		return "", ""
	}
	return t.Parent(country, subtype), subtype
}

// Consistent reports whether rec's subtype resolves to its energy source.
func (t *Translator) Consistent(rec Record) bool {
	if rec.EnergySourceSubtype == "" {
		return true
	}
	return t.Parent(rec.Country, rec.EnergySourceSubtype) == rec.EnergySource
}

// Misses returns every unmapped lookup seen so far, sorted by kind, country
// and name.
func (t *Translator) Misses() []MissCount {
	t.mu.Lock()
	out := make([]MissCount, 0, len(t.misses))
	for m, n := range t.misses {
		out = append(out, MissCount{Miss: m, Count: n})
	}
	t.mu.Unlock()

	slices.SortFunc(out, func(a, b MissCount) int {
		return cmp.Or(
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Country, b.Country),
			cmp.Compare(a.Original, b.Original),
		)
	})
	return out
}

func (t *Translator) miss(m Miss) {
	t.mu.Lock()
	first := t.misses[m] == 0
	t.misses[m]++
	t.mu.Unlock()

	if first && t.onMiss != nil {
		t.onMiss(m)
	}
}
