package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Rule identifiers in evaluation order.
const (
	RuleStaleRegistration = "R_1"
	RuleNoCommissioning   = "R_2"
	RuleNotCommissioned   = "R_3"
	RuleTooEarly          = "R_4"
	RuleSourceUnavailable = "R_5"
	RuleNonPositive       = "R_6"
	RuleNoCapacity        = "R_7"
)

// RuleConfig holds the thresholds of the validation rules.
type RuleConfig struct {
	// StaleCutoff and StaleSources: records of these sources commissioned on
	// or before the cutoff are covered by other registries (R_1).
	StaleCutoff  time.Time
	StaleSources []string

	// StatusSource records must carry CommissionedStatus as notification
	// reason (R_3). An empty StatusSource disables the rule.
	StatusSource       string
	CommissionedStatus string

	// EarliestCommissioning is the earliest plausible commissioning date per
	// energy source (R_4).
	EarliestCommissioning map[string]time.Time

	// UnavailableSource is the placeholder a registry uses for an unknown
	// energy source (R_5).
	UnavailableSource string
}

// DefaultRuleConfig returns the thresholds used for the published dataset.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		StaleCutoff:        time.Date(2014, time.December, 31, 0, 0, 0, 0, time.UTC),
		StaleSources:       []string{SourceBNetzA, SourceBNetzAPV},
		StatusSource:       SourceBNetzA,
		CommissionedStatus: "Inbetriebnahme",
		EarliestCommissioning: map[string]time.Time{
			EnergySolar: time.Date(1975, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		UnavailableSource: "#NV",
	}
}

// Rule is one validation check.
type Rule struct {
	ID          string
	Description string
	match       func(Record) bool
}

// Matches reports whether rec violates the rule.
func (r Rule) Matches(rec Record) bool {
	return r.match(rec)
}

// Validator tags records that violate plausibility rules. It never removes a
// record or an existing tag.
type Validator struct {
	rules []Rule
}

// NewValidator builds the ordered rule set from cfg.
func NewValidator(cfg RuleConfig) *Validator {
	stale := slices.Clone(cfg.StaleSources)
	earliest := make(map[string]time.Time, len(cfg.EarliestCommissioning))
	for k, v := range cfg.EarliestCommissioning {
		earliest[k] = v
	}

	return &Validator{rules: []Rule{
		{
			ID: RuleStaleRegistration,
			Description: fmt.Sprintf("Listed by %s and commissioned on or before %s; covered by the grid operator lists",
				strings.Join(stale, "/"), cfg.StaleCutoff.Format(time.DateOnly)),
			match: func(r Record) bool {
				return r.CommissioningDate != nil &&
					!r.CommissioningDate.After(cfg.StaleCutoff) &&
					slices.Contains(stale, r.DataSource)
			},
		},
		{
			ID:          RuleNoCommissioning,
			Description: "No commissioning date",
			match:       func(r Record) bool { return r.CommissioningDate == nil },
		},
		{
			ID:          RuleNotCommissioned,
			Description: fmt.Sprintf("Notification reason in %s data is not %q", cfg.StatusSource, cfg.CommissionedStatus),
			match: func(r Record) bool {
				return cfg.StatusSource != "" &&
					r.DataSource == cfg.StatusSource &&
					r.NotificationReason != cfg.CommissionedStatus
			},
		},
		{
			ID:          RuleTooEarly,
			Description: "Commissioning date earlier than plausible for the energy source",
			match: func(r Record) bool {
				limit, ok := earliest[r.EnergySource]
				return ok && r.CommissioningDate != nil && r.CommissioningDate.Before(limit)
			},
		},
		{
			ID:          RuleSourceUnavailable,
			Description: fmt.Sprintf("Energy source not available (%s)", cfg.UnavailableSource),
			match: func(r Record) bool {
				return cfg.UnavailableSource != "" && r.EnergySource == cfg.UnavailableSource
			},
		},
		{
			ID:          RuleNonPositive,
			Description: "Electrical capacity zero or negative",
			match:       func(r Record) bool { return r.ElectricalCapacity != nil && *r.ElectricalCapacity <= 0 },
		},
		{
			ID:          RuleNoCapacity,
			Description: "Electrical capacity missing",
			match:       func(r Record) bool { return r.ElectricalCapacity == nil },
		},
	}}
}

// Rules returns the rules in evaluation order.
func (v *Validator) Rules() []Rule {
	return slices.Clone(v.rules)
}

// Check evaluates every rule against rec and appends the tag of each
// violated rule to a copy of its comment.
func (v *Validator) Check(rec Record) Record {
	comment := slices.Clone(rec.Comment)
	for _, rule := range v.rules {
		if rule.match(rec) {
			comment = append(comment, rule.ID)
		}
	}
	rec.Comment = comment
	return rec
}

// Validate checks every record and returns the tagged copies in input order.
func (v *Validator) Validate(records []Record) []Record {
	out := make([]Record, len(records))
	for i := range records {
		out[i] = v.Check(records[i])
	}
	return out
}

// FlagCounts returns how many records carry each rule tag, keyed by rule ID.
func FlagCounts(records []Record) map[string]int {
	counts := make(map[string]int)
	for i := range records {
		for _, tag := range records[i].Comment {
			counts[tag]++
		}
	}
	return counts
}
