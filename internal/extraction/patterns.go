// Package extraction turns free-form OCR prescription text into structured
// drug mentions, produces validation alerts for incomplete entries, and flags
// unsafe drug combinations.  Rule-based extraction always works; model-based
// extraction is an optional capability the pipeline degrades without.
package extraction

import "regexp"

// FrequencyPattern maps a textual abbreviation to its canonical frequency.
// Order matters: the first matching pattern wins.
type FrequencyPattern struct {
	Pattern   *regexp.Regexp
	Canonical string
}

// DefaultFrequencyPatterns is the ordered frequency abbreviation table.
// Patterns are case-insensitive and word-bounded.
var DefaultFrequencyPatterns = []FrequencyPattern{
	{regexp.MustCompile(`(?i)\b(once|OD|qd)\b`), "1x daily"},
	{regexp.MustCompile(`(?i)\b(twice|BID|BD)\b`), "2x daily"},
	{regexp.MustCompile(`(?i)\b(TID|thrice)\b`), "3x daily"},
	{regexp.MustCompile(`(?i)\b(QID)\b`), "4x daily"},
	{regexp.MustCompile(`(?i)\b(PRN)\b`), "as needed"},
	{regexp.MustCompile(`(?i)\b(QHS)\b`), "at bedtime"},
	{regexp.MustCompile(`(?i)\b(Q\d+H)\b`), "every X hours"},
}

// DefaultDosagePatterns is the ordered dosage table: numeric value with unit
// first, then count with a form word.  The extracted dosage is the exact
// matched substring.
var DefaultDosagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(mg|g|ml|mcg|units?)\b`),
	regexp.MustCompile(`(?i)(\d+)\s*(tablet|capsule|pill)s?\b`),
}

// DefaultDurationPattern matches "for 7 days", "x 14 days", "for 2 weeks".
var DefaultDurationPattern = regexp.MustCompile(`(?i)(?:for|x)\s*(\d+)\s*(day|week|month)s?\b`)

// InteractionPair is one unsafe drug combination.  Names are lowercase.
type InteractionPair struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// DefaultInteractionPairs is the built-in unsafe-pair table.  Illustrative,
// not a certified drug database; deployments can replace it from
// configuration or the interaction graph.
var DefaultInteractionPairs = []InteractionPair{
	{First: "warfarin", Second: "aspirin"},
	{First: "metformin", Second: "alcohol"},
}
