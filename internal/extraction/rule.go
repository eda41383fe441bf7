package extraction

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
)

// minLineLength is the shortest trimmed line the rule extractor will look at.
// Shorter lines are skipped entirely, not even an empty candidate is emitted.
const minLineLength = 3

// maxNameTokens is how many leading whitespace tokens form the drug name when
// no dosage anchors it.
const maxNameTokens = 4

// RuleExtractor applies the ordered pattern tables to one line of text at a
// time and produces at most one drug mention per line.  It is stateless and
// safe for concurrent use.
type RuleExtractor struct {
	dosage    []*regexp.Regexp
	frequency []FrequencyPattern
	duration  *regexp.Regexp
}

// NewRuleExtractor builds a RuleExtractor from the default pattern tables.
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{
		dosage:    DefaultDosagePatterns,
		frequency: DefaultFrequencyPatterns,
		duration:  DefaultDurationPattern,
	}
}

// NewRuleExtractorWithTables builds a RuleExtractor from caller-supplied
// tables, keeping table contents and extraction logic independent.
func NewRuleExtractorWithTables(dosage []*regexp.Regexp, frequency []FrequencyPattern, duration *regexp.Regexp) *RuleExtractor {
	return &RuleExtractor{dosage: dosage, frequency: frequency, duration: duration}
}

// ExtractLine extracts a drug mention from one raw line.  The second return
// is false when the line is too short or yields no drug name.
func (e *RuleExtractor) ExtractLine(line string) (prescription.DrugMention, bool) {
	line = strings.TrimSpace(line)
	if len(line) < minLineLength {
		return prescription.DrugMention{}, false
	}

	var m prescription.DrugMention

	// Dosage: first matching pattern wins; the dosage value is the exact
	// matched substring.
	for _, re := range e.dosage {
		if loc := re.FindString(line); loc != "" {
			m.Dosage = loc
			break
		}
	}

	for _, fp := range e.frequency {
		if fp.Pattern.MatchString(line) {
			m.Frequency = fp.Canonical
			break
		}
	}

	if dm := e.duration.FindStringSubmatch(line); dm != nil {
		m.Duration = dm[1] + " " + strings.ToLower(dm[2]) + "s"
	}

	// Drug name: text preceding the first dosage occurrence, otherwise the
	// first few whitespace tokens.
	if m.Dosage != "" {
		m.DrugName = strings.TrimSpace(strings.SplitN(line, m.Dosage, 2)[0])
	} else {
		tokens := strings.Fields(line)
		if len(tokens) > maxNameTokens {
			tokens = tokens[:maxNameTokens]
		}
		m.DrugName = strings.Join(tokens, " ")
	}

	if m.DrugName == "" {
		return prescription.DrugMention{}, false
	}
	m.Confidence = 1.0
	return m, true
}

// ExtractText segments raw text into newline-delimited lines and extracts a
// mention per eligible line, in line order.  The text is NFC-normalized
// before segmentation so OCR output with decomposed code points matches the
// pattern tables.
func (e *RuleExtractor) ExtractText(text string) []prescription.DrugMention {
	var mentions []prescription.DrugMention
	for _, line := range strings.Split(norm.NFC.String(text), "\n") {
		if m, ok := e.ExtractLine(line); ok {
			mentions = append(mentions, m)
		}
	}
	return mentions
}
