package extraction

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PairSource supplies the unsafe-pair table.  The neo4j-backed interaction
// graph implements this; the zero-dependency default is the built-in table.
type PairSource interface {
	Pairs(ctx context.Context) ([]InteractionPair, error)
}

// StaticPairSource serves a fixed in-memory table.
type StaticPairSource struct {
	pairs []InteractionPair
}

// NewStaticPairSource copies the given table.  A nil table means the built-in
// default pairs.
func NewStaticPairSource(pairs []InteractionPair) *StaticPairSource {
	if pairs == nil {
		pairs = DefaultInteractionPairs
	}
	cp := make([]InteractionPair, len(pairs))
	copy(cp, pairs)
	return &StaticPairSource{pairs: cp}
}

// Pairs returns the table.  Never fails.
func (s *StaticPairSource) Pairs(context.Context) ([]InteractionPair, error) {
	return s.pairs, nil
}

// InteractionChecker scans a drug-name list against an unsafe-pair table.
// Presence-only: a pair warns when both names appear anywhere in the list,
// regardless of order, adjacency, or dosage.  At most one warning per table
// pair per call.
type InteractionChecker struct {
	source PairSource
}

// NewInteractionChecker builds a checker over the given source; nil means the
// built-in table.
func NewInteractionChecker(source PairSource) *InteractionChecker {
	if source == nil {
		source = NewStaticPairSource(nil)
	}
	return &InteractionChecker{source: source}
}

// Check lowercases every input name and emits one interaction alert per table
// pair whose two names are both present.  A source failure degrades to the
// built-in table rather than failing the scan.
func (c *InteractionChecker) Check(ctx context.Context, drugNames []string) []Alert {
	pairs, err := c.source.Pairs(ctx)
	if err != nil || len(pairs) == 0 {
		pairs = DefaultInteractionPairs
	}

	present := make(map[string]bool, len(drugNames))
	for _, name := range drugNames {
		present[strings.ToLower(strings.TrimSpace(name))] = true
	}

	// cases.Caser is stateful; one checker serves concurrent requests, so a
	// fresh caser is built per call instead of being shared.
	title := cases.Title(language.English)

	var warnings []Alert
	for _, p := range pairs {
		if present[p.First] && present[p.Second] {
			warnings = append(warnings, Alert{
				Cause: CauseInteraction,
				Message: fmt.Sprintf("INTERACTION WARNING: %s + %s",
					title.String(p.First), title.String(p.Second)),
			})
		}
	}
	return warnings
}
