package extraction

import (
	"context"
	"time"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// ModelExtractor is the optional model-backed extraction capability.  The
// pipeline works without one; a nil or unavailable extractor means rule
// results stand on their own.
type ModelExtractor interface {
	Available() bool
	Extract(ctx context.Context, text string) []prescription.DrugMention
}

// Result is the outcome of processing one prescription text.
type Result struct {
	Drugs  []prescription.DrugMention `json:"drugs"`
	Alerts []Alert                    `json:"alerts"`
	// Source names which extractor produced the final drug list, "rules"
	// or "model".
	Source string `json:"source"`
}

// AlertMessages returns the alert texts in emission order.
func (r Result) AlertMessages() []string {
	return Messages(r.Alerts)
}

const (
	sourceRules = "rules"
	sourceModel = "model"
)

// Pipeline runs rule extraction, optional model extraction, the merge, and
// alert generation over raw prescription text.
type Pipeline struct {
	rules        *RuleExtractor
	model        ModelExtractor
	interactions *InteractionChecker
	logger       logging.Logger
	metrics      prometheus.Collector
}

// NewPipeline assembles the extraction pipeline.  model may be nil.
func NewPipeline(rules *RuleExtractor, model ModelExtractor, interactions *InteractionChecker, logger logging.Logger, metrics prometheus.Collector) *Pipeline {
	if rules == nil {
		rules = NewRuleExtractor()
	}
	if interactions == nil {
		interactions = NewInteractionChecker(nil)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopCollector()
	}
	return &Pipeline{
		rules:        rules,
		model:        model,
		interactions: interactions,
		logger:       logger.Named("extraction.pipeline"),
		metrics:      metrics,
	}
}

// Process extracts drug mentions from text and attaches validation alerts
// and interaction warnings.  It never fails: degraded stages contribute
// nothing and the rest of the result stands.
func (p *Pipeline) Process(ctx context.Context, text string) Result {
	start := time.Now()

	ruleMentions := p.rules.ExtractText(text)

	var modelMentions []prescription.DrugMention
	if p.model != nil && p.model.Available() {
		modelMentions = p.model.Extract(ctx, text)
	}

	drugs := Merge(ruleMentions, modelMentions)
	source := sourceRules
	if len(modelMentions) > 0 {
		source = sourceModel
	}

	alerts := BuildAlerts(drugs)
	if len(drugs) > 0 {
		names := make([]string, len(drugs))
		for i, d := range drugs {
			names[i] = d.DrugName
		}
		alerts = append(alerts, p.interactions.Check(ctx, names)...)
	}

	for _, a := range alerts {
		p.metrics.IncAlert(string(a.Cause))
	}
	p.metrics.ObserveExtraction(source, len(drugs), time.Since(start).Seconds())
	p.logger.Debug("prescription processed",
		logging.String("source", source),
		logging.Int("drugs", len(drugs)),
		logging.Int("alerts", len(alerts)))

	return Result{Drugs: drugs, Alerts: alerts, Source: source}
}
