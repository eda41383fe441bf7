package ner

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// drugEntityGroups are the label groups treated as drug mentions.  Everything
// else the model returns (dosage spans, person names) is ignored.
var drugEntityGroups = map[string]struct{}{
	"DRUG":       {},
	"MEDICATION": {},
	"CHEMICAL":   {},
}

// Extractor runs the NER model over prescription text.  Availability is
// decided once at construction time with a health probe, so callers get a
// definite answer instead of discovering absence on the first request.
type Extractor struct {
	client    Client
	available bool
	logger    logging.Logger
	metrics   prometheus.Collector
}

// NewExtractor probes the serving backend and returns an Extractor whose
// Available answer reflects the probe result.  A nil client yields a
// permanently unavailable extractor.
func NewExtractor(ctx context.Context, client Client, logger logging.Logger, metrics prometheus.Collector) *Extractor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopCollector()
	}
	e := &Extractor{client: client, logger: logger.Named("ner"), metrics: metrics}
	if client == nil {
		e.logger.Info("ner model not configured, rule extraction only")
		return e
	}
	if err := client.Healthy(ctx); err != nil {
		e.logger.Warn("ner model unavailable, rule extraction only", logging.Err(err))
		return e
	}
	e.available = true
	e.logger.Info("ner model available")
	return e
}

// Available reports whether the model backend answered its startup probe.
func (e *Extractor) Available() bool {
	return e.available
}

// Extract returns drug mentions recognized by the model.  Inference failures
// are logged and produce an empty list; they never abort document processing.
func (e *Extractor) Extract(ctx context.Context, text string) []prescription.DrugMention {
	if !e.available || strings.TrimSpace(text) == "" {
		return nil
	}
	start := time.Now()
	entities, err := e.client.Recognize(ctx, text)
	e.metrics.ObserveModelInference(err == nil, time.Since(start).Seconds())
	if err != nil {
		e.logger.Warn("ner inference failed, continuing without model results", logging.Err(err))
		return nil
	}
	mentions := make([]prescription.DrugMention, 0, len(entities))
	for _, ent := range entities {
		if _, ok := drugEntityGroups[strings.ToUpper(ent.EntityGroup)]; !ok {
			continue
		}
		word := strings.TrimSpace(ent.Word)
		if word == "" {
			continue
		}
		mentions = append(mentions, prescription.DrugMention{
			DrugName:   word,
			Confidence: ent.Score,
		})
	}
	return mentions
}
