package extraction

import "github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"

// Merge combines rule-based and model-based extraction results with a
// document-level precedence rule: a non-empty model list is the final drug
// list and the rule results are discarded entirely; an empty model list
// (capability absent, failed, or found nothing) yields the rule results in
// line order.  Fields are never blended across sources for the same entry.
func Merge(ruleMentions, modelMentions []prescription.DrugMention) []prescription.DrugMention {
	if len(modelMentions) > 0 {
		return modelMentions
	}
	return ruleMentions
}
