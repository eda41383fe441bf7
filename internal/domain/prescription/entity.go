// Package prescription defines the core entities produced by the extraction
// pipeline: a raw prescription document and the structured drug mentions
// extracted from it.
package prescription

import (
	"strings"
	"time"
)

// DrugMention is a candidate structured medication record extracted from raw
// prescription text.  Only drug_name is guaranteed non-empty for retained
// mentions; every other field may be empty, meaning "not determined".
type DrugMention struct {
	DrugName  string  `json:"drug_name"`
	Dosage    string  `json:"dosage"`
	Frequency string  `json:"frequency"`
	Duration  string  `json:"duration"`

	// Confidence is 1.0 for rule-based and manually corrected mentions, and
	// the model score in [0,1] for model-based mentions.
	Confidence float64 `json:"confidence"`
}

// DisplayName returns the drug name suitable for alert text, substituting
// "unknown drug" for an empty name.
func (m DrugMention) DisplayName() string {
	if strings.TrimSpace(m.DrugName) == "" {
		return "unknown drug"
	}
	return m.DrugName
}

// Names extracts the drug names of a mention list, preserving order and case.
func Names(mentions []DrugMention) []string {
	names := make([]string, 0, len(mentions))
	for _, m := range mentions {
		names = append(names, m.DrugName)
	}
	return names
}

// Prescription is a persisted raw prescription document.  The structured
// medications derived from it are owned by the medication domain and reference
// the prescription by ID.
type Prescription struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patient_id"`
	ImagePath string    `json:"image_path,omitempty"`
	RawText   string    `json:"raw_text"`
	Timestamp time.Time `json:"timestamp"`
}
