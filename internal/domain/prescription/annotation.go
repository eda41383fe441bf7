package prescription

import "time"

// AnnotationStatus tracks how an annotation record reached its current form.
type AnnotationStatus string

const (
	// StatusAutoGenerated marks a record produced by the pipeline and not
	// yet seen by a human.
	StatusAutoGenerated AnnotationStatus = "auto_generated"
	// StatusVerified marks a record a reviewer accepted unchanged.
	StatusVerified AnnotationStatus = "verified"
	// StatusSkipped marks a record a reviewer kept but declined to judge.
	StatusSkipped AnnotationStatus = "skipped"
	// StatusManualCorrection marks a record whose drug list a reviewer
	// replaced by hand.
	StatusManualCorrection AnnotationStatus = "manual_correction"
)

// Valid reports whether s is one of the four known statuses.
func (s AnnotationStatus) Valid() bool {
	switch s {
	case StatusAutoGenerated, StatusVerified, StatusSkipped, StatusManualCorrection:
		return true
	}
	return false
}

// AnnotationRecord is one reviewed or auto-generated extraction result for a
// single source document within a batch session.  A record with an empty
// ExtractedDrugs list is never persisted.
type AnnotationRecord struct {
	FileName       string           `json:"file_name"`
	FilePath       string           `json:"file_path"`
	Timestamp      time.Time        `json:"timestamp"`
	RawText        string           `json:"raw_text"`
	ExtractedDrugs []DrugMention    `json:"extracted_drugs"`
	Alerts         []string         `json:"alerts"`
	Status         AnnotationStatus `json:"status"`
}
