// Package medication owns the medication lifecycle and intake tracking: a
// three-state medication entity created from extracted drug mentions, an
// append-only intake log, and compliance statistics derived over active
// medications.
package medication

import (
	"fmt"
	"time"

	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// Status is the lifecycle state of a medication.
type Status string

const (
	StatusActive       Status = "active"
	StatusCompleted    Status = "completed"
	StatusDiscontinued Status = "discontinued"
)

// Valid reports whether s is one of the three lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusDiscontinued:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusDiscontinued
}

// Medication is a persisted structured medication entry.  It is created in
// StatusActive exactly once per retained drug mention when a prescription is
// persisted, and mutated only by lifecycle transitions.
type Medication struct {
	ID             int64  `json:"id"`
	PrescriptionID int64  `json:"prescription_id"`
	DrugName       string `json:"drug_name"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency"`
	Duration       string `json:"duration"`
	Status         Status `json:"status"`
}

// TransitionTo moves the medication to target.  Only active medications may
// transition, and only to completed or discontinued.
func (m *Medication) TransitionTo(target Status) error {
	if !target.Valid() {
		return errors.New(errors.ErrCodeInvalidTransition,
			fmt.Sprintf("unknown medication status %q", target))
	}
	if m.Status.Terminal() {
		return errors.New(errors.ErrCodeInvalidTransition,
			fmt.Sprintf("medication %d is %s and cannot transition to %s", m.ID, m.Status, target))
	}
	if target == StatusActive {
		return errors.New(errors.ErrCodeInvalidTransition,
			"medication cannot transition back to active")
	}
	m.Status = target
	return nil
}

// IntakeStatus classifies a single intake event.
type IntakeStatus string

const (
	IntakeTaken   IntakeStatus = "taken"
	IntakeMissed  IntakeStatus = "missed"
	IntakeSkipped IntakeStatus = "skipped"
)

// Valid reports whether s is a recognized intake status.
func (s IntakeStatus) Valid() bool {
	switch s {
	case IntakeTaken, IntakeMissed, IntakeSkipped:
		return true
	}
	return false
}

// IntakeLog is one append-only intake event.  Logs are never edited or
// deleted; the timestamp is server-assigned at append time.
type IntakeLog struct {
	ID                 int64        `json:"id"`
	MedicationID       int64        `json:"medication_id"`
	Timestamp          time.Time    `json:"timestamp"`
	Status             IntakeStatus `json:"status"`
	VerificationMethod string       `json:"verification_method"`
}

// ComplianceStats is derived, never stored.  Rate is
// taken/(taken+missed)*100 rounded to two decimals, 0.0 when the denominator
// is zero; skipped events count toward neither side.  Only active medications
// participate.
type ComplianceStats struct {
	TotalMedications int     `json:"total_medications"`
	TakenCount       int     `json:"taken_count"`
	MissedCount      int     `json:"missed_count"`
	ComplianceRate   float64 `json:"compliance_rate"`
}
