// Package patient holds the patient aggregate.  Patients own prescriptions;
// compliance statistics are computed per patient over the medications their
// prescriptions produced.
package patient

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// Patient is a person whose prescriptions are scanned and tracked.
// PatientCode is the stable external identifier encoded in the wristband
// QR/barcode used by intake verification.
type Patient struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PatientCode  string    `json:"patient_code"`
	LastScanTime time.Time `json:"last_scan_time"`
}

// Validate checks the patient for persistence readiness.
func (p *Patient) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.NewValidation("patient name is required")
	}
	if strings.TrimSpace(p.PatientCode) == "" {
		return errors.NewValidation("patient code is required")
	}
	return nil
}

// Repository persists patients.
type Repository interface {
	Save(ctx context.Context, p *Patient) error
	FindByID(ctx context.Context, id int64) (*Patient, error)
	FindByCode(ctx context.Context, code string) (*Patient, error)

	// TouchScanTime records that a prescription was just scanned for the patient.
	TouchScanTime(ctx context.Context, id int64, at time.Time) error
}
