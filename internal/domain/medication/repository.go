package medication

import "context"

// Repository persists medications.  Implementations commit atomically per
// call.
type Repository interface {
	// SaveBatch inserts all medications in one transaction and assigns IDs.
	SaveBatch(ctx context.Context, meds []*Medication) error

	// FindByID returns the medication or a not-found AppError.
	FindByID(ctx context.Context, id int64) (*Medication, error)

	// ListByPrescription returns the prescription's medications in creation order.
	ListByPrescription(ctx context.Context, prescriptionID int64) ([]*Medication, error)

	// ListByPatient returns every medication belonging to any of the patient's
	// prescriptions, optionally restricted to one status ("" means all).
	ListByPatient(ctx context.Context, patientID int64, status Status) ([]*Medication, error)

	// UpdateStatus persists a lifecycle transition.
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// IntakeRepository persists intake logs.  Append-only: there is deliberately
// no update or delete operation.
type IntakeRepository interface {
	// Append inserts the log and assigns its ID and server timestamp.
	Append(ctx context.Context, log *IntakeLog) error

	// ListByMedication returns the medication's logs in append order.
	ListByMedication(ctx context.Context, medicationID int64) ([]*IntakeLog, error)
}
