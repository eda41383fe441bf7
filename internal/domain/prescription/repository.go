package prescription

import "context"

// Repository persists prescriptions.  Implementations must commit atomically
// per call; the domain never assumes partial visibility of another operation's
// uncommitted writes.
type Repository interface {
	// Save inserts the prescription and assigns its ID.
	Save(ctx context.Context, p *Prescription) error

	// FindByID returns the prescription or a not-found AppError.
	FindByID(ctx context.Context, id int64) (*Prescription, error)

	// ListByPatient returns the patient's prescriptions in creation order.
	ListByPatient(ctx context.Context, patientID int64) ([]*Prescription, error)
}
