package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

type prescriptionRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPrescriptionRepo builds the postgres prescription repository.
func NewPrescriptionRepo(conn *postgres.Connection, log logging.Logger) prescription.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &prescriptionRepo{conn: conn, log: log.Named("repo.prescription")}
}

func (r *prescriptionRepo) Save(ctx context.Context, p *prescription.Prescription) error {
	err := r.conn.Pool().QueryRow(ctx,
		`INSERT INTO prescriptions (patient_id, image_path, raw_text, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		p.PatientID, p.ImagePath, p.RawText, p.Timestamp,
	).Scan(&p.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "insert prescription")
	}
	return nil
}

func (r *prescriptionRepo) FindByID(ctx context.Context, id int64) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.conn.Pool().QueryRow(ctx,
		`SELECT id, patient_id, image_path, raw_text, created_at
		 FROM prescriptions WHERE id = $1`, id,
	).Scan(&p.ID, &p.PatientID, &p.ImagePath, &p.RawText, &p.Timestamp)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodePrescriptionNotFound, "prescription not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query prescription")
	}
	return &p, nil
}

func (r *prescriptionRepo) ListByPatient(ctx context.Context, patientID int64) ([]*prescription.Prescription, error) {
	rows, err := r.conn.Pool().Query(ctx,
		`SELECT id, patient_id, image_path, raw_text, created_at
		 FROM prescriptions WHERE patient_id = $1 ORDER BY id`, patientID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list prescriptions")
	}
	defer rows.Close()

	var out []*prescription.Prescription
	for rows.Next() {
		var p prescription.Prescription
		if err := rows.Scan(&p.ID, &p.PatientID, &p.ImagePath, &p.RawText, &p.Timestamp); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan prescription")
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterate prescriptions")
	}
	return out, nil
}
