package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

type medicationRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewMedicationRepo builds the postgres medication repository.
func NewMedicationRepo(conn *postgres.Connection, log logging.Logger) medication.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &medicationRepo{conn: conn, log: log.Named("repo.medication")}
}

func (r *medicationRepo) SaveBatch(ctx context.Context, meds []*medication.Medication) error {
	if len(meds) == 0 {
		return nil
	}
	tx, err := r.conn.Pool().Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "begin transaction")
	}
	defer tx.Rollback(ctx)

	for _, m := range meds {
		err := tx.QueryRow(ctx,
			`INSERT INTO medications (prescription_id, drug_name, dosage, frequency, duration, status)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			m.PrescriptionID, m.DrugName, m.Dosage, m.Frequency, m.Duration, m.Status,
		).Scan(&m.ID)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "insert medication")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "commit medications")
	}
	return nil
}

const medicationColumns = `id, prescription_id, drug_name, dosage, frequency, duration, status`

func (r *medicationRepo) FindByID(ctx context.Context, id int64) (*medication.Medication, error) {
	var m medication.Medication
	err := r.conn.Pool().QueryRow(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id,
	).Scan(&m.ID, &m.PrescriptionID, &m.DrugName, &m.Dosage, &m.Frequency, &m.Duration, &m.Status)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeMedicationNotFound, "medication not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query medication")
	}
	return &m, nil
}

func (r *medicationRepo) ListByPrescription(ctx context.Context, prescriptionID int64) ([]*medication.Medication, error) {
	return r.list(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE prescription_id = $1 ORDER BY id`,
		prescriptionID)
}

func (r *medicationRepo) ListByPatient(ctx context.Context, patientID int64, status medication.Status) ([]*medication.Medication, error) {
	query := `SELECT m.id, m.prescription_id, m.drug_name, m.dosage, m.frequency, m.duration, m.status
		 FROM medications m
		 JOIN prescriptions p ON p.id = m.prescription_id
		 WHERE p.patient_id = $1`
	args := []interface{}{patientID}
	if status != "" {
		query += ` AND m.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY m.id`
	return r.list(ctx, query, args...)
}

func (r *medicationRepo) UpdateStatus(ctx context.Context, id int64, status medication.Status) error {
	tag, err := r.conn.Pool().Exec(ctx,
		`UPDATE medications SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "update medication status")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeMedicationNotFound, "medication not found")
	}
	return nil
}

// PatientIDForMedication resolves the owning patient with a join; used for
// compliance cache invalidation.
func (r *medicationRepo) PatientIDForMedication(ctx context.Context, medicationID int64) (int64, error) {
	var patientID int64
	err := r.conn.Pool().QueryRow(ctx,
		`SELECT p.patient_id FROM medications m
		 JOIN prescriptions p ON p.id = m.prescription_id
		 WHERE m.id = $1`, medicationID,
	).Scan(&patientID)
	if err == pgx.ErrNoRows {
		return 0, errors.New(errors.ErrCodeMedicationNotFound, "medication not found")
	}
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "resolve medication owner")
	}
	return patientID, nil
}

func (r *medicationRepo) list(ctx context.Context, query string, args ...interface{}) ([]*medication.Medication, error) {
	rows, err := r.conn.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list medications")
	}
	defer rows.Close()

	var out []*medication.Medication
	for rows.Next() {
		var m medication.Medication
		if err := rows.Scan(&m.ID, &m.PrescriptionID, &m.DrugName, &m.Dosage, &m.Frequency, &m.Duration, &m.Status); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan medication")
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterate medications")
	}
	return out, nil
}
