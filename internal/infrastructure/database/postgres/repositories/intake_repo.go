package repositories

import (
	"context"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

type intakeRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewIntakeRepo builds the postgres intake log repository.  Append-only.
func NewIntakeRepo(conn *postgres.Connection, log logging.Logger) medication.IntakeRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &intakeRepo{conn: conn, log: log.Named("repo.intake")}
}

func (r *intakeRepo) Append(ctx context.Context, l *medication.IntakeLog) error {
	err := r.conn.Pool().QueryRow(ctx,
		`INSERT INTO intake_logs (medication_id, logged_at, status, verification_method)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		l.MedicationID, l.Timestamp, l.Status, l.VerificationMethod,
	).Scan(&l.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "insert intake log")
	}
	return nil
}

func (r *intakeRepo) ListByMedication(ctx context.Context, medicationID int64) ([]*medication.IntakeLog, error) {
	rows, err := r.conn.Pool().Query(ctx,
		`SELECT id, medication_id, logged_at, status, verification_method
		 FROM intake_logs WHERE medication_id = $1 ORDER BY id`, medicationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list intake logs")
	}
	defer rows.Close()

	var out []*medication.IntakeLog
	for rows.Next() {
		var l medication.IntakeLog
		if err := rows.Scan(&l.ID, &l.MedicationID, &l.Timestamp, &l.Status, &l.VerificationMethod); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan intake log")
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterate intake logs")
	}
	return out, nil
}
