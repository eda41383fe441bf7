// Package repositories contains the pgx-backed implementations of the domain
// repository interfaces.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/patient"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

type patientRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPatientRepo builds the postgres patient repository.
func NewPatientRepo(conn *postgres.Connection, log logging.Logger) patient.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &patientRepo{conn: conn, log: log.Named("repo.patient")}
}

func (r *patientRepo) Save(ctx context.Context, p *patient.Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	err := r.conn.Pool().QueryRow(ctx,
		`INSERT INTO patients (name, patient_code) VALUES ($1, $2) RETURNING id`,
		p.Name, p.PatientCode,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.New(errors.ErrCodePatientAlreadyExists,
				"patient code already registered: "+p.PatientCode)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "insert patient")
	}
	return nil
}

func (r *patientRepo) FindByID(ctx context.Context, id int64) (*patient.Patient, error) {
	return r.findOne(ctx,
		`SELECT id, name, patient_code, last_scan_time FROM patients WHERE id = $1`, id)
}

func (r *patientRepo) FindByCode(ctx context.Context, code string) (*patient.Patient, error) {
	return r.findOne(ctx,
		`SELECT id, name, patient_code, last_scan_time FROM patients WHERE patient_code = $1`, code)
}

func (r *patientRepo) findOne(ctx context.Context, query string, arg interface{}) (*patient.Patient, error) {
	var (
		p    patient.Patient
		scan sql.NullTime
	)
	err := r.conn.Pool().QueryRow(ctx, query, arg).Scan(&p.ID, &p.Name, &p.PatientCode, &scan)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodePatientNotFound, "patient not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query patient")
	}
	if scan.Valid {
		p.LastScanTime = scan.Time
	}
	return &p, nil
}

func (r *patientRepo) TouchScanTime(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.conn.Pool().Exec(ctx,
		`UPDATE patients SET last_scan_time = $2 WHERE id = $1`, id, at)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "update last scan time")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodePatientNotFound, "patient not found")
	}
	return nil
}
