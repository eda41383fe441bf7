package medication

import (
	"context"
	"math"
	"time"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// EventSink receives domain events as best-effort side effects.  A failing
// sink is logged and ignored; it never fails the originating operation.
type EventSink interface {
	IntakeLogged(ctx context.Context, log *IntakeLog)
	StatusChanged(ctx context.Context, med *Medication)
}

// StatsCache caches compliance statistics per patient.  Miss is signalled by
// (nil, nil); errors are treated as misses by the service.
type StatsCache interface {
	Get(ctx context.Context, patientID int64) (*ComplianceStats, error)
	Set(ctx context.Context, patientID int64, stats *ComplianceStats) error
	Invalidate(ctx context.Context, patientID int64) error
}

// Service is the medication lifecycle and compliance surface.
type Service interface {
	// PersistMentions creates one active medication per retained drug mention
	// for the given prescription, in mention order.
	PersistMentions(ctx context.Context, prescriptionID int64, mentions []prescription.DrugMention) ([]*Medication, error)

	// LogIntake appends exactly one intake log with a server-assigned
	// timestamp.  Status must be taken, missed, or skipped.
	LogIntake(ctx context.Context, medicationID int64, status IntakeStatus, verificationMethod string) (*IntakeLog, error)

	// Transition moves a medication to completed or discontinued.
	Transition(ctx context.Context, medicationID int64, target Status) (*Medication, error)

	// ActiveMedications lists the patient's active medications.
	ActiveMedications(ctx context.Context, patientID int64) ([]*Medication, error)

	// Compliance computes compliance statistics over the patient's active
	// medications.
	Compliance(ctx context.Context, patientID int64) (*ComplianceStats, error)
}

type service struct {
	meds    Repository
	intakes IntakeRepository
	events  EventSink
	cache   StatsCache
	logger  logging.Logger
	now     func() time.Time
}

// NewService constructs the medication Service.  events and cache may be nil.
func NewService(meds Repository, intakes IntakeRepository, events EventSink, cache StatsCache, logger logging.Logger) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		meds:    meds,
		intakes: intakes,
		events:  events,
		cache:   cache,
		logger:  logger.Named("medication"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) PersistMentions(ctx context.Context, prescriptionID int64, mentions []prescription.DrugMention) ([]*Medication, error) {
	meds := make([]*Medication, 0, len(mentions))
	for _, m := range mentions {
		if m.DrugName == "" {
			// Retained mentions always carry a name; skip defensively rather
			// than persisting an unnamed medication.
			continue
		}
		meds = append(meds, &Medication{
			PrescriptionID: prescriptionID,
			DrugName:       m.DrugName,
			Dosage:         m.Dosage,
			Frequency:      m.Frequency,
			Duration:       m.Duration,
			Status:         StatusActive,
		})
	}
	if len(meds) == 0 {
		return []*Medication{}, nil
	}
	if err := s.meds.SaveBatch(ctx, meds); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to persist medications")
	}
	s.logger.Info("medications persisted",
		logging.Int64("prescription_id", prescriptionID),
		logging.Int("count", len(meds)),
	)
	return meds, nil
}

func (s *service) LogIntake(ctx context.Context, medicationID int64, status IntakeStatus, verificationMethod string) (*IntakeLog, error) {
	if !status.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidIntakeStatus,
			"intake status must be taken, missed, or skipped")
	}
	med, err := s.meds.FindByID(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if verificationMethod == "" {
		verificationMethod = "manual"
	}

	log := &IntakeLog{
		MedicationID:       med.ID,
		Timestamp:          s.now(),
		Status:             status,
		VerificationMethod: verificationMethod,
	}
	if err := s.intakes.Append(ctx, log); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to append intake log")
	}

	if s.events != nil {
		s.events.IntakeLogged(ctx, log)
	}
	s.invalidateStats(ctx, med)
	return log, nil
}

func (s *service) Transition(ctx context.Context, medicationID int64, target Status) (*Medication, error) {
	med, err := s.meds.FindByID(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if err := med.TransitionTo(target); err != nil {
		return nil, err
	}
	if err := s.meds.UpdateStatus(ctx, med.ID, med.Status); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update medication status")
	}
	if s.events != nil {
		s.events.StatusChanged(ctx, med)
	}
	s.invalidateStats(ctx, med)
	return med, nil
}

func (s *service) ActiveMedications(ctx context.Context, patientID int64) ([]*Medication, error) {
	return s.meds.ListByPatient(ctx, patientID, StatusActive)
}

func (s *service) Compliance(ctx context.Context, patientID int64) (*ComplianceStats, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, patientID); err == nil && cached != nil {
			return cached, nil
		}
	}

	active, err := s.meds.ListByPatient(ctx, patientID, StatusActive)
	if err != nil {
		return nil, err
	}

	stats := &ComplianceStats{TotalMedications: len(active)}
	for _, med := range active {
		logs, err := s.intakes.ListByMedication(ctx, med.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range logs {
			switch l.Status {
			case IntakeTaken:
				stats.TakenCount++
			case IntakeMissed:
				stats.MissedCount++
			}
		}
	}

	denom := stats.TakenCount + stats.MissedCount
	if denom > 0 {
		rate := float64(stats.TakenCount) / float64(denom) * 100
		stats.ComplianceRate = math.Round(rate*100) / 100
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, patientID, stats); err != nil {
			s.logger.Warn("compliance cache set failed", logging.Err(err))
		}
	}
	return stats, nil
}

// invalidateStats drops the cached compliance stats for the medication's
// patient.  The patient ID is not on the medication row, so the cache key is
// resolved through the repository; failures here only delay freshness.
func (s *service) invalidateStats(ctx context.Context, med *Medication) {
	if s.cache == nil {
		return
	}
	patientID, err := PatientIDOf(ctx, s.meds, med)
	if err != nil || patientID == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, patientID); err != nil {
		s.logger.Warn("compliance cache invalidate failed", logging.Err(err))
	}
}

// PatientOwnedRepository is implemented by repositories that can resolve the
// owning patient of a medication.  The postgres implementation resolves it
// with a join; fakes in tests may return 0.
type PatientOwnedRepository interface {
	PatientIDForMedication(ctx context.Context, medicationID int64) (int64, error)
}

// PatientIDOf resolves the owning patient of med when the repository supports
// it, otherwise returns 0 with no error.
func PatientIDOf(ctx context.Context, repo Repository, med *Medication) (int64, error) {
	owned, ok := repo.(PatientOwnedRepository)
	if !ok {
		return 0, nil
	}
	return owned.PatientIDForMedication(ctx, med.ID)
}
