package medication

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// fakeMedRepo is an in-memory Repository.
type fakeMedRepo struct {
	meds   map[int64]*Medication
	nextID int64
	// patientID assigned to every medication, for ListByPatient
	patientID int64
}

func newFakeMedRepo() *fakeMedRepo {
	return &fakeMedRepo{meds: map[int64]*Medication{}, nextID: 1, patientID: 1}
}

func (r *fakeMedRepo) SaveBatch(_ context.Context, meds []*Medication) error {
	for _, m := range meds {
		m.ID = r.nextID
		r.nextID++
		cp := *m
		r.meds[m.ID] = &cp
	}
	return nil
}

func (r *fakeMedRepo) FindByID(_ context.Context, id int64) (*Medication, error) {
	m, ok := r.meds[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeMedicationNotFound, "medication not found")
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMedRepo) ListByPrescription(_ context.Context, prescriptionID int64) ([]*Medication, error) {
	var out []*Medication
	for id := int64(1); id < r.nextID; id++ {
		if m, ok := r.meds[id]; ok && m.PrescriptionID == prescriptionID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMedRepo) ListByPatient(_ context.Context, patientID int64, status Status) ([]*Medication, error) {
	if patientID != r.patientID {
		return nil, nil
	}
	var out []*Medication
	for id := int64(1); id < r.nextID; id++ {
		m, ok := r.meds[id]
		if !ok {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeMedRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	m, ok := r.meds[id]
	if !ok {
		return errors.New(errors.ErrCodeMedicationNotFound, "medication not found")
	}
	m.Status = status
	return nil
}

// fakeIntakeRepo is an in-memory append-only IntakeRepository.
type fakeIntakeRepo struct {
	logs   []*IntakeLog
	nextID int64
}

func (r *fakeIntakeRepo) Append(_ context.Context, log *IntakeLog) error {
	r.nextID++
	log.ID = r.nextID
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *fakeIntakeRepo) ListByMedication(_ context.Context, medicationID int64) ([]*IntakeLog, error) {
	var out []*IntakeLog
	for _, l := range r.logs {
		if l.MedicationID == medicationID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (Service, *fakeMedRepo, *fakeIntakeRepo) {
	t.Helper()
	meds := newFakeMedRepo()
	intakes := &fakeIntakeRepo{}
	svc := NewService(meds, intakes, nil, nil, logging.NewNopLogger())
	return svc, meds, intakes
}

func TestPersistMentions_CreatesActiveMedications(t *testing.T) {
	svc, _, _ := newTestService(t)

	mentions := []prescription.DrugMention{
		{DrugName: "Metformin", Dosage: "500mg", Frequency: "2x daily", Duration: "30 days", Confidence: 1.0},
		{DrugName: "Lisinopril", Dosage: "10mg", Confidence: 1.0},
	}
	meds, err := svc.PersistMentions(context.Background(), 7, mentions)
	require.NoError(t, err)
	require.Len(t, meds, 2)

	for i, m := range meds {
		assert.Equal(t, StatusActive, m.Status)
		assert.Equal(t, int64(7), m.PrescriptionID)
		assert.Equal(t, mentions[i].DrugName, m.DrugName)
		assert.NotZero(t, m.ID)
	}
}

func TestPersistMentions_SkipsUnnamedMentions(t *testing.T) {
	svc, _, _ := newTestService(t)

	meds, err := svc.PersistMentions(context.Background(), 1, []prescription.DrugMention{
		{DrugName: ""},
	})
	require.NoError(t, err)
	assert.Empty(t, meds)
}

func TestLogIntake_AppendsWithServerTimestamp(t *testing.T) {
	svc, medRepo, intakeRepo := newTestService(t)
	_, err := svc.PersistMentions(context.Background(), 1, []prescription.DrugMention{{DrugName: "Aspirin"}})
	require.NoError(t, err)

	before := time.Now().UTC()
	log, err := svc.LogIntake(context.Background(), 1, IntakeTaken, "")
	require.NoError(t, err)

	assert.Equal(t, IntakeTaken, log.Status)
	assert.Equal(t, "manual", log.VerificationMethod, "empty method defaults to manual")
	assert.False(t, log.Timestamp.Before(before))
	assert.Len(t, intakeRepo.logs, 1)

	_, err = medRepo.FindByID(context.Background(), log.MedicationID)
	assert.NoError(t, err)
}

func TestLogIntake_RejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.LogIntake(context.Background(), 1, IntakeStatus("eaten"), "manual")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidIntakeStatus))
}

func TestLogIntake_UnknownMedication(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.LogIntake(context.Background(), 99, IntakeTaken, "manual")
	assert.True(t, errors.IsNotFound(err))
}

func TestTransition_ActiveToCompleted(t *testing.T) {
	svc, medRepo, _ := newTestService(t)
	_, err := svc.PersistMentions(context.Background(), 1, []prescription.DrugMention{{DrugName: "Aspirin"}})
	require.NoError(t, err)

	med, err := svc.Transition(context.Background(), 1, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, med.Status)

	stored, _ := medRepo.FindByID(context.Background(), 1)
	assert.Equal(t, StatusCompleted, stored.Status)

	// Terminal state rejects further transitions.
	_, err = svc.Transition(context.Background(), 1, StatusDiscontinued)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
}

func TestCompliance_TakenTakenMissed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.PersistMentions(ctx, 1, []prescription.DrugMention{{DrugName: "Metformin"}})
	require.NoError(t, err)

	for _, st := range []IntakeStatus{IntakeTaken, IntakeTaken, IntakeMissed} {
		_, err := svc.LogIntake(ctx, 1, st, "manual")
		require.NoError(t, err)
	}

	stats, err := svc.Compliance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMedications)
	assert.Equal(t, 2, stats.TakenCount)
	assert.Equal(t, 1, stats.MissedCount)
	assert.Equal(t, 66.67, stats.ComplianceRate)
}

func TestCompliance_SkippedCountsTowardNeither(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.PersistMentions(ctx, 1, []prescription.DrugMention{{DrugName: "Metformin"}})
	require.NoError(t, err)

	for _, st := range []IntakeStatus{IntakeTaken, IntakeSkipped, IntakeSkipped} {
		_, err := svc.LogIntake(ctx, 1, st, "manual")
		require.NoError(t, err)
	}

	stats, err := svc.Compliance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TakenCount)
	assert.Equal(t, 0, stats.MissedCount)
	assert.Equal(t, 100.0, stats.ComplianceRate)
}

func TestCompliance_ZeroLogsMedication(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.PersistMentions(ctx, 1, []prescription.DrugMention{{DrugName: "Metformin"}})
	require.NoError(t, err)

	stats, err := svc.Compliance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMedications)
	assert.Equal(t, 0.0, stats.ComplianceRate)
}

func TestCompliance_OnlyActiveMedicationsParticipate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.PersistMentions(ctx, 1, []prescription.DrugMention{
		{DrugName: "Metformin"},
		{DrugName: "Warfarin"},
	})
	require.NoError(t, err)

	// Log against both, then discontinue the second: its logs must vanish
	// from the stats.
	_, err = svc.LogIntake(ctx, 1, IntakeTaken, "manual")
	require.NoError(t, err)
	_, err = svc.LogIntake(ctx, 2, IntakeMissed, "manual")
	require.NoError(t, err)

	_, err = svc.Transition(ctx, 2, StatusDiscontinued)
	require.NoError(t, err)

	stats, err := svc.Compliance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMedications)
	assert.Equal(t, 1, stats.TakenCount)
	assert.Equal(t, 0, stats.MissedCount)
	assert.Equal(t, 100.0, stats.ComplianceRate)
}
