package prescription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/internal/domain/patient"
	domainrx "github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/extraction"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

type fakeRxRepo struct {
	saved  []*domainrx.Prescription
	nextID int64
}

func (r *fakeRxRepo) Save(ctx context.Context, p *domainrx.Prescription) error {
	r.nextID++
	p.ID = r.nextID
	r.saved = append(r.saved, p)
	return nil
}

func (r *fakeRxRepo) FindByID(ctx context.Context, id int64) (*domainrx.Prescription, error) {
	for _, p := range r.saved {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.NewNotFound("prescription %d not found", id)
}

func (r *fakeRxRepo) ListByPatient(ctx context.Context, patientID int64) ([]*domainrx.Prescription, error) {
	var out []*domainrx.Prescription
	for _, p := range r.saved {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakePatientRepo struct {
	patients map[int64]*patient.Patient
	touched  []int64
}

func (r *fakePatientRepo) Save(ctx context.Context, p *patient.Patient) error { return nil }

func (r *fakePatientRepo) FindByID(ctx context.Context, id int64) (*patient.Patient, error) {
	if p, ok := r.patients[id]; ok {
		return p, nil
	}
	return nil, errors.New(errors.ErrCodePatientNotFound, "patient not found")
}

func (r *fakePatientRepo) FindByCode(ctx context.Context, code string) (*patient.Patient, error) {
	for _, p := range r.patients {
		if p.PatientCode == code {
			return p, nil
		}
	}
	return nil, errors.New(errors.ErrCodePatientNotFound, "patient not found")
}

func (r *fakePatientRepo) TouchScanTime(ctx context.Context, id int64, at time.Time) error {
	r.touched = append(r.touched, id)
	return nil
}

type fakeMedService struct {
	medication.Service
	persisted map[int64][]domainrx.DrugMention
}

func (s *fakeMedService) PersistMentions(ctx context.Context, prescriptionID int64, mentions []domainrx.DrugMention) ([]*medication.Medication, error) {
	if s.persisted == nil {
		s.persisted = map[int64][]domainrx.DrugMention{}
	}
	s.persisted[prescriptionID] = mentions
	meds := make([]*medication.Medication, len(mentions))
	for i, m := range mentions {
		meds[i] = &medication.Medication{DrugName: m.DrugName, Status: medication.StatusActive}
	}
	return meds, nil
}

type fakeOCR struct {
	text string
	err  error
}

func (o *fakeOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	return o.text, o.err
}

type captureSinks struct {
	archived  []string
	indexed   []*IndexDoc
	published []*AnalyzedEvent
	fail      bool
}

func (c *captureSinks) ArchiveText(ctx context.Context, name, text string) error {
	if c.fail {
		return errors.New(errors.ErrCodeExternalService, "archive down")
	}
	c.archived = append(c.archived, name)
	return nil
}

func (c *captureSinks) IndexPrescription(ctx context.Context, doc *IndexDoc) error {
	if c.fail {
		return errors.New(errors.ErrCodeExternalService, "index down")
	}
	c.indexed = append(c.indexed, doc)
	return nil
}

func (c *captureSinks) PrescriptionAnalyzed(ctx context.Context, evt *AnalyzedEvent) error {
	if c.fail {
		return errors.New(errors.ErrCodeExternalService, "broker down")
	}
	c.published = append(c.published, evt)
	return nil
}

func newTestService(t *testing.T, ocr OCRClient, sinks *captureSinks) (*AnalyzeService, *fakeRxRepo, *fakeMedService, *fakePatientRepo) {
	t.Helper()
	rxRepo := &fakeRxRepo{}
	medSvc := &fakeMedService{}
	patients := &fakePatientRepo{patients: map[int64]*patient.Patient{
		7: {ID: 7, Name: "Ada", PatientCode: "P-007"},
	}}
	deps := Deps{
		Pipeline: extraction.NewPipeline(nil, nil, nil, nil, nil),
		RxRepo:   rxRepo,
		Patients: patients,
		Meds:     medSvc,
		OCR:      ocr,
	}
	if sinks != nil {
		deps.Archive = sinks
		deps.Indexer = sinks
		deps.Publisher = sinks
	}
	svc, err := NewAnalyzeService(deps)
	require.NoError(t, err)
	return svc, rxRepo, medSvc, patients
}

func TestAnalyzeText_PersistsPrescriptionAndMedications(t *testing.T) {
	svc, rxRepo, medSvc, patients := newTestService(t, nil, nil)

	res, err := svc.AnalyzeText(context.Background(), 7, "Metformin 500mg BID for 30 days\nAspirin 81mg once daily")
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.PrescriptionID)
	require.Len(t, res.Drugs, 2)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, "rules", res.Source)
	assert.Len(t, res.Medications, 2)

	require.Len(t, rxRepo.saved, 1)
	assert.Equal(t, int64(7), rxRepo.saved[0].PatientID)
	assert.Len(t, medSvc.persisted[1], 2)
	assert.Equal(t, []int64{7}, patients.touched)
}

func TestAnalyzeText_UnknownPatient(t *testing.T) {
	svc, rxRepo, _, _ := newTestService(t, nil, nil)

	_, err := svc.AnalyzeText(context.Background(), 99, "Metformin 500mg BID")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePatientNotFound, errors.GetCode(err))
	assert.Empty(t, rxRepo.saved)
}

func TestAnalyzeText_NoDrugsStillPersists(t *testing.T) {
	svc, rxRepo, _, _ := newTestService(t, nil, nil)

	res, err := svc.AnalyzeText(context.Background(), 7, "")
	require.NoError(t, err)
	assert.Empty(t, res.Drugs)
	assert.Equal(t, []string{"No medications detected in prescription"}, res.Alerts)
	assert.Len(t, rxRepo.saved, 1)
}

func TestAnalyzeImage_RunsOCR(t *testing.T) {
	sinks := &captureSinks{}
	svc, _, _, _ := newTestService(t, &fakeOCR{text: "Warfarin 5mg once daily\nAspirin 81mg once daily"}, sinks)

	res, err := svc.AnalyzeImage(context.Background(), 7, []byte("png"), "/scans/rx.png")
	require.NoError(t, err)
	require.Len(t, res.Drugs, 2)
	assert.Contains(t, res.Alerts, "INTERACTION WARNING: Warfarin + Aspirin")

	require.Len(t, sinks.indexed, 1)
	assert.Equal(t, []string{"Warfarin", "Aspirin"}, sinks.indexed[0].DrugNames)
	require.Len(t, sinks.published, 1)
	assert.Equal(t, 2, sinks.published[0].DrugCount)
	assert.Len(t, sinks.archived, 1)
}

func TestAnalyzeImage_OCRFailure(t *testing.T) {
	svc, rxRepo, _, _ := newTestService(t, &fakeOCR{err: errors.New(errors.ErrCodeExternalService, "engine crashed")}, nil)

	_, err := svc.AnalyzeImage(context.Background(), 7, []byte("png"), "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOCRFailed, errors.GetCode(err))
	assert.Empty(t, rxRepo.saved)
}

func TestAnalyze_SideEffectFailuresAreSwallowed(t *testing.T) {
	sinks := &captureSinks{fail: true}
	svc, rxRepo, _, _ := newTestService(t, nil, sinks)

	_, err := svc.AnalyzeText(context.Background(), 7, "Metformin 500mg BID")
	require.NoError(t, err)
	assert.Len(t, rxRepo.saved, 1)
}
