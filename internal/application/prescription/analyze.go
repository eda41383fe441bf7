// Package prescription is the application layer for prescription analysis: it
// drives the extraction pipeline over incoming text or images and persists
// the results, fanning out best-effort side effects to the archive, the
// search index, and the event bus.
package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/internal/domain/patient"
	domainrx "github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/extraction"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// OCRClient converts prescription image bytes to raw text.  The text carries
// no structural guarantees and may be empty.
type OCRClient interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Archiver stores the raw text of an analyzed prescription.  Best-effort.
type Archiver interface {
	ArchiveText(ctx context.Context, objectName string, text string) error
}

// Indexer makes analyzed prescriptions searchable.  Best-effort.
type Indexer interface {
	IndexPrescription(ctx context.Context, doc *IndexDoc) error
}

// EventPublisher announces completed analyses.  Best-effort.
type EventPublisher interface {
	PrescriptionAnalyzed(ctx context.Context, evt *AnalyzedEvent) error
}

// IndexDoc is the searchable projection of an analyzed prescription.
type IndexDoc struct {
	PrescriptionID int64     `json:"prescription_id"`
	PatientID      int64     `json:"patient_id"`
	RawText        string    `json:"raw_text"`
	DrugNames      []string  `json:"drug_names"`
	Alerts         []string  `json:"alerts"`
	Timestamp      time.Time `json:"timestamp"`
}

// AnalyzedEvent is published after a prescription is analyzed and persisted.
type AnalyzedEvent struct {
	PrescriptionID int64     `json:"prescription_id"`
	PatientID      int64     `json:"patient_id"`
	DrugCount      int       `json:"drug_count"`
	AlertCount     int       `json:"alert_count"`
	Source         string    `json:"source"`
	Timestamp      time.Time `json:"timestamp"`
}

// AnalyzeResult is what the interfaces layer returns to callers.
type AnalyzeResult struct {
	PrescriptionID int64                    `json:"prescription_id"`
	Drugs          []domainrx.DrugMention   `json:"drugs"`
	Alerts         []string                 `json:"alerts"`
	Source         string                   `json:"source"`
	Medications    []*medication.Medication `json:"medications"`
}

// AnalyzeService runs the full analyze flow.  Alerts travel with the
// successful result; only persistence failures surface as errors.
type AnalyzeService struct {
	pipeline  *extraction.Pipeline
	rxRepo    domainrx.Repository
	patients  patient.Repository
	meds      medication.Service
	ocr       OCRClient
	archive   Archiver
	indexer   Indexer
	publisher EventPublisher
	logger    logging.Logger
	now       func() time.Time
}

// Deps bundles the AnalyzeService collaborators.  OCR, Archive, Indexer and
// Publisher are optional.
type Deps struct {
	Pipeline  *extraction.Pipeline
	RxRepo    domainrx.Repository
	Patients  patient.Repository
	Meds      medication.Service
	OCR       OCRClient
	Archive   Archiver
	Indexer   Indexer
	Publisher EventPublisher
	Logger    logging.Logger
}

// NewAnalyzeService wires the analyze flow.
func NewAnalyzeService(d Deps) (*AnalyzeService, error) {
	if d.Pipeline == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "analyze service requires a pipeline")
	}
	if d.RxRepo == nil || d.Patients == nil || d.Meds == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "analyze service requires repositories and the medication service")
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalyzeService{
		pipeline:  d.Pipeline,
		rxRepo:    d.RxRepo,
		patients:  d.Patients,
		meds:      d.Meds,
		ocr:       d.OCR,
		archive:   d.Archive,
		indexer:   d.Indexer,
		publisher: d.Publisher,
		logger:    logger.Named("analyze"),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// AnalyzeText extracts structured medications from raw prescription text and
// persists the prescription plus one active medication per retained drug.
// An empty drug list is a valid outcome: the prescription is still stored and
// the no-drugs alert travels with the result.
func (s *AnalyzeService) AnalyzeText(ctx context.Context, patientID int64, rawText string) (*AnalyzeResult, error) {
	return s.analyze(ctx, patientID, rawText, "")
}

// AnalyzeImage runs OCR on the image and analyzes the resulting text.  OCR
// failure is a hard error; there is nothing to extract from.
func (s *AnalyzeService) AnalyzeImage(ctx context.Context, patientID int64, image []byte, imagePath string) (*AnalyzeResult, error) {
	if s.ocr == nil {
		return nil, errors.New(errors.ErrCodeOCRFailed, "no ocr client configured")
	}
	text, err := s.ocr.Recognize(ctx, image)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeOCRFailed, "ocr recognize")
	}
	return s.analyze(ctx, patientID, text, imagePath)
}

func (s *AnalyzeService) analyze(ctx context.Context, patientID int64, rawText, imagePath string) (*AnalyzeResult, error) {
	pat, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	result := s.pipeline.Process(ctx, rawText)

	rx := &domainrx.Prescription{
		PatientID: pat.ID,
		ImagePath: imagePath,
		RawText:   rawText,
		Timestamp: s.now(),
	}
	if err := s.rxRepo.Save(ctx, rx); err != nil {
		return nil, err
	}
	meds, err := s.meds.PersistMentions(ctx, rx.ID, result.Drugs)
	if err != nil {
		return nil, err
	}
	if err := s.patients.TouchScanTime(ctx, pat.ID, rx.Timestamp); err != nil {
		s.logger.Warn("failed to update last scan time",
			logging.Int64("patient_id", pat.ID), logging.Err(err))
	}

	s.sideEffects(ctx, rx, result)

	s.logger.Info("prescription analyzed",
		logging.Int64("prescription_id", rx.ID),
		logging.Int64("patient_id", pat.ID),
		logging.String("source", result.Source),
		logging.Int("drugs", len(result.Drugs)),
		logging.Int("alerts", len(result.Alerts)))

	return &AnalyzeResult{
		PrescriptionID: rx.ID,
		Drugs:          result.Drugs,
		Alerts:         result.AlertMessages(),
		Source:         result.Source,
		Medications:    meds,
	}, nil
}

// archiveObjectName builds a collision-free object key per analyzed
// prescription.
func archiveObjectName(rx *domainrx.Prescription) string {
	return fmt.Sprintf("prescriptions/%d/%s-%s.txt",
		rx.PatientID, rx.Timestamp.Format("20060102T150405Z"), uuid.NewString())
}

// sideEffects fans out to the archive, the index, and the event bus.  Each
// failure is logged and swallowed.
func (s *AnalyzeService) sideEffects(ctx context.Context, rx *domainrx.Prescription, result extraction.Result) {
	if s.archive != nil {
		name := archiveObjectName(rx)
		if err := s.archive.ArchiveText(ctx, name, rx.RawText); err != nil {
			s.logger.Warn("archive failed", logging.String("object", name), logging.Err(err))
		}
	}
	if s.indexer != nil {
		doc := &IndexDoc{
			PrescriptionID: rx.ID,
			PatientID:      rx.PatientID,
			RawText:        rx.RawText,
			DrugNames:      domainrx.Names(result.Drugs),
			Alerts:         result.AlertMessages(),
			Timestamp:      rx.Timestamp,
		}
		if err := s.indexer.IndexPrescription(ctx, doc); err != nil {
			s.logger.Warn("index failed", logging.Int64("prescription_id", rx.ID), logging.Err(err))
		}
	}
	if s.publisher != nil {
		evt := &AnalyzedEvent{
			PrescriptionID: rx.ID,
			PatientID:      rx.PatientID,
			DrugCount:      len(result.Drugs),
			AlertCount:     len(result.Alerts),
			Source:         result.Source,
			Timestamp:      rx.Timestamp,
		}
		if err := s.publisher.PrescriptionAnalyzed(ctx, evt); err != nil {
			s.logger.Warn("event publish failed", logging.Int64("prescription_id", rx.ID), logging.Err(err))
		}
	}
}
