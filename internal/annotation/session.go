package annotation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/extraction"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// Decision is a reviewer's disposition for one auto-generated record.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionSkip    Decision = "skip"
	DecisionCorrect Decision = "correct"
)

// InputSource supplies review decisions for interactive sessions.  The
// terminal prompt implements this; tests inject scripted sources.  On
// DecisionCorrect the returned mention list fully replaces the record's
// extracted drugs.
type InputSource interface {
	Review(ctx context.Context, record prescription.AnnotationRecord) (Decision, []prescription.DrugMention, error)
}

// Summary reports what one session run did.
type Summary struct {
	Resumed  int `json:"resumed"`
	Scanned  int `json:"scanned"`
	Recorded int `json:"recorded"`
	Rejected int `json:"rejected"`
}

// Session processes source files sequentially: extract, optionally review,
// and persist the accumulated record list after every kept record.  A session
// owns its in-memory record list exclusively; it is not safe for concurrent
// use.
type Session struct {
	pipeline *extraction.Pipeline
	store    Store
	input    InputSource
	logger   logging.Logger
	now      func() time.Time

	records []prescription.AnnotationRecord
}

// NewSession builds a session.  input may be nil for non-interactive batch
// runs.
func NewSession(pipeline *extraction.Pipeline, store Store, input InputSource, logger logging.Logger) (*Session, error) {
	if pipeline == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "session requires an extraction pipeline")
	}
	if store == nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "session requires a store")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Session{
		pipeline: pipeline,
		store:    store,
		input:    input,
		logger:   logger.Named("annotation.session"),
		now:      time.Now,
	}, nil
}

// Records returns the session's current record list.
func (s *Session) Records() []prescription.AnnotationRecord {
	return s.records
}

// RunDir scans dir for eligible ".txt" source files in name order and runs
// the session over them.
func (s *Session) RunDir(ctx context.Context, dir string) (Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, errors.Wrap(err, errors.ErrCodeSourceDirMissing, "read source directory")
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return s.Run(ctx, files)
}

// Run processes the given files in order.  Existing session storage is loaded
// first and appended to; unreadable storage starts the session empty rather
// than failing.  Storage save failures abort the run and surface to the
// caller.
func (s *Session) Run(ctx context.Context, files []string) (Summary, error) {
	var summary Summary

	existing, err := s.store.Load()
	if err != nil {
		s.logger.Warn("session storage unreadable, starting empty",
			logging.String("path", s.store.Path()), logging.Err(err))
		existing = nil
	}
	s.records = existing
	summary.Resumed = len(existing)

	for _, file := range files {
		summary.Scanned++

		record, ok, err := s.processFile(ctx, file)
		if err != nil {
			return summary, err
		}
		if !ok {
			summary.Rejected++
			continue
		}

		s.records = append(s.records, record)
		if err := s.store.Save(s.records); err != nil {
			return summary, err
		}
		summary.Recorded++
	}

	s.logger.Info("session done",
		logging.Int("scanned", summary.Scanned),
		logging.Int("recorded", summary.Recorded),
		logging.Int("rejected", summary.Rejected))
	return summary, nil
}

// processFile extracts one file into a record and applies the interactive
// review protocol.  ok is false for validity rejections; err is reserved for
// input-source failures, which abort the session.
func (s *Session) processFile(ctx context.Context, file string) (prescription.AnnotationRecord, bool, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		s.logger.Warn("source file unreadable, skipping", logging.String("file", file), logging.Err(err))
		return prescription.AnnotationRecord{}, false, nil
	}

	result := s.pipeline.Process(ctx, string(raw))
	if len(result.Drugs) == 0 {
		s.logger.Info("no drugs extracted, file rejected", logging.String("file", file))
		return prescription.AnnotationRecord{}, false, nil
	}

	record := prescription.AnnotationRecord{
		FileName:       filepath.Base(file),
		FilePath:       file,
		Timestamp:      s.now(),
		RawText:        string(raw),
		ExtractedDrugs: result.Drugs,
		Alerts:         result.AlertMessages(),
		Status:         prescription.StatusAutoGenerated,
	}
	if s.input == nil {
		return record, true, nil
	}

	decision, corrected, err := s.input.Review(ctx, record)
	if err != nil {
		return prescription.AnnotationRecord{}, false, errors.Wrap(err, errors.ErrCodeSessionInput, "review input")
	}
	switch decision {
	case DecisionAccept:
		record.Status = prescription.StatusVerified
	case DecisionSkip:
		record.Status = prescription.StatusSkipped
	case DecisionCorrect:
		drugs := normalizeCorrection(corrected)
		if len(drugs) == 0 {
			s.logger.Info("correction removed all drugs, file rejected", logging.String("file", file))
			return prescription.AnnotationRecord{}, false, nil
		}
		record.ExtractedDrugs = drugs
		record.Status = prescription.StatusManualCorrection
	default:
		return prescription.AnnotationRecord{}, false,
			errors.New(errors.ErrCodeSessionInput, "unknown review decision: "+string(decision))
	}
	return record, true, nil
}

// normalizeCorrection drops unnamed entries and pins manual confidence to 1.0.
func normalizeCorrection(mentions []prescription.DrugMention) []prescription.DrugMention {
	out := make([]prescription.DrugMention, 0, len(mentions))
	for _, m := range mentions {
		if strings.TrimSpace(m.DrugName) == "" {
			continue
		}
		m.Confidence = 1.0
		out = append(out, m)
	}
	return out
}
