package annotation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/extraction"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

type scriptedInput struct {
	decisions []Decision
	corrected []prescription.DrugMention
	calls     int
}

func (s *scriptedInput) Review(ctx context.Context, record prescription.AnnotationRecord) (Decision, []prescription.DrugMention, error) {
	d := s.decisions[s.calls]
	s.calls++
	return d, s.corrected, nil
}

func writeSourceFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newTestSession(t *testing.T, input InputSource) (*Session, Store) {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	sess, err := NewSession(extraction.NewPipeline(nil, nil, nil, nil, nil), store, input, nil)
	require.NoError(t, err)
	return sess, store
}

func TestSession_BatchRun(t *testing.T) {
	dir := writeSourceFiles(t, map[string]string{
		"rx1.txt":   "Metformin 500mg BID for 30 days",
		"rx2.txt":   "Aspirin 81mg once daily",
		"empty.txt": "",
		"notes.md":  "Warfarin 5mg once daily",
	})
	sess, store := newTestSession(t, nil)

	summary, err := sess.RunDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, Summary{Resumed: 0, Scanned: 3, Recorded: 2, Rejected: 1}, summary)

	saved, err := store.Load()
	require.NoError(t, err)
	require.Len(t, saved, 2)
	// ReadDir yields name order: empty.txt, rx1.txt, rx2.txt.
	assert.Equal(t, "rx1.txt", saved[0].FileName)
	assert.Equal(t, prescription.StatusAutoGenerated, saved[0].Status)
	assert.Equal(t, "Metformin", saved[0].ExtractedDrugs[0].DrugName)
	assert.Equal(t, "rx2.txt", saved[1].FileName)
}

func TestSession_Resume_AppendsAfterExisting(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, store.Save([]prescription.AnnotationRecord{sampleRecord("old.txt")}))

	dir := writeSourceFiles(t, map[string]string{"new.txt": "Lisinopril 10mg once daily"})
	sess, err := NewSession(extraction.NewPipeline(nil, nil, nil, nil, nil), store, nil, nil)
	require.NoError(t, err)

	summary, err := sess.RunDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Resumed)
	assert.Equal(t, 1, summary.Recorded)

	saved, err := store.Load()
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "old.txt", saved[0].FileName)
	assert.Equal(t, "new.txt", saved[1].FileName)
}

func TestSession_CorruptStorageStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	store, err := NewFileStore(path)
	require.NoError(t, err)

	dir := writeSourceFiles(t, map[string]string{"rx.txt": "Metformin 500mg BID"})
	sess, err := NewSession(extraction.NewPipeline(nil, nil, nil, nil, nil), store, nil, nil)
	require.NoError(t, err)

	summary, err := sess.RunDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Resumed)
	assert.Equal(t, 1, summary.Recorded)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestSession_InteractiveDecisions(t *testing.T) {
	dir := writeSourceFiles(t, map[string]string{
		"a.txt": "Metformin 500mg BID",
		"b.txt": "Aspirin 81mg once daily",
	})
	input := &scriptedInput{decisions: []Decision{DecisionAccept, DecisionSkip}}
	sess, store := newTestSession(t, input)

	summary, err := sess.RunDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Recorded)

	saved, err := store.Load()
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, prescription.StatusVerified, saved[0].Status)
	assert.Equal(t, prescription.StatusSkipped, saved[1].Status)
}

func TestSession_CorrectionReplacesDrugs(t *testing.T) {
	dir := writeSourceFiles(t, map[string]string{"a.txt": "Metformin 500mg BID"})
	input := &scriptedInput{
		decisions: []Decision{DecisionCorrect},
		corrected: []prescription.DrugMention{
			{DrugName: "Metformin XR", Dosage: "750mg", Frequency: "1x daily", Confidence: 0.2},
			{DrugName: "   "},
		},
	}
	sess, store := newTestSession(t, input)

	_, err := sess.RunDir(context.Background(), dir)
	require.NoError(t, err)

	saved, err := store.Load()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, prescription.StatusManualCorrection, saved[0].Status)
	require.Len(t, saved[0].ExtractedDrugs, 1)
	assert.Equal(t, "Metformin XR", saved[0].ExtractedDrugs[0].DrugName)
	assert.Equal(t, 1.0, saved[0].ExtractedDrugs[0].Confidence)
}

func TestSession_EmptyCorrectionDiscardsRecord(t *testing.T) {
	dir := writeSourceFiles(t, map[string]string{"a.txt": "Metformin 500mg BID"})
	input := &scriptedInput{decisions: []Decision{DecisionCorrect}}
	sess, store := newTestSession(t, input)

	summary, err := sess.RunDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, Summary{Scanned: 1, Rejected: 1}, summary)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSession_MissingSourceDir(t *testing.T) {
	sess, _ := newTestSession(t, nil)
	_, err := sess.RunDir(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSourceDirMissing, errors.GetCode(err))
}

func TestPromptInput_Review(t *testing.T) {
	record := sampleRecord("rx.txt")

	t.Run("accept", func(t *testing.T) {
		p := NewPromptInput(strings.NewReader("a\n"), &strings.Builder{})
		d, _, err := p.Review(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, DecisionAccept, d)
	})

	t.Run("correct with drug lines", func(t *testing.T) {
		in := "c\nAspirin|81mg|1x daily|7 days\nWarfarin|5mg||\n\n"
		p := NewPromptInput(strings.NewReader(in), &strings.Builder{})
		d, drugs, err := p.Review(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, DecisionCorrect, d)
		require.Len(t, drugs, 2)
		assert.Equal(t, "Aspirin", drugs[0].DrugName)
		assert.Equal(t, "81mg", drugs[0].Dosage)
		assert.Equal(t, "Warfarin", drugs[1].DrugName)
	})

	t.Run("unrecognized answer", func(t *testing.T) {
		p := NewPromptInput(strings.NewReader("x\n"), &strings.Builder{})
		_, _, err := p.Review(context.Background(), record)
		assert.Error(t, err)
	})
}
