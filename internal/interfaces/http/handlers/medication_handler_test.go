package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

type stubMedService struct {
	intake     *medication.IntakeLog
	intakeErr  error
	transition *medication.Medication
	transErr   error
}

func (s *stubMedService) PersistMentions(ctx context.Context, prescriptionID int64, mentions []prescription.DrugMention) ([]*medication.Medication, error) {
	return nil, nil
}

func (s *stubMedService) LogIntake(ctx context.Context, medicationID int64, status medication.IntakeStatus, method string) (*medication.IntakeLog, error) {
	return s.intake, s.intakeErr
}

func (s *stubMedService) Transition(ctx context.Context, medicationID int64, target medication.Status) (*medication.Medication, error) {
	return s.transition, s.transErr
}

func (s *stubMedService) ActiveMedications(ctx context.Context, patientID int64) ([]*medication.Medication, error) {
	return nil, nil
}

func (s *stubMedService) Compliance(ctx context.Context, patientID int64) (*medication.ComplianceStats, error) {
	return nil, nil
}

func newMedicationRouter(svc medication.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMedicationHandler(svc)
	r.POST("/medications/:id/intake", h.LogIntake)
	r.POST("/medications/:id/transition", h.Transition)
	return r
}

func TestMedicationHandler_LogIntake(t *testing.T) {
	svc := &stubMedService{intake: &medication.IntakeLog{ID: 1, MedicationID: 5, Status: medication.IntakeTaken}}
	r := newMedicationRouter(svc)

	body, _ := json.Marshal(map[string]string{"status": "taken", "verification_method": "qr_scan"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/medications/5/intake", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var got medication.IntakeLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, medication.IntakeTaken, got.Status)
}

func TestMedicationHandler_LogIntake_InvalidStatus(t *testing.T) {
	svc := &stubMedService{intakeErr: errors.New(errors.ErrCodeInvalidIntakeStatus, "intake status must be taken, missed, or skipped")}
	r := newMedicationRouter(svc)

	body, _ := json.Marshal(map[string]string{"status": "maybe"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/medications/5/intake", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrCodeInvalidIntakeStatus.String(), resp.Code)
}

func TestMedicationHandler_Transition_NotFound(t *testing.T) {
	svc := &stubMedService{transErr: errors.New(errors.ErrCodeMedicationNotFound, "medication not found")}
	r := newMedicationRouter(svc)

	body, _ := json.Marshal(map[string]string{"status": "completed"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/medications/42/transition", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMedicationHandler_BadPathID(t *testing.T) {
	r := newMedicationRouter(&stubMedService{})

	body, _ := json.Marshal(map[string]string{"status": "taken"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/medications/abc/intake", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
