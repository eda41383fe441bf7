package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/internal/domain/patient"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// PatientHandler serves patient registration, lookup, and the compliance
// query surface.
type PatientHandler struct {
	patients patient.Repository
	meds     medication.Service
}

// NewPatientHandler builds the handler.
func NewPatientHandler(patients patient.Repository, meds medication.Service) *PatientHandler {
	return &PatientHandler{patients: patients, meds: meds}
}

type createPatientRequest struct {
	Name        string `json:"name" binding:"required"`
	PatientCode string `json:"patient_code" binding:"required"`
}

// Create registers a patient.
func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	p := &patient.Patient{Name: req.Name, PatientCode: req.PatientCode}
	if err := h.patients.Save(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Get returns one patient by id.
func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.patients.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetByCode resolves a patient from the wristband code scanned at intake.
func (h *PatientHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	p, err := h.patients.FindByCode(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Compliance answers the patient's compliance statistics.
func (h *PatientHandler) Compliance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	stats, err := h.meds.Compliance(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ActiveMedications lists the patient's active medications.
func (h *PatientHandler) ActiveMedications(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	meds, err := h.meds.ActiveMedications(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"medications": meds})
}
