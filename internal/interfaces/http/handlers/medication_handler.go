package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// MedicationHandler serves intake logging and lifecycle transitions.
type MedicationHandler struct {
	meds medication.Service
}

// NewMedicationHandler builds the handler.
func NewMedicationHandler(meds medication.Service) *MedicationHandler {
	return &MedicationHandler{meds: meds}
}

type logIntakeRequest struct {
	Status             string `json:"status" binding:"required"`
	VerificationMethod string `json:"verification_method"`
}

// LogIntake appends one intake event to the medication.
func (h *MedicationHandler) LogIntake(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req logIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	log, err := h.meds.LogIntake(c.Request.Context(), id,
		medication.IntakeStatus(req.Status), req.VerificationMethod)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, log)
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Transition moves the medication to completed or discontinued.
func (h *MedicationHandler) Transition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	med, err := h.meds.Transition(c.Request.Context(), id, medication.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, med)
}
