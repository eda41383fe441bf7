package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appn "github.com/turtacn/MedRx-Intelligence/internal/application/prescription"
	domainrx "github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// PrescriptionHandler serves prescription analysis and retrieval.
type PrescriptionHandler struct {
	analyze *appn.AnalyzeService
	rxRepo  domainrx.Repository
}

// NewPrescriptionHandler builds the handler.
func NewPrescriptionHandler(analyze *appn.AnalyzeService, rxRepo domainrx.Repository) *PrescriptionHandler {
	return &PrescriptionHandler{analyze: analyze, rxRepo: rxRepo}
}

type analyzeTextRequest struct {
	PatientID int64  `json:"patient_id" binding:"required"`
	RawText   string `json:"raw_text"`
}

// AnalyzeText extracts medications from already-OCR'd text.  Alerts travel
// with the 200 response; only persistence failures produce error statuses.
func (h *PrescriptionHandler) AnalyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	res, err := h.analyze.AnalyzeText(c.Request.Context(), req.PatientID, req.RawText)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AnalyzeImage accepts a multipart upload with an "image" file part and a
// "patient_id" field, runs OCR, and analyzes the text.
func (h *PrescriptionHandler) AnalyzeImage(c *gin.Context) {
	var form struct {
		PatientID int64 `form:"patient_id" binding:"required"`
	}
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "patient_id is required"))
		return
	}
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		writeError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "image file is required"))
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		writeError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "read image upload"))
		return
	}

	res, err := h.analyze.AnalyzeImage(c.Request.Context(), form.PatientID, image, header.Filename)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Get returns one stored prescription.
func (h *PrescriptionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rx, err := h.rxRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rx)
}
