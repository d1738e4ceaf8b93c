package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"precision-medicine-server/internal/middleware"
	"precision-medicine-server/internal/orchestrator"
	"precision-medicine-server/internal/utils"
)

// AnalysisHandler handles pathology report submission.
type AnalysisHandler struct {
	Orch *orchestrator.Orchestrator
	// MaxUploadBytes caps the size of an uploaded report file.
	MaxUploadBytes int64
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(orch *orchestrator.Orchestrator, maxUploadBytes int64) *AnalysisHandler {
	return &AnalysisHandler{Orch: orch, MaxUploadBytes: maxUploadBytes}
}

// AnalyzeRequest is the JSON form of a report submission.
type AnalyzeRequest struct {
	ReportName string `json:"report_name" binding:"max=128"`
	ReportText string `json:"report_text" binding:"required"`
}

// Analyze accepts a report as JSON text or as a multipart form with an optional PDF in
// report_file, extracts its entities and makes it the current report.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var in orchestrator.ReportInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, ok := h.readForm(c)
		if !ok {
			return
		}
		in = form
	} else {
		var req AnalyzeRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		in = orchestrator.ReportInput{Name: req.ReportName, Text: req.ReportText}
	}

	analysis, err := h.Orch.AnalyzeReport(c.Request.Context(), userID, in)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Report analyzed successfully", analysis)
}

func (h *AnalysisHandler) readForm(c *gin.Context) (orchestrator.ReportInput, bool) {
	in := orchestrator.ReportInput{
		Name: c.PostForm("report_name"),
		Text: c.PostForm("report_text"),
	}

	fileHeader, err := c.FormFile("report_file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, true
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.Error(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
			return in, false
		}
		utils.BadRequest(c, "Invalid multipart form: "+err.Error())
		return in, false
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		utils.BadRequest(c, "Only PDF files are supported")
		return in, false
	}
	if h.MaxUploadBytes > 0 && fileHeader.Size > h.MaxUploadBytes {
		utils.Error(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
		return in, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequest(c, "Could not open uploaded file")
		return in, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.BadRequest(c, "Could not read uploaded file")
		return in, false
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	in.File = &orchestrator.UploadedFile{
		Name:        filepath.Base(fileHeader.Filename),
		ContentType: contentType,
		Data:        data,
	}
	return in, true
}
