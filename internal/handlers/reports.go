package handlers

import (
	"github.com/gin-gonic/gin"

	"precision-medicine-server/internal/middleware"
	"precision-medicine-server/internal/orchestrator"
	"precision-medicine-server/internal/utils"
)

// ReportHandler serves the report history and PDF export.
type ReportHandler struct {
	Orch *orchestrator.Orchestrator
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(orch *orchestrator.Orchestrator) *ReportHandler {
	return &ReportHandler{Orch: orch}
}

// ListReports returns the user's reports, newest first.
func (h *ReportHandler) ListReports(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	reports, err := h.Orch.Reports(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Reports fetched successfully", reports)
}

// GetReport returns one report with its recommendations.
func (h *ReportHandler) GetReport(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	report, err := h.Orch.Report(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Report fetched successfully", report)
}

// ExportReport downloads the session's recommendations as a PDF.
func (h *ReportHandler) ExportReport(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	out, err := h.Orch.Export(c.Request.Context(), userID, c.Query("query"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Attachment(c, out.Filename, "application/pdf", out.Data)
}
