package handlers

import (
	"github.com/gin-gonic/gin"

	"precision-medicine-server/internal/domain"
	"precision-medicine-server/internal/middleware"
	"precision-medicine-server/internal/orchestrator"
	"precision-medicine-server/internal/utils"
)

// ProfileHandler handles the patient profile step.
type ProfileHandler struct {
	Orch *orchestrator.Orchestrator
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(orch *orchestrator.Orchestrator) *ProfileHandler {
	return &ProfileHandler{Orch: orch}
}

// GetProfile returns the current profile, or an empty one.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	profile, err := h.Orch.GetProfile(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", profile)
}

// SaveProfile stores the submitted profile. Every field is optional.
func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req domain.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	profile, err := h.Orch.SaveProfile(c.Request.Context(), userID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile updated successfully", profile)
}
