package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"precision-medicine-server/internal/domain"
	"precision-medicine-server/internal/orchestrator"
	"precision-medicine-server/internal/utils"
)

// ApproachHandler suggests which medical approach fits a health concern.
type ApproachHandler struct {
	Orch *orchestrator.Orchestrator
}

// NewApproachHandler creates a new ApproachHandler.
func NewApproachHandler(orch *orchestrator.Orchestrator) *ApproachHandler {
	return &ApproachHandler{Orch: orch}
}

// ApproachSelectorRequest is the form-style request of the approach selector step.
type ApproachSelectorRequest struct {
	HealthQuery string `json:"health_query"`
}

// SelectApproachRequest is the API request for approach selection.
type SelectApproachRequest struct {
	Query string `json:"query"`
}

// ApproachResponse carries the decision and the agent type to request next.
type ApproachResponse struct {
	Query     string                `json:"query"`
	Approach  domain.Approach       `json:"approach"`
	Reason    string                `json:"reason"`
	Source    domain.DecisionSource `json:"source"`
	AgentType domain.Selector       `json:"agent_type"`
}

// ApproachSelector handles the approach selector step.
func (h *ApproachHandler) ApproachSelector(c *gin.Context) {
	var req ApproachSelectorRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.HealthQuery) == "" {
		utils.BadRequest(c, "Please enter your health concern")
		return
	}
	h.respond(c, req.HealthQuery)
}

// SelectApproach handles both approach selection API endpoints.
func (h *ApproachHandler) SelectApproach(c *gin.Context) {
	var req SelectApproachRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		utils.BadRequest(c, "Missing health query")
		return
	}
	h.respond(c, req.Query)
}

func (h *ApproachHandler) respond(c *gin.Context, query string) {
	decision, err := h.Orch.SelectApproach(c.Request.Context(), query)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Approach selected successfully", ApproachResponse{
		Query:     query,
		Approach:  decision.Approach,
		Reason:    decision.Reason,
		Source:    decision.Source,
		AgentType: domain.Selector(strings.ToLower(string(decision.Approach))),
	})
}
