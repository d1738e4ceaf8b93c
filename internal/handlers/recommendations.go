package handlers

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"precision-medicine-server/internal/domain"
	"precision-medicine-server/internal/middleware"
	"precision-medicine-server/internal/orchestrator"
	"precision-medicine-server/internal/recommend"
	"precision-medicine-server/internal/utils"
)

// RecommendationHandler handles therapy recommendation requests.
type RecommendationHandler struct {
	Orch *orchestrator.Orchestrator
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(orch *orchestrator.Orchestrator) *RecommendationHandler {
	return &RecommendationHandler{Orch: orch}
}

// SelectAgentRequest picks the philosophies to consult for the current report.
type SelectAgentRequest struct {
	AgentType string `json:"agent_type" binding:"required"`
	Query     string `json:"query" binding:"max=2000"`
	Mode      string `json:"mode" binding:"omitempty,oneof=standard agent"`
}

// SelectAgent recommends therapies for the user's current profile and report.
func (h *RecommendationHandler) SelectAgent(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req SelectAgentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	recs, err := h.Orch.SelectAgent(c.Request.Context(), userID, orchestrator.AgentRequest{
		AgentType: req.AgentType,
		Query:     req.Query,
		AgentMode: req.Mode == "agent",
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Recommendations generated successfully", recs)
}

// Results returns the latest recommendations in the user's session.
func (h *RecommendationHandler) Results(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	view, err := h.Orch.Results(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Results fetched successfully", view)
}

// ExtractEntitiesRequest carries free text to scan.
type ExtractEntitiesRequest struct {
	Text string `json:"text"`
}

// ExtractEntities runs keyword extraction without touching the session.
func (h *RecommendationHandler) ExtractEntities(c *gin.Context) {
	var req ExtractEntitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "No text provided")
		return
	}

	bag, err := h.Orch.ExtractEntities(req.Text)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Entities extracted successfully", gin.H{"entities": bag})
}

// RecommendRequest is a self-contained recommendation request.
type RecommendRequest struct {
	AgentType string           `json:"agent_type"`
	Profile   domain.Profile   `json:"profile"`
	Entities  domain.EntityBag `json:"entities"`
	Query     string           `json:"query"`
}

var recommendFields = []string{"agent_type", "profile", "entities", "query"}

// GetRecommendations answers a self-contained request with one model call where the
// selector allows it.
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	h.recommend(c, false)
}

// AgentRecommendations answers a self-contained request with one model call per
// philosophy.
func (h *RecommendationHandler) AgentRecommendations(c *gin.Context) {
	h.recommend(c, true)
}

func (h *RecommendationHandler) recommend(c *gin.Context, agentMode bool) {
	req, ok := bindRecommendRequest(c)
	if !ok {
		return
	}

	sel, err := domain.ParseSelector(req.AgentType)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	recs := h.Orch.Recommend(c.Request.Context(), sel, recommend.Input{
		Profile:  req.Profile,
		Entities: req.Entities.Clone(),
		Query:    req.Query,
	}, agentMode)
	utils.Success(c, "Recommendations generated successfully", recs)
}

// bindRecommendRequest requires every field to be present, reporting all missing ones.
func bindRecommendRequest(c *gin.Context) (RecommendRequest, bool) {
	var req RecommendRequest
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		utils.BadRequest(c, "No data provided")
		return req, false
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(body, &present); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return req, false
	}
	var missing []string
	for _, field := range recommendFields {
		if _, ok := present[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		utils.BadRequest(c, "Missing required fields: "+strings.Join(missing, ", "))
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return req, false
	}
	return req, true
}
