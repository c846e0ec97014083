package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RFQHandler struct {
	evaluationService service.EvaluationService
}

// NewRFQHandler sets up the routing dependencies for RFQ evaluation endpoints
func NewRFQHandler(evaluationService service.EvaluationService) *RFQHandler {
	return &RFQHandler{evaluationService: evaluationService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RFQHandler) RegisterRoutes(router *gin.RouterGroup) {
	rfqs := router.Group("/rfqs")
	{
		rfqs.GET("/:id/submissions", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical), h.ListSubmissions)
		rfqs.POST("/:id/submissions", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement), h.CreateSubmission)
		rfqs.POST("/:id/evaluate", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical), h.Evaluate)
		rfqs.POST("/:id/award/:submissionId", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement), h.Award)
	}

	submissions := router.Group("/submissions")
	{
		submissions.PUT("/:id/score", middleware.RequireRole(model.RoleAdmin, model.RoleTechnical), h.ScoreSubmission)
	}
}

// CreateSubmission handles POST /rfqs/:id/submissions
// @Summary      Register a vendor submission
// @Description  Records one vendor's quotation against an RFQ; a vendor may submit at most once per RFQ
// @Tags         rfqs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "RFQ ID"
// @Param        payload  body      service.CreateSubmissionRequest  true  "Submission Payload"
// @Success      201      {object}  response.Response{data=service.SubmissionResponse}
// @Failure      409      {object}  response.Response
// @Router       /rfqs/{id}/submissions [post]
func (h *RFQHandler) CreateSubmission(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	submission, err := h.evaluationService.CreateSubmission(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, submission))
}

// ListSubmissions handles GET /rfqs/:id/submissions
// @Summary      List submissions
// @Description  Retrieves all submissions for an RFQ in submission order
// @Tags         rfqs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "RFQ ID"
// @Success      200  {object}  response.Response{data=[]service.SubmissionResponse}
// @Failure      404  {object}  response.Response
// @Router       /rfqs/{id}/submissions [get]
func (h *RFQHandler) ListSubmissions(c *gin.Context) {
	submissions, err := h.evaluationService.ListSubmissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, submissions))
}

// ScoreSubmission handles PUT /submissions/:id/score
// @Summary      Score a submission
// @Description  Records the technical score and compliance flag assigned by the reviewing engineer
// @Tags         rfqs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Submission ID"
// @Param        payload  body      service.ScoreSubmissionRequest  true  "Score Payload"
// @Success      200      {object}  response.Response{data=service.SubmissionResponse}
// @Failure      400      {object}  response.Response
// @Router       /submissions/{id}/score [put]
func (h *RFQHandler) ScoreSubmission(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.ScoreSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	submission, err := h.evaluationService.ScoreSubmission(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, submission))
}

// Evaluate handles POST /rfqs/:id/evaluate
// @Summary      Evaluate an RFQ
// @Description  Derives commercial scores and weighted totals for every submission and returns the ranking; nothing is persisted
// @Tags         rfqs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "RFQ ID"
// @Param        payload  body      service.EvaluateRequest  true  "Evaluation Weights"
// @Success      200      {object}  response.Response{data=service.EvaluationResponse}
// @Failure      400      {object}  response.Response
// @Router       /rfqs/{id}/evaluate [post]
func (h *RFQHandler) Evaluate(c *gin.Context) {
	var req service.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	evaluation, err := h.evaluationService.Evaluate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, evaluation))
}

// Award handles POST /rfqs/:id/award/:submissionId
// @Summary      Award an RFQ
// @Description  Awards the RFQ to one submission: the winner flips to AWARDED, every other open submission to REJECTED, and the RFQ record transitions in the same transaction
// @Tags         rfqs
// @Produce      json
// @Security     BearerAuth
// @Param        id            path      string  true  "RFQ ID"
// @Param        submissionId  path      string  true  "Submission ID"
// @Success      200           {object}  response.Response{data=service.SubmissionResponse}
// @Failure      409           {object}  response.Response
// @Router       /rfqs/{id}/award/{submissionId} [post]
func (h *RFQHandler) Award(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	submission, err := h.evaluationService.Award(c.Request.Context(), actor, c.Param("id"), c.Param("submissionId"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, submission))
}
