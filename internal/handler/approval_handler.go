package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	slaService service.SlaService
}

// NewApprovalHandler sets up the routing dependencies for approval/SLA endpoints
func NewApprovalHandler(slaService service.SlaService) *ApprovalHandler {
	return &ApprovalHandler{slaService: slaService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/approvals")
	{
		approvals.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.ListApprovals)
		approvals.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.GetApproval)
		approvals.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement), h.CreateApproval)
		approvals.POST("/:id/decide", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.Decide)
		approvals.POST("/:id/extend", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement), h.ExtendSla)
		approvals.POST("/remind", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement), h.SendReminders)
	}

	router.GET("/sla/dashboard", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleFinance), h.Dashboard)
	router.GET("/records/:id/approvals", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.ListByRecord)
}

// CreateApproval handles POST /approvals
// @Summary      Create an approval assignment
// @Description  Assigns a pending decision on a record to a user with a fixed SLA deadline
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateApprovalRequest  true  "Approval Payload"
// @Success      201      {object}  response.Response{data=service.ApprovalResponse}
// @Failure      400      {object}  response.Response
// @Router       /approvals [post]
func (h *ApprovalHandler) CreateApproval(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	approval, err := h.slaService.CreateApproval(c.Request.Context(), actor, req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, approval))
}

// GetApproval handles GET /approvals/:id
// @Summary      Get approval by ID
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Approval ID"
// @Success      200  {object}  response.Response{data=service.ApprovalResponse}
// @Failure      404  {object}  response.Response
// @Router       /approvals/{id} [get]
func (h *ApprovalHandler) GetApproval(c *gin.Context) {
	approval, err := h.slaService.GetApproval(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approval))
}

// ListApprovals handles GET /approvals
// @Summary      List approvals
// @Description  Retrieves a paginated list of approvals ordered by deadline, optionally filtered by status
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter (PENDING, APPROVED, REJECTED)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /approvals [get]
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	params := pagination.Parse(c)

	approvals, total, err := h.slaService.ListApprovals(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch approvals"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.List{
		Items: approvals,
		Meta:  pagination.NewMeta(params, total),
	}))
}

// ListByRecord handles GET /records/:id/approvals
// @Summary      List approvals for a record
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  response.Response{data=[]service.ApprovalResponse}
// @Router       /records/{id}/approvals [get]
func (h *ApprovalHandler) ListByRecord(c *gin.Context) {
	approvals, err := h.slaService.ListByRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approvals))
}

// Decide handles POST /approvals/:id/decide
// @Summary      Decide an approval
// @Description  Approves or rejects a pending approval; the SLA outcome freezes at the decision time
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Approval ID"
// @Param        payload  body      service.DecideApprovalRequest  true  "Decision Payload"
// @Success      200      {object}  response.Response{data=service.ApprovalResponse}
// @Failure      409      {object}  response.Response
// @Router       /approvals/{id}/decide [post]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	approval, err := h.slaService.Decide(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approval))
}

// ExtendSla handles POST /approvals/:id/extend
// @Summary      Extend an approval's SLA deadline
// @Description  Moves the deadline forward and records the old and new deadline in the audit trail
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Approval ID"
// @Param        payload  body      service.ExtendSlaRequest true  "Extension Payload"
// @Success      200      {object}  response.Response{data=service.ApprovalResponse}
// @Failure      409      {object}  response.Response
// @Router       /approvals/{id}/extend [post]
func (h *ApprovalHandler) ExtendSla(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.ExtendSlaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	approval, err := h.slaService.ExtendSla(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approval))
}

// Dashboard handles GET /sla/dashboard
// @Summary      SLA dashboard
// @Description  Aggregates approval SLA standing: totals, overdue counts and per-entity-kind buckets
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=engine.SlaSummary}
// @Router       /sla/dashboard [get]
func (h *ApprovalHandler) Dashboard(c *gin.Context) {
	summary, err := h.slaService.Dashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build dashboard"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// SendReminders handles POST /approvals/remind
// @Summary      Send approval reminders
// @Description  Notifies the assignee of every pending approval and reports which reminders concern overdue items
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ReminderBatchResponse}
// @Router       /approvals/remind [post]
func (h *ApprovalHandler) SendReminders(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	batch, err := h.slaService.SendReminders(c.Request.Context(), actor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to send reminders"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, batch))
}
