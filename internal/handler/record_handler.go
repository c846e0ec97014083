package handler

import (
	"errors"
	"net/http"

	"backend/internal/engine"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	lifecycleService service.LifecycleService
}

// NewRecordHandler sets up the routing dependencies for lifecycle record endpoints
func NewRecordHandler(lifecycleService service.LifecycleService) *RecordHandler {
	return &RecordHandler{lifecycleService: lifecycleService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RecordHandler) RegisterRoutes(router *gin.RouterGroup) {
	records := router.Group("/records")
	{
		records.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.ListRecords)
		records.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.GetRecord)
		records.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement), h.CreateRecord)
		records.POST("/:id/transition", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.Transition)
	}
}

// statusFromError maps service and domain errors to HTTP status codes.
// Stale writes and illegal transitions are conflicts, not bad requests:
// the payload was fine, the record moved underneath the caller.
func statusFromError(err error) int {
	var transitionErr *engine.TransitionError
	switch {
	case errors.Is(err, repository.ErrStaleWrite):
		return http.StatusConflict
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &transitionErr),
		errors.Is(err, engine.ErrAlreadyAwarded),
		errors.Is(err, engine.ErrNotAwardable),
		errors.Is(err, service.ErrDuplicateSubmission),
		errors.Is(err, service.ErrRFQNotOpen),
		errors.Is(err, service.ErrContractNotActive),
		errors.Is(err, service.ErrApprovalDecided):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// CreateRecord handles POST /records
// @Summary      Create a procurement record
// @Description  Creates a lifecycle record (purchase request, RFQ, contract or invoice) in its initial status
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRecordRequest  true  "Create Record Payload"
// @Success      201      {object}  response.Response{data=service.RecordResponse}
// @Failure      400      {object}  response.Response
// @Router       /records [post]
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.lifecycleService.CreateRecord(c.Request.Context(), actor, req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// Transition handles POST /records/:id/transition
// @Summary      Transition a record
// @Description  Moves a record to the requested status if the lifecycle graph allows it; concurrent transitions on the same record return 409
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Record ID"
// @Param        payload  body      service.TransitionRequest  true  "Requested Status"
// @Success      200      {object}  response.Response{data=service.RecordResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /records/{id}/transition [post]
func (h *RecordHandler) Transition(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.lifecycleService.Transition(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// GetRecord handles GET /records/:id
// @Summary      Get record by ID
// @Description  Fetch a record with its full status history and reachable next statuses
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  response.Response{data=service.RecordResponse}
// @Failure      404  {object}  response.Response
// @Router       /records/{id} [get]
func (h *RecordHandler) GetRecord(c *gin.Context) {
	record, err := h.lifecycleService.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// ListRecords handles GET /records
// @Summary      List records
// @Description  Retrieves a paginated list of records, optionally filtered by kind and status
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        kind    query     string  false  "Record kind filter"
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /records [get]
func (h *RecordHandler) ListRecords(c *gin.Context) {
	params := pagination.Parse(c)

	records, total, err := h.lifecycleService.ListRecords(c.Request.Context(), service.RecordFilter{
		Kind:   c.Query("kind"),
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch records"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.List{
		Items: records,
		Meta:  pagination.NewMeta(params, total),
	}))
}
