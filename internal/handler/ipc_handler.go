package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type IpcHandler struct {
	ledgerService service.LedgerService
}

// NewIpcHandler sets up the routing dependencies for IPC ledger endpoints
func NewIpcHandler(ledgerService service.LedgerService) *IpcHandler {
	return &IpcHandler{ledgerService: ledgerService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *IpcHandler) RegisterRoutes(router *gin.RouterGroup) {
	contracts := router.Group("/contracts")
	{
		contracts.POST("/:id/ipcs", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleFinance), h.CreateIpc)
		contracts.GET("/:id/statement", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleFinance), h.GetStatement)
	}

	ipcs := router.Group("/ipcs")
	{
		ipcs.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.GetIpc)
	}
}

// CreateIpc handles POST /contracts/:id/ipcs
// @Summary      Create an interim payment certificate
// @Description  Certifies a work period against an active contract; derived figures are computed, returned and never stored
// @Tags         ipcs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Contract ID"
// @Param        payload  body      service.CreateIpcRequest  true  "IPC Payload"
// @Success      201      {object}  response.Response{data=service.IpcResponse}
// @Failure      409      {object}  response.Response
// @Router       /contracts/{id}/ipcs [post]
func (h *IpcHandler) CreateIpc(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreateIpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ipc, err := h.ledgerService.CreateIpc(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ipc))
}

// GetIpc handles GET /ipcs/:id
// @Summary      Get IPC by ID
// @Description  Fetch one IPC with its derived figures recomputed from the stored inputs
// @Tags         ipcs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "IPC ID"
// @Success      200  {object}  response.Response{data=service.IpcResponse}
// @Failure      404  {object}  response.Response
// @Router       /ipcs/{id} [get]
func (h *IpcHandler) GetIpc(c *gin.Context) {
	ipc, err := h.ledgerService.GetIpc(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ipc))
}

// GetStatement handles GET /contracts/:id/statement
// @Summary      Get contract payment statement
// @Description  Rebuilds the running position of a contract: every IPC in sequence plus the certified-to-date totals
// @Tags         ipcs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  response.Response{data=service.ContractStatementResponse}
// @Failure      404  {object}  response.Response
// @Router       /contracts/{id}/statement [get]
func (h *IpcHandler) GetStatement(c *gin.Context) {
	statement, err := h.ledgerService.GetContractStatement(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, statement))
}
