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

type VendorHandler struct {
	complianceService service.ComplianceService
}

// NewVendorHandler sets up the routing dependencies for vendor endpoints
func NewVendorHandler(complianceService service.ComplianceService) *VendorHandler {
	return &VendorHandler{complianceService: complianceService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *VendorHandler) RegisterRoutes(router *gin.RouterGroup) {
	vendors := router.Group("/vendors")
	{
		vendors.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.ListVendors)
		vendors.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.GetVendor)
		vendors.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement), h.CreateVendor)
		vendors.POST("/:id/documents", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement), h.UploadDocument)
		vendors.GET("/:id/compliance", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleTechnical, model.RoleFinance), h.GetCompliance)
		vendors.GET("/:id/documents/:docType/history", middleware.RequireRole(model.RoleAdmin, model.RoleProcurement), h.GetDocumentHistory)
	}
}

// CreateVendor handles POST /vendors
// @Summary      Create a vendor
// @Description  Registers a vendor of one of the six commercial types
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateVendorRequest  true  "Vendor Payload"
// @Success      201      {object}  response.Response{data=service.VendorResponse}
// @Failure      400      {object}  response.Response
// @Router       /vendors [post]
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vendor, err := h.complianceService.CreateVendor(c.Request.Context(), actor, req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vendor))
}

// GetVendor handles GET /vendors/:id
// @Summary      Get vendor by ID
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Vendor ID"
// @Success      200  {object}  response.Response{data=service.VendorResponse}
// @Failure      404  {object}  response.Response
// @Router       /vendors/{id} [get]
func (h *VendorHandler) GetVendor(c *gin.Context) {
	vendor, err := h.complianceService.GetVendor(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// ListVendors handles GET /vendors
// @Summary      List vendors
// @Description  Retrieves a paginated list of vendors, optionally filtered by type
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        type   query     string  false  "Vendor type filter"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /vendors [get]
func (h *VendorHandler) ListVendors(c *gin.Context) {
	params := pagination.Parse(c)

	vendors, total, err := h.complianceService.ListVendors(c.Request.Context(), c.Query("type"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch vendors"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.List{
		Items: vendors,
		Meta:  pagination.NewMeta(params, total),
	}))
}

// UploadDocument handles POST /vendors/:id/documents
// @Summary      Upload a vendor document
// @Description  Appends the next version in the (vendor, docType) chain; previous versions are kept for rollback
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Vendor ID"
// @Param        payload  body      service.UploadDocumentRequest  true  "Document Payload"
// @Success      201      {object}  response.Response{data=service.DocumentResponse}
// @Failure      400      {object}  response.Response
// @Router       /vendors/{id}/documents [post]
func (h *VendorHandler) UploadDocument(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	var req service.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.complianceService.UploadDocument(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// GetCompliance handles GET /vendors/:id/compliance
// @Summary      Get vendor compliance
// @Description  Grades the vendor's current documents against its type's mandatory set
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Vendor ID"
// @Success      200  {object}  response.Response{data=service.VendorComplianceResponse}
// @Failure      404  {object}  response.Response
// @Router       /vendors/{id}/compliance [get]
func (h *VendorHandler) GetCompliance(c *gin.Context) {
	summary, err := h.complianceService.GetComplianceSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetDocumentHistory handles GET /vendors/:id/documents/:docType/history
// @Summary      Get document version history
// @Description  Retrieves every version of one document type for a vendor, oldest first
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Vendor ID"
// @Param        docType  path      string  true  "Document type"
// @Success      200      {object}  response.Response{data=[]service.DocumentResponse}
// @Failure      400      {object}  response.Response
// @Router       /vendors/{id}/documents/{docType}/history [get]
func (h *VendorHandler) GetDocumentHistory(c *gin.Context) {
	versions, err := h.complianceService.ListDocumentHistory(c.Request.Context(), c.Param("id"), c.Param("docType"))
	if err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, versions))
}
