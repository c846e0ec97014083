package handler

import (
	"fmt"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler sets up the routing dependencies for report export endpoints
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	reports.Use(middleware.RequireRole(model.RoleAdmin, model.RoleProcurement, model.RoleFinance))
	{
		reports.GET("/compliance.xlsx", h.ExportCompliance)
		reports.GET("/sla.xlsx", h.ExportSla)
	}
}

// ExportCompliance handles GET /reports/compliance.xlsx
// @Summary      Export vendor compliance workbook
// @Description  Downloads an xlsx with one row per vendor and its compliance breakdown
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file
// @Failure      500  {object}  response.Response
// @Router       /reports/compliance.xlsx [get]
func (h *ReportHandler) ExportCompliance(c *gin.Context) {
	workbook, err := h.reportService.ComplianceWorkbook(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build report: "+err.Error()))
		return
	}

	h.writeWorkbook(c, workbook, "vendor_compliance")
}

// ExportSla handles GET /reports/sla.xlsx
// @Summary      Export SLA dashboard workbook
// @Description  Downloads an xlsx with pending approvals, their SLA standing and aggregate counts
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file
// @Failure      500  {object}  response.Response
// @Router       /reports/sla.xlsx [get]
func (h *ReportHandler) ExportSla(c *gin.Context) {
	workbook, err := h.reportService.SlaWorkbook(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build report: "+err.Error()))
		return
	}

	h.writeWorkbook(c, workbook, "sla_dashboard")
}

func (h *ReportHandler) writeWorkbook(c *gin.Context, workbook *excelize.File, name string) {
	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("20060102_150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := workbook.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to write report"))
	}
}
