package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/service"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

// ReportHandler approved-hours aggregation
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// ApprovedHours
// GET /api/v1/reports/approved-hours?from=&to=&employee_id=
func (h *ReportHandler) ApprovedHours(c *gin.Context) {
	var req dto.RecordFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query")
		return
	}

	report, err := h.reportSvc.ApprovedHours(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// EmployeeDetail
// GET /api/v1/reports/employees/:id?from=&to=
func (h *ReportHandler) EmployeeDetail(c *gin.Context) {
	var req dto.RecordFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query")
		return
	}

	detail, err := h.reportSvc.EmployeeDetail(c.Request.Context(), c.Param("id"), req.ToFilter())
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, detail)
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, err.Error())
	default:
		handleStoreError(c, err)
	}
}
