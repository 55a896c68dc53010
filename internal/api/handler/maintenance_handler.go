package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/service"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

// MaintenanceHandler bulk delete and reset
type MaintenanceHandler struct {
	maintenanceSvc service.MaintenanceService
}

// NewMaintenanceHandler creates a MaintenanceHandler
func NewMaintenanceHandler(maintenanceSvc service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceSvc: maintenanceSvc}
}

// DeleteRecords removes records in a range; approved ones are kept unless
// preserve_approved is false
// DELETE /api/v1/daily-records
func (h *MaintenanceHandler) DeleteRecords(c *gin.Context) {
	var req dto.DeleteRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}
	preserve := true
	if req.PreserveApproved != nil {
		preserve = *req.PreserveApproved
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.maintenanceSvc.DeleteRecords(c.Request.Context(), req.ToFilter(), preserve, callerID)
	if err != nil {
		h.handleMaintenanceError(c, err)
		return
	}

	response.OK(c, result)
}

// Reset removes every non-approved record in a range and verifies the
// holiday list afterwards
// POST /api/v1/maintenance/reset
func (h *MaintenanceHandler) Reset(c *gin.Context) {
	var req dto.RecordFilterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "invalid request body")
			return
		}
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.maintenanceSvc.ResetAll(c.Request.Context(), req.ToFilter(), callerID)
	if err != nil {
		h.handleMaintenanceError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *MaintenanceHandler) handleMaintenanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHolidaysMismatch):
		response.ErrorWithDetails(c, http.StatusInternalServerError, 18001, err.Error(), "restore the latest holiday backup")
	default:
		handleStoreError(c, err)
	}
}
