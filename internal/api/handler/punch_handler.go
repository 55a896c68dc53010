package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/service"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

const maxImportFileSize = 10 << 20 // 10MB

// PunchHandler punch ingestion and reconciliation runs
type PunchHandler struct {
	punchSvc     service.PunchService
	reconcileSvc service.ReconcileService
}

// NewPunchHandler creates a PunchHandler
func NewPunchHandler(punchSvc service.PunchService, reconcileSvc service.ReconcileService) *PunchHandler {
	return &PunchHandler{punchSvc: punchSvc, reconcileSvc: reconcileSvc}
}

// Submit one clock event
// POST /api/v1/punches
func (h *PunchHandler) Submit(c *gin.Context) {
	var req dto.SubmitPunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}
	if !allowEmployee(c, req.EmployeeID) {
		return
	}

	result, err := h.punchSvc.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handlePunchError(c, err)
		return
	}

	if result.Duplicate {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}

// Import a device export spreadsheet
// POST /api/v1/punches/import (multipart, field "file")
func (h *PunchHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 13001, "upload the device export as field \"file\"")
		return
	}
	defer file.Close()
	if header.Size > maxImportFileSize {
		response.BadRequest(c, 13002, "file exceeds 10MB")
		return
	}

	result, err := h.punchSvc.Import(c.Request.Context(), file)
	if err != nil {
		h.handlePunchError(c, err)
		return
	}

	response.OK(c, result)
}

// Reconcile re-runs reconciliation over a date range
// POST /api/v1/reconcile
func (h *PunchHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.reconcileSvc.ReconcileRange(c.Request.Context(), &req)
	if err != nil {
		h.handlePunchError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *PunchHandler) handlePunchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCustomShiftHint):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrImportNoSheet),
		errors.Is(err, service.ErrImportNoHeader),
		errors.Is(err, service.ErrImportTooLarge):
		response.BadRequest(c, 13004, err.Error())
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, err.Error())
	default:
		handleStoreError(c, err)
	}
}
