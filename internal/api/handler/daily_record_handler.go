package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/service"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

// DailyRecordHandler review and correction of reconciled records
type DailyRecordHandler struct {
	recordSvc service.DailyRecordService
}

// NewDailyRecordHandler creates a DailyRecordHandler
func NewDailyRecordHandler(recordSvc service.DailyRecordService) *DailyRecordHandler {
	return &DailyRecordHandler{recordSvc: recordSvc}
}

// List records in a date range
// GET /api/v1/daily-records?from=&to=&employee_id=
func (h *DailyRecordHandler) List(c *gin.Context) {
	var req dto.RecordFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query")
		return
	}

	list, err := h.recordSvc.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get one record
// GET /api/v1/daily-records/:id
func (h *DailyRecordHandler) Get(c *gin.Context) {
	rec, err := h.recordSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRecordError(c, err)
		return
	}
	response.OK(c, rec)
}

// Approve
// PUT /api/v1/daily-records/approve
func (h *DailyRecordHandler) Approve(c *gin.Context) {
	h.approval(c, h.recordSvc.Approve)
}

// Unapprove
// PUT /api/v1/daily-records/unapprove
func (h *DailyRecordHandler) Unapprove(c *gin.Context) {
	h.approval(c, h.recordSvc.Unapprove)
}

func (h *DailyRecordHandler) approval(c *gin.Context, fn func(ctx context.Context, ids []string, actorID string) (*dto.ApprovalResult, error)) {
	var req dto.RecordIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), req.IDs, callerID)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OK(c, result)
}

// ApplyPenalty
// PUT /api/v1/daily-records/penalty
func (h *DailyRecordHandler) ApplyPenalty(c *gin.Context) {
	var req dto.PenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rec, err := h.recordSvc.ApplyPenalty(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OK(c, rec)
}

// EditTimes
// PUT /api/v1/daily-records/times
func (h *DailyRecordHandler) EditTimes(c *gin.Context) {
	var req dto.EditTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rec, err := h.recordSvc.EditTimes(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OK(c, rec)
}

// Swap check-in and check-out
// PUT /api/v1/daily-records/swap
func (h *DailyRecordHandler) Swap(c *gin.Context) {
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	recs, err := h.recordSvc.Swap(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OK(c, recs)
}

func (h *DailyRecordHandler) handleRecordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRecordNotFound):
		response.NotFound(c, 14001, err.Error())
	case errors.Is(err, service.ErrRecordIsAbsence):
		response.Unprocessable(c, 14002, err.Error())
	case errors.Is(err, service.ErrRecordConcurrent):
		response.Conflict(c, 14003, err.Error())
	case errors.Is(err, service.ErrRecordApproved):
		response.Conflict(c, 14004, err.Error())
	default:
		handleStoreError(c, err)
	}
}
