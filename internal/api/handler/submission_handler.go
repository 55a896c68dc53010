package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/api/middleware"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/service"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

// ShiftSubmissionHandler manually entered shifts awaiting HR review
type ShiftSubmissionHandler struct {
	submissionSvc service.ShiftSubmissionService
}

// NewShiftSubmissionHandler creates a ShiftSubmissionHandler
func NewShiftSubmissionHandler(submissionSvc service.ShiftSubmissionService) *ShiftSubmissionHandler {
	return &ShiftSubmissionHandler{submissionSvc: submissionSvc}
}

// Create
// POST /api/v1/shift-submissions
func (h *ShiftSubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateShiftSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}
	if !allowEmployee(c, req.EmployeeID) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sub, err := h.submissionSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.Created(c, sub)
}

// List submissions; employees only see their own
// GET /api/v1/shift-submissions?status=&employee_id=&page=&page_size=
func (h *ShiftSubmissionHandler) List(c *gin.Context) {
	var req dto.ListShiftSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query")
		return
	}

	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	if !isStaff(role) {
		req.EmployeeID = c.GetString(middleware.CtxEmployeeID)
		if req.EmployeeID == "" {
			response.Forbidden(c, 10003, "account has no employee profile")
			return
		}
	}

	list, total, err := h.submissionSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// Confirm turns a pending submission into a manual daily record
// PUT /api/v1/shift-submissions/:id/confirm
func (h *ShiftSubmissionHandler) Confirm(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sub, err := h.submissionSvc.Confirm(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, sub)
}

// Reject
// PUT /api/v1/shift-submissions/:id/reject
func (h *ShiftSubmissionHandler) Reject(c *gin.Context) {
	var req dto.RejectShiftSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "a rejection reason is required")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sub, err := h.submissionSvc.Reject(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, sub)
}

func (h *ShiftSubmissionHandler) handleSubmissionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, 15001, err.Error())
	case errors.Is(err, service.ErrSubmissionNotPending):
		response.Conflict(c, 15002, err.Error())
	default:
		handleStoreError(c, err)
	}
}
