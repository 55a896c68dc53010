package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/service"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

// AbsenceHandler leave and off-day entry
type AbsenceHandler struct {
	absenceSvc service.AbsenceService
}

// NewAbsenceHandler creates an AbsenceHandler
func NewAbsenceHandler(absenceSvc service.AbsenceService) *AbsenceHandler {
	return &AbsenceHandler{absenceSvc: absenceSvc}
}

// SubmitLeave
// POST /api/v1/leaves
func (h *AbsenceHandler) SubmitLeave(c *gin.Context) {
	var req dto.LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.absenceSvc.SubmitLeave(c.Request.Context(), &req, callerID)
	if err != nil {
		handleStoreError(c, err)
		return
	}

	response.Created(c, result)
}

// SubmitOffDay
// POST /api/v1/off-days
func (h *AbsenceHandler) SubmitOffDay(c *gin.Context) {
	var req dto.OffDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.absenceSvc.SubmitOffDay(c.Request.Context(), &req, callerID)
	if err != nil {
		handleStoreError(c, err)
		return
	}

	response.Created(c, result)
}
