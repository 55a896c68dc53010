package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/service"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

// HolidayHandler double-time holiday list
type HolidayHandler struct {
	holidaySvc service.HolidayService
}

// NewHolidayHandler creates a HolidayHandler
func NewHolidayHandler(holidaySvc service.HolidayService) *HolidayHandler {
	return &HolidayHandler{holidaySvc: holidaySvc}
}

// List holidays
// GET /api/v1/holidays
func (h *HolidayHandler) List(c *gin.Context) {
	list, err := h.holidaySvc.List(c.Request.Context())
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Add a holiday
// POST /api/v1/holidays
func (h *HolidayHandler) Add(c *gin.Context) {
	var req dto.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	holiday, err := h.holidaySvc.Add(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}

	response.Created(c, holiday)
}

// Remove a holiday
// DELETE /api/v1/holidays/:id
func (h *HolidayHandler) Remove(c *gin.Context) {
	if err := h.holidaySvc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.handleHolidayError(c, err)
		return
	}
	response.OK(c, nil)
}

// Import holidays from an iCalendar file or URL
// POST /api/v1/holidays/import
//
//   - file upload: multipart/form-data, field "file"
//   - URL: application/json {"url": "..."} or form field "url"
func (h *HolidayHandler) Import(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		result, err := h.holidaySvc.ImportICS(c.Request.Context(), file, callerID)
		if err != nil {
			h.handleHolidayError(c, err)
			return
		}
		response.OK(c, result)
		return
	}

	var req dto.ImportHolidaysRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 17001, "upload an ICS file or provide an ICS url")
		return
	}

	result, err := h.holidaySvc.ImportICSURL(c.Request.Context(), req.URL, callerID)
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}
	response.OK(c, result)
}

// Export holidays as an iCalendar file
// GET /api/v1/holidays/export
func (h *HolidayHandler) Export(c *gin.Context) {
	data, err := h.holidaySvc.ExportICS(c.Request.Context())
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=holidays.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// Backup stores a snapshot of the list
// POST /api/v1/holidays/backups
func (h *HolidayHandler) Backup(c *gin.Context) {
	var req dto.BackupHolidaysRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "invalid request body")
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "manual"
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	backup, err := h.holidaySvc.Backup(c.Request.Context(), req.Reason, callerID)
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}
	response.Created(c, dto.HolidayBackupResponse{
		ID:        backup.BackupID,
		Reason:    backup.Reason,
		ItemCount: backup.ItemCount,
		CreatedAt: backup.CreatedAt.Format(time.RFC3339),
	})
}

// ListBackups newest first
// GET /api/v1/holidays/backups?limit=
func (h *HolidayHandler) ListBackups(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.holidaySvc.ListBackups(c.Request.Context(), limit)
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Restore replaces the list with a backup; latest when no id is given
// POST /api/v1/holidays/restore
func (h *HolidayHandler) Restore(c *gin.Context) {
	var req dto.RestoreHolidaysRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "invalid request body")
			return
		}
	}

	backup, err := h.holidaySvc.Restore(c.Request.Context(), req.BackupID)
	if err != nil {
		h.handleHolidayError(c, err)
		return
	}
	response.OK(c, backup)
}

func (h *HolidayHandler) handleHolidayError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHolidayNotFound):
		response.NotFound(c, 17002, err.Error())
	case errors.Is(err, service.ErrHolidayExists):
		response.Conflict(c, 17003, err.Error())
	case errors.Is(err, service.ErrBackupNotFound):
		response.NotFound(c, 17004, err.Error())
	case errors.Is(err, service.ErrICSUnreadable):
		response.BadRequest(c, 17005, err.Error())
	default:
		handleStoreError(c, err)
	}
}
