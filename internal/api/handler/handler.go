package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/service"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

// Handler aggregate of every HTTP handler
type Handler struct {
	Auth        *AuthHandler
	Employee    *EmployeeHandler
	Punch       *PunchHandler
	Absence     *AbsenceHandler
	Submission  *ShiftSubmissionHandler
	DailyRecord *DailyRecordHandler
	Holiday     *HolidayHandler
	Report      *ReportHandler
	Export      *ExportHandler
	Maintenance *MaintenanceHandler
}

// NewHandler builds the handlers over the service aggregate
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Employee:    NewEmployeeHandler(svc.Employee),
		Punch:       NewPunchHandler(svc.Punch, svc.Reconcile),
		Absence:     NewAbsenceHandler(svc.Absence),
		Submission:  NewShiftSubmissionHandler(svc.Submission),
		DailyRecord: NewDailyRecordHandler(svc.DailyRecord),
		Holiday:     NewHolidayHandler(svc.Holiday),
		Report:      NewReportHandler(svc.Report),
		Export:      NewExportHandler(svc.Export),
		Maintenance: NewMaintenanceHandler(svc.Maintenance),
	}
}

// handleStoreError maps the shared error taxonomy. Module handlers fall back
// to it after checking their own sentinels.
func handleStoreError(c *gin.Context, err error) {
	var (
		verr *pkgerrors.ValidationError
		rule *pkgerrors.BusinessRuleViolation
	)
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "validation failed", verr.Error())
	case errors.As(err, &rule):
		response.Unprocessable(c, 10006, rule.Error())
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 10007, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10008, pkgerrors.ErrOptimisticLock.Error())
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, 10009, "record already exists")
	case errors.Is(err, pkgerrors.ErrTransient), errors.Is(err, pkgerrors.ErrForeignKeyNotVisible),
		errors.Is(err, context.DeadlineExceeded):
		response.Unavailable(c)
	default:
		response.InternalError(c)
	}
}
