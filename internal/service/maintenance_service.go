package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	"github.com/CentZek/newesthr-sub000/pkg/batch"
)

// Backup reasons recorded on holiday_backups
const (
	BackupReasonDelete = "before-delete-records"
	BackupReasonReset  = "before-reset"
)

// MaintenanceService destructive bulk operations. The holiday list is
// backed up before anything is deleted.
type MaintenanceService interface {
	// DeleteRecords removes the records matching filter in chunks. With
	// preserveApproved, approved records are never removed.
	DeleteRecords(ctx context.Context, filter model.RecordFilter, preserveApproved bool, actorID string) (*dto.MaintenanceResult, error)
	// ResetAll removes every non-approved record matching filter and checks
	// that the holiday list came through unchanged, restoring it otherwise.
	ResetAll(ctx context.Context, filter model.RecordFilter, actorID string) (*dto.MaintenanceResult, error)
}

type maintenanceService struct {
	repo     *repository.Repository
	holidays HolidayService
	settings Settings
	logger   *zap.Logger
}

// NewMaintenanceService creates a MaintenanceService
func NewMaintenanceService(repo *repository.Repository, holidays HolidayService, settings Settings, logger *zap.Logger) MaintenanceService {
	return &maintenanceService{repo: repo, holidays: holidays, settings: settings, logger: logger}
}

func (s *maintenanceService) DeleteRecords(ctx context.Context, filter model.RecordFilter, preserveApproved bool, actorID string) (*dto.MaintenanceResult, error) {
	backup, err := s.holidays.Backup(ctx, BackupReasonDelete, actorID)
	if err != nil {
		return nil, err
	}
	result, err := s.deleteChunked(ctx, filter, preserveApproved)
	if err != nil {
		return nil, err
	}
	result.HolidayBackupID = backup.BackupID

	s.logger.Info("daily records deleted",
		zap.Int("matched", result.Matched),
		zap.Int("deleted", result.Deleted),
		zap.Bool("preserve_approved", preserveApproved),
		zap.Int("failed_chunks", len(result.Batch.Failed)),
		zap.String("by", actorID),
	)
	return result, nil
}

func (s *maintenanceService) ResetAll(ctx context.Context, filter model.RecordFilter, actorID string) (*dto.MaintenanceResult, error) {
	before, err := s.holidays.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	backup, err := s.holidays.Backup(ctx, BackupReasonReset, actorID)
	if err != nil {
		return nil, err
	}

	result, err := s.deleteChunked(ctx, filter, true)
	if err != nil {
		return nil, err
	}
	result.HolidayBackupID = backup.BackupID

	after, err := s.holidays.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	result.HolidaysVerified = sameSnapshot(before, after)
	if !result.HolidaysVerified {
		s.logger.Error("holiday list changed during reset, restoring backup",
			zap.String("backup_id", backup.BackupID),
			zap.Int("before", len(before)),
			zap.Int("after", len(after)),
		)
		if err := s.holidays.RestoreSnapshot(ctx, before); err != nil {
			return result, ErrHolidaysMismatch
		}
		restored, err := s.holidays.Snapshot(ctx)
		if err != nil {
			return result, err
		}
		result.HolidaysVerified = sameSnapshot(before, restored)
	}

	s.logger.Info("reset finished",
		zap.Int("deleted", result.Deleted),
		zap.Int64("approved_kept", result.ApprovedKept),
		zap.Bool("holidays_verified", result.HolidaysVerified),
		zap.String("by", actorID),
	)
	return result, nil
}

func (s *maintenanceService) deleteChunked(ctx context.Context, filter model.RecordFilter, preserveApproved bool) (*dto.MaintenanceResult, error) {
	if preserveApproved {
		notApproved := false
		filter.Approved = &notApproved
	}
	var ids []string
	err := storeCall(ctx, s.settings, s.logger, "list daily record ids", func(ctx context.Context) error {
		var err error
		ids, err = s.repo.DailyRecord.ListIDs(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &dto.MaintenanceResult{Matched: len(ids)}
	result.Batch = batch.Run(ctx, ids, s.settings.Batch, func(ctx context.Context, chunk []string) (int, error) {
		var n int64
		err := storeCall(ctx, s.settings, s.logger, "delete daily records", func(ctx context.Context) error {
			var err error
			n, err = s.repo.DailyRecord.DeleteByIDs(ctx, chunk, preserveApproved)
			return err
		})
		return int(n), err
	})
	result.Deleted = result.Batch.Succeeded

	kept, err := s.repo.DailyRecord.CountApproved(ctx)
	if err != nil {
		s.logger.Warn("count approved records failed", zap.Error(err))
	}
	result.ApprovedKept = kept
	return result, nil
}
