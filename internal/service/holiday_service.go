package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/CentZek/newesthr-sub000/internal/calendar"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// ── Holiday module errors ──

var (
	ErrHolidayNotFound  = errors.New("holiday not found")
	ErrHolidayExists    = errors.New("date is already a holiday")
	ErrBackupNotFound   = errors.New("holiday backup not found")
	ErrICSUnreadable    = errors.New("calendar file could not be parsed")
	ErrHolidaysMismatch = errors.New("holiday list changed during a destructive operation")
)

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
	icsProductID    = "-//attendance//holidays//EN"
	icsMaxSpanDays  = 31
)

// HolidayService the double-time holiday list. Every write invalidates the
// calendar cache before returning.
type HolidayService interface {
	Add(ctx context.Context, req *dto.CreateHolidayRequest, actorID string) (*dto.HolidayResponse, error)
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]dto.HolidayResponse, error)

	// ImportICS adds every all-day event date of an iCalendar stream
	ImportICS(ctx context.Context, r io.Reader, actorID string) (*dto.HolidayImportResult, error)
	// ImportICSURL fetches a calendar (http, https or webcal) and imports it
	ImportICSURL(ctx context.Context, rawURL, actorID string) (*dto.HolidayImportResult, error)
	ExportICS(ctx context.Context) ([]byte, error)

	// Snapshot the current list as date/name pairs, sorted by date
	Snapshot(ctx context.Context) ([]model.HolidaySnapshot, error)
	// Backup stores a snapshot in holiday_backups
	Backup(ctx context.Context, reason, actorID string) (*model.HolidayBackup, error)
	// Restore replaces the list with a stored backup; latest when id is empty
	Restore(ctx context.Context, backupID string) (*dto.HolidayBackupResponse, error)
	// RestoreSnapshot replaces the list with the given entries
	RestoreSnapshot(ctx context.Context, items []model.HolidaySnapshot) error
	ListBackups(ctx context.Context, limit int) ([]dto.HolidayBackupResponse, error)
}

type holidayService struct {
	repo     *repository.Repository
	calendar *calendar.Calendar
	logger   *zap.Logger
}

// NewHolidayService creates a HolidayService
func NewHolidayService(repo *repository.Repository, cal *calendar.Calendar, logger *zap.Logger) HolidayService {
	return &holidayService{repo: repo, calendar: cal, logger: logger}
}

// ────── CRUD ──────

func (s *holidayService) Add(ctx context.Context, req *dto.CreateHolidayRequest, actorID string) (*dto.HolidayResponse, error) {
	day, err := dto.ParseDate(req.Date)
	if err != nil {
		return nil, pkgerrors.NewValidation("date", err.Error())
	}
	h := &model.Holiday{Date: datatypes.Date(day), Name: strings.TrimSpace(req.Name)}
	h.CreatedBy = strPtr(actorID)
	if err := s.repo.Holiday.Create(ctx, h); err != nil {
		if errors.Is(err, pkgerrors.ErrConflict) {
			return nil, ErrHolidayExists
		}
		s.logger.Error("create holiday failed", zap.Error(err))
		return nil, err
	}
	s.calendar.Invalidate(ctx)

	s.logger.Info("holiday added", zap.String("date", req.Date), zap.String("by", actorID))
	resp := toHolidayResponse(h)
	return &resp, nil
}

func (s *holidayService) Remove(ctx context.Context, id string) error {
	if err := s.repo.Holiday.Delete(ctx, id); err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return ErrHolidayNotFound
		}
		return err
	}
	s.calendar.Invalidate(ctx)
	s.logger.Info("holiday removed", zap.String("holiday_id", id))
	return nil
}

func (s *holidayService) List(ctx context.Context) ([]dto.HolidayResponse, error) {
	hs, err := s.repo.Holiday.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HolidayResponse, 0, len(hs))
	for i := range hs {
		out = append(out, toHolidayResponse(&hs[i]))
	}
	return out, nil
}

// ────── iCalendar ──────

func (s *holidayService) ImportICS(ctx context.Context, r io.Reader, actorID string) (*dto.HolidayImportResult, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, icsMaxFileSize))
	if err != nil {
		return nil, ErrICSUnreadable
	}

	existing, err := s.repo.Holiday.List(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, h := range existing {
		have[time.Time(h.Date).Format(dto.DateLayout)] = true
	}

	result := &dto.HolidayImportResult{}
	for _, evt := range cal.Events() {
		name, days, ok := parseHolidayEvent(evt)
		if !ok {
			continue
		}
		result.Events++
		for _, d := range days {
			key := d.Format(dto.DateLayout)
			if have[key] {
				result.Skipped++
				continue
			}
			h := &model.Holiday{Date: datatypes.Date(d), Name: name}
			h.CreatedBy = strPtr(actorID)
			if err := s.repo.Holiday.Create(ctx, h); err != nil {
				if errors.Is(err, pkgerrors.ErrConflict) {
					result.Skipped++
					continue
				}
				s.calendar.Invalidate(ctx)
				return result, err
			}
			have[key] = true
			result.Added++
		}
	}
	if result.Added > 0 {
		s.calendar.Invalidate(ctx)
	}

	s.logger.Info("holidays imported from ics",
		zap.Int("events", result.Events),
		zap.Int("added", result.Added),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *holidayService) ImportICSURL(ctx context.Context, rawURL, actorID string) (*dto.HolidayImportResult, error) {
	body, err := fetchICS(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return s.ImportICS(ctx, body, actorID)
}

// fetchICS GET with a size cap; webcal:// is fetched over https
func fetchICS(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}
	if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		return nil, pkgerrors.NewValidation("url", "must be http, https or webcal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, pkgerrors.NewValidation("url", err.Error())
	}
	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ics: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch ics: HTTP %d", resp.StatusCode)
	}
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// parseHolidayEvent dates covered by a VEVENT. DTEND of an all-day event is
// exclusive. Events spanning more than a month are ignored.
func parseHolidayEvent(evt *ics.VEvent) (string, []time.Time, bool) {
	start, ok := icsDate(evt.GetProperty(ics.ComponentPropertyDtStart))
	if !ok {
		return "", nil, false
	}
	end := start.AddDate(0, 0, 1)
	if e, ok := icsDate(evt.GetProperty(ics.ComponentPropertyDtEnd)); ok && e.After(start) {
		end = e
	}
	if end.Sub(start) > icsMaxSpanDays*24*time.Hour {
		return "", nil, false
	}

	name := ""
	if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil {
		name = strings.TrimSpace(p.Value)
	}
	if len(name) > 100 {
		name = name[:100]
	}

	var days []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return name, days, true
}

// icsDate the calendar date of a DATE or DATE-TIME property value
func icsDate(p *ics.IANAProperty) (time.Time, bool) {
	if p == nil || len(p.Value) < 8 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", p.Value[:8])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *holidayService) ExportICS(ctx context.Context) ([]byte, error) {
	hs, err := s.repo.Holiday.List(ctx)
	if err != nil {
		return nil, err
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	stamp := time.Now().UTC()
	for _, h := range hs {
		day := time.Time(h.Date)
		evt := cal.AddEvent(h.HolidayID + "@attendance")
		evt.SetDtStampTime(stamp)
		evt.SetAllDayStartAt(day)
		evt.SetAllDayEndAt(day.AddDate(0, 0, 1))
		name := h.Name
		if name == "" {
			name = "Holiday"
		}
		evt.SetSummary(name)
	}
	return []byte(cal.Serialize()), nil
}

// ────── Backup / restore ──────

func (s *holidayService) Snapshot(ctx context.Context) ([]model.HolidaySnapshot, error) {
	hs, err := s.repo.Holiday.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]model.HolidaySnapshot, 0, len(hs))
	for _, h := range hs {
		items = append(items, model.HolidaySnapshot{
			Date: time.Time(h.Date).Format(dto.DateLayout),
			Name: h.Name,
		})
	}
	sortSnapshot(items)
	return items, nil
}

func (s *holidayService) Backup(ctx context.Context, reason, actorID string) (*model.HolidayBackup, error) {
	items, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	b := &model.HolidayBackup{
		Reason:    reason,
		Snapshot:  datatypes.JSON(raw),
		ItemCount: len(items),
		CreatedBy: strPtr(actorID),
	}
	if err := s.repo.Holiday.CreateBackup(ctx, b); err != nil {
		s.logger.Error("holiday backup failed", zap.Error(err))
		return nil, err
	}
	s.logger.Info("holiday list backed up",
		zap.String("backup_id", b.BackupID),
		zap.String("reason", reason),
		zap.Int("items", len(items)),
	)
	return b, nil
}

func (s *holidayService) Restore(ctx context.Context, backupID string) (*dto.HolidayBackupResponse, error) {
	var (
		b   *model.HolidayBackup
		err error
	)
	if backupID == "" {
		b, err = s.repo.Holiday.LatestBackup(ctx)
	} else {
		b, err = s.repo.Holiday.GetBackup(ctx, backupID)
	}
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, ErrBackupNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := decodeSnapshot(b.Snapshot)
	if err != nil {
		return nil, err
	}
	if err := s.RestoreSnapshot(ctx, items); err != nil {
		return nil, err
	}
	resp := toBackupResponse(b)
	return &resp, nil
}

func (s *holidayService) RestoreSnapshot(ctx context.Context, items []model.HolidaySnapshot) error {
	hs := make([]model.Holiday, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		d, err := dto.ParseDate(it.Date)
		if err != nil {
			return pkgerrors.NewValidation("date", fmt.Sprintf("%q is not YYYY-MM-DD", it.Date))
		}
		if seen[it.Date] {
			continue
		}
		seen[it.Date] = true
		hs = append(hs, model.Holiday{Date: datatypes.Date(d), Name: it.Name})
	}
	err := s.repo.Holiday.ReplaceAll(ctx, hs)
	s.calendar.Invalidate(ctx)
	if err != nil {
		s.logger.Error("restore holidays failed", zap.Error(err))
		return err
	}
	s.logger.Info("holiday list restored", zap.Int("items", len(hs)))
	return nil
}

func (s *holidayService) ListBackups(ctx context.Context, limit int) ([]dto.HolidayBackupResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	bs, err := s.repo.Holiday.ListBackups(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HolidayBackupResponse, 0, len(bs))
	for i := range bs {
		out = append(out, toBackupResponse(&bs[i]))
	}
	return out, nil
}

// ── helpers ──

func decodeSnapshot(raw datatypes.JSON) ([]model.HolidaySnapshot, error) {
	var items []model.HolidaySnapshot
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode holiday backup: %w", err)
	}
	return items, nil
}

func sortSnapshot(items []model.HolidaySnapshot) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return items[i].Name < items[j].Name
	})
}

// sameSnapshot both lists hold the same date/name pairs
func sameSnapshot(a, b []model.HolidaySnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func toHolidayResponse(h *model.Holiday) dto.HolidayResponse {
	return dto.HolidayResponse{
		ID:   h.HolidayID,
		Date: time.Time(h.Date).Format(dto.DateLayout),
		Name: h.Name,
	}
}

func toBackupResponse(b *model.HolidayBackup) dto.HolidayBackupResponse {
	return dto.HolidayBackupResponse{
		ID:        b.BackupID,
		Reason:    b.Reason,
		ItemCount: b.ItemCount,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}
