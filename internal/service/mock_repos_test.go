package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	"github.com/CentZek/newesthr-sub000/pkg/batch"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
	"github.com/CentZek/newesthr-sub000/pkg/retry"
)

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees map[string]*model.Employee
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) Create(_ context.Context, emp *model.Employee) error {
	for _, e := range m.employees {
		if e.EmployeeNo == emp.EmployeeNo {
			return &pkgerrors.ConflictError{Constraint: "uk_employees_no"}
		}
	}
	if emp.EmployeeID == "" {
		emp.EmployeeID = "emp-" + emp.EmployeeNo
	}
	cp := *emp
	m.employees[emp.EmployeeID] = &cp
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if e, ok := m.employees[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, pkgerrors.NewNotFound("employee", id)
}

func (m *mockEmployeeRepo) GetByNo(_ context.Context, no string) (*model.Employee, error) {
	for _, e := range m.employees {
		if e.EmployeeNo == no {
			cp := *e
			return &cp, nil
		}
	}
	return nil, pkgerrors.NewNotFound("employee", no)
}

func (m *mockEmployeeRepo) List(_ context.Context, offset, limit int) ([]model.Employee, int64, error) {
	all := make([]model.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EmployeeNo < all[j].EmployeeNo })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Employee{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockEmployeeRepo) ListByIDs(_ context.Context, ids []string) ([]model.Employee, error) {
	var out []model.Employee
	for _, id := range ids {
		if e, ok := m.employees[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, emp *model.Employee) error {
	if _, ok := m.employees[emp.EmployeeID]; !ok {
		return pkgerrors.NewNotFound("employee", emp.EmployeeID)
	}
	cp := *emp
	m.employees[emp.EmployeeID] = &cp
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return &pkgerrors.ConflictError{Constraint: "uk_users_username"}
		}
	}
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pkgerrors.NewNotFound("user", id)
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pkgerrors.NewNotFound("user", username)
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

// ── Mock PunchRepository ──

type mockPunchRepo struct {
	punches []model.Punch
	seq     int
}

func newMockPunchRepo() *mockPunchRepo {
	return &mockPunchRepo{}
}

func punchKey(p *model.Punch) string {
	return fmt.Sprintf("%s|%d|%s", p.EmployeeID, p.PunchedAt.UnixNano(), p.Direction)
}

func (m *mockPunchRepo) InsertIgnore(_ context.Context, punches []model.Punch) (int64, error) {
	have := make(map[string]bool, len(m.punches))
	for i := range m.punches {
		have[punchKey(&m.punches[i])] = true
	}
	var n int64
	for i := range punches {
		k := punchKey(&punches[i])
		if have[k] {
			continue
		}
		m.seq++
		punches[i].PunchID = fmt.Sprintf("punch-%d", m.seq)
		m.punches = append(m.punches, punches[i])
		have[k] = true
		n++
	}
	return n, nil
}

func (m *mockPunchRepo) GetByID(_ context.Context, id string) (*model.Punch, error) {
	for i := range m.punches {
		if m.punches[i].PunchID == id {
			cp := m.punches[i]
			return &cp, nil
		}
	}
	return nil, pkgerrors.NewNotFound("punch", id)
}

func (m *mockPunchRepo) ListBetween(_ context.Context, employeeID string, from, to time.Time) ([]model.Punch, error) {
	var out []model.Punch
	for _, p := range m.punches {
		if p.EmployeeID == employeeID && !p.PunchedAt.Before(from) && p.PunchedAt.Before(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PunchedAt.Before(out[j].PunchedAt) })
	return out, nil
}

func (m *mockPunchRepo) EmployeesBetween(_ context.Context, from, to time.Time) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range m.punches {
		if !p.PunchedAt.Before(from) && p.PunchedAt.Before(to) && !seen[p.EmployeeID] {
			seen[p.EmployeeID] = true
			out = append(out, p.EmployeeID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockPunchRepo) SetDirection(_ context.Context, id, direction string) error {
	for i := range m.punches {
		if m.punches[i].PunchID == id {
			m.punches[i].Direction = direction
			m.punches[i].Corrected = true
			return nil
		}
	}
	return pkgerrors.NewNotFound("punch", id)
}

// ── Mock DailyRecordRepository ──

// mockDailyRecordRepo enforces the natural key and the version guard the
// way the database does
type mockDailyRecordRepo struct {
	records map[string]*model.DailyRecord
	seq     int

	// raceOnCreate makes the next Create behave like a concurrent writer won
	// the insert: the row appears, and the caller gets a ConflictError
	raceOnCreate bool
	creates      int
	updates      int
}

func newMockDailyRecordRepo() *mockDailyRecordRepo {
	return &mockDailyRecordRepo{records: make(map[string]*model.DailyRecord)}
}

func (m *mockDailyRecordRepo) FindByKey(_ context.Context, key model.NaturalKey, _ bool) (*model.DailyRecord, error) {
	for _, r := range m.records {
		if r.Key().String() == key.String() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, pkgerrors.NewNotFound("daily_record", key.String())
}

func (m *mockDailyRecordRepo) GetByID(_ context.Context, id string) (*model.DailyRecord, error) {
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, pkgerrors.NewNotFound("daily_record", id)
}

func (m *mockDailyRecordRepo) ListByIDs(_ context.Context, ids []string) ([]model.DailyRecord, error) {
	var out []model.DailyRecord
	for _, id := range ids {
		if r, ok := m.records[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockDailyRecordRepo) insert(rec *model.DailyRecord) {
	m.seq++
	rec.DailyRecordID = fmt.Sprintf("rec-%d", m.seq)
	if rec.Version == 0 {
		rec.Version = 1
	}
	cp := *rec
	m.records[rec.DailyRecordID] = &cp
}

func (m *mockDailyRecordRepo) Create(_ context.Context, rec *model.DailyRecord) error {
	for _, r := range m.records {
		if r.Key().String() == rec.Key().String() {
			return &pkgerrors.ConflictError{Constraint: "uk_daily_records_natural_key"}
		}
	}
	if m.raceOnCreate {
		m.raceOnCreate = false
		winner := *rec
		m.insert(&winner)
		return &pkgerrors.ConflictError{Constraint: "uk_daily_records_natural_key"}
	}
	m.creates++
	m.insert(rec)
	return nil
}

func (m *mockDailyRecordRepo) Update(_ context.Context, rec *model.DailyRecord) error {
	stored, ok := m.records[rec.DailyRecordID]
	if !ok || stored.Version != rec.Version {
		return pkgerrors.ErrOptimisticLock
	}
	rec.Version++
	cp := *rec
	m.records[rec.DailyRecordID] = &cp
	m.updates++
	return nil
}

func (m *mockDailyRecordRepo) matching(f model.RecordFilter) []model.DailyRecord {
	emps := make(map[string]bool, len(f.EmployeeIDs))
	for _, id := range f.EmployeeIDs {
		emps[id] = true
	}
	var out []model.DailyRecord
	for _, r := range m.records {
		day := r.Day().Format("2006-01-02")
		if f.From != nil && day < f.From.Format("2006-01-02") {
			continue
		}
		if f.To != nil && day > f.To.Format("2006-01-02") {
			continue
		}
		if len(emps) > 0 && !emps[r.EmployeeID] {
			continue
		}
		if f.Approved != nil && r.Approved != *f.Approved {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		if !a.Day().Equal(b.Day()) {
			return a.Day().Before(b.Day())
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.Source < b.Source
	})
	return out
}

func (m *mockDailyRecordRepo) List(_ context.Context, filter model.RecordFilter) ([]model.DailyRecord, error) {
	return m.matching(filter), nil
}

func (m *mockDailyRecordRepo) ListIDs(_ context.Context, filter model.RecordFilter) ([]string, error) {
	var ids []string
	for _, r := range m.matching(filter) {
		ids = append(ids, r.DailyRecordID)
	}
	return ids, nil
}

func (m *mockDailyRecordRepo) DeleteByIDs(_ context.Context, ids []string, preserveApproved bool) (int64, error) {
	var n int64
	for _, id := range ids {
		r, ok := m.records[id]
		if !ok || (preserveApproved && r.Approved) {
			continue
		}
		delete(m.records, id)
		n++
	}
	return n, nil
}

func (m *mockDailyRecordRepo) CountApproved(_ context.Context) (int64, error) {
	var n int64
	for _, r := range m.records {
		if r.Approved {
			n++
		}
	}
	return n, nil
}

// byDay the stored records of one employee and day
func (m *mockDailyRecordRepo) byDay(employeeID, day string) []model.DailyRecord {
	var out []model.DailyRecord
	for _, r := range m.records {
		if r.EmployeeID == employeeID && r.Day().Format("2006-01-02") == day {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot+out[i].Source < out[j].Slot+out[j].Source })
	return out
}

// ── Mock ShiftSubmissionRepository ──

type mockShiftSubmissionRepo struct {
	subs map[string]*model.ShiftSubmission
	seq  int

	// reviewedElsewhere makes the next Transition lose to another reviewer
	// who rejected the submission first
	reviewedElsewhere bool
}

func newMockShiftSubmissionRepo() *mockShiftSubmissionRepo {
	return &mockShiftSubmissionRepo{subs: make(map[string]*model.ShiftSubmission)}
}

func (m *mockShiftSubmissionRepo) Create(_ context.Context, sub *model.ShiftSubmission) error {
	m.seq++
	sub.SubmissionID = fmt.Sprintf("sub-%d", m.seq)
	cp := *sub
	m.subs[sub.SubmissionID] = &cp
	return nil
}

func (m *mockShiftSubmissionRepo) GetByID(_ context.Context, id string) (*model.ShiftSubmission, error) {
	if s, ok := m.subs[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, pkgerrors.NewNotFound("shift_submission", id)
}

func (m *mockShiftSubmissionRepo) List(_ context.Context, status, employeeID string, offset, limit int) ([]model.ShiftSubmission, int64, error) {
	var all []model.ShiftSubmission
	for _, s := range m.subs {
		if status != "" && s.Status != status {
			continue
		}
		if employeeID != "" && s.EmployeeID != employeeID {
			continue
		}
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SubmissionID < all[j].SubmissionID })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.ShiftSubmission{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockShiftSubmissionRepo) Transition(_ context.Context, sub *model.ShiftSubmission, from string) error {
	stored, ok := m.subs[sub.SubmissionID]
	if ok && m.reviewedElsewhere {
		m.reviewedElsewhere = false
		stored.Status = model.SubmissionRejected
	}
	if !ok || stored.Status != from {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *sub
	m.subs[sub.SubmissionID] = &cp
	return nil
}

// ── Mock HolidayRepository ──

type mockHolidayRepo struct {
	holidays map[string]*model.Holiday
	backups  []model.HolidayBackup
	seq      int

	// dropAtList simulates a store defect: the Nth List call finds the
	// latest holiday gone
	dropAtList int
	listCalls  int
}

func newMockHolidayRepo() *mockHolidayRepo {
	return &mockHolidayRepo{holidays: make(map[string]*model.Holiday)}
}

func (m *mockHolidayRepo) Create(_ context.Context, h *model.Holiday) error {
	day := time.Time(h.Date).Format("2006-01-02")
	for _, x := range m.holidays {
		if time.Time(x.Date).Format("2006-01-02") == day {
			return &pkgerrors.ConflictError{Constraint: "uk_holidays_date"}
		}
	}
	m.seq++
	h.HolidayID = fmt.Sprintf("hol-%d", m.seq)
	cp := *h
	m.holidays[h.HolidayID] = &cp
	return nil
}

func (m *mockHolidayRepo) GetByID(_ context.Context, id string) (*model.Holiday, error) {
	if h, ok := m.holidays[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, pkgerrors.NewNotFound("holiday", id)
}

func (m *mockHolidayRepo) List(_ context.Context) ([]model.Holiday, error) {
	out := make([]model.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return time.Time(out[i].Date).Before(time.Time(out[j].Date)) })
	m.listCalls++
	if m.listCalls == m.dropAtList && len(out) > 0 {
		delete(m.holidays, out[len(out)-1].HolidayID)
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockHolidayRepo) ListHolidayDates(_ context.Context) ([]time.Time, error) {
	out := make([]time.Time, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, time.Time(h.Date))
	}
	return out, nil
}

func (m *mockHolidayRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.holidays[id]; !ok {
		return pkgerrors.NewNotFound("holiday", id)
	}
	delete(m.holidays, id)
	return nil
}

func (m *mockHolidayRepo) ReplaceAll(ctx context.Context, holidays []model.Holiday) error {
	m.holidays = make(map[string]*model.Holiday)
	for i := range holidays {
		if err := m.Create(ctx, &holidays[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockHolidayRepo) CreateBackup(_ context.Context, b *model.HolidayBackup) error {
	m.seq++
	b.BackupID = fmt.Sprintf("backup-%d", m.seq)
	b.CreatedAt = time.Now()
	m.backups = append(m.backups, *b)
	return nil
}

func (m *mockHolidayRepo) GetBackup(_ context.Context, id string) (*model.HolidayBackup, error) {
	for i := range m.backups {
		if m.backups[i].BackupID == id {
			cp := m.backups[i]
			return &cp, nil
		}
	}
	return nil, pkgerrors.NewNotFound("holiday_backup", id)
}

func (m *mockHolidayRepo) LatestBackup(_ context.Context) (*model.HolidayBackup, error) {
	if len(m.backups) == 0 {
		return nil, pkgerrors.NewNotFound("holiday_backup", "")
	}
	cp := m.backups[len(m.backups)-1]
	return &cp, nil
}

func (m *mockHolidayRepo) ListBackups(_ context.Context, limit int) ([]model.HolidayBackup, error) {
	var out []model.HolidayBackup
	for i := len(m.backups) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.backups[i])
	}
	return out, nil
}

// ── aggregate ──

type mockRepos struct {
	employees   *mockEmployeeRepo
	users       *mockUserRepo
	punches     *mockPunchRepo
	records     *mockDailyRecordRepo
	submissions *mockShiftSubmissionRepo
	holidays    *mockHolidayRepo
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		employees:   newMockEmployeeRepo(),
		users:       newMockUserRepo(),
		punches:     newMockPunchRepo(),
		records:     newMockDailyRecordRepo(),
		submissions: newMockShiftSubmissionRepo(),
		holidays:    newMockHolidayRepo(),
	}
}

func (m *mockRepos) repository() *repository.Repository {
	return &repository.Repository{
		Employee:        m.employees,
		User:            m.users,
		Punch:           m.punches,
		DailyRecord:     m.records,
		ShiftSubmission: m.submissions,
		Holiday:         m.holidays,
	}
}

// seedEmployee adds an employee with the given number and default shift
func (m *mockRepos) seedEmployee(no, defaultShift string) string {
	id := "emp-" + strings.ToLower(no)
	m.employees.employees[id] = &model.Employee{
		EmployeeID:   id,
		EmployeeNo:   no,
		Name:         "Employee " + no,
		DefaultShift: defaultShift,
		IsActive:     true,
	}
	return id
}

// seedPunch stores one punch and returns its id
func (m *mockRepos) seedPunch(employeeID string, at time.Time, direction, source string) string {
	ps := []model.Punch{{EmployeeID: employeeID, PunchedAt: at.UTC(), Direction: direction, Source: source}}
	m.punches.InsertIgnore(context.Background(), ps)
	return ps[0].PunchID
}

// seedRecord stores rec as is and returns its id
func (m *mockRepos) seedRecord(rec model.DailyRecord) string {
	m.records.insert(&rec)
	return rec.DailyRecordID
}

func (m *mockRepos) seedHoliday(day, name string) {
	m.holidays.Create(context.Background(), &model.Holiday{Date: datatypes.Date(date(day)), Name: name})
}

// ── fixtures ──

// testSettings UTC with millisecond retries and small chunks
func testSettings() Settings {
	s := DefaultSettings()
	s.Retry = retry.Policy{Attempts: 3, Initial: time.Millisecond, Cap: time.Millisecond}
	s.Batch = batch.Options{Size: 2}
	return s
}

// date parses YYYY-MM-DD as UTC midnight
func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// clock parses "YYYY-MM-DD HH:MM" in UTC
func clock(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}
