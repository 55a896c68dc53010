package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CentZek/newesthr-sub000/internal/api/middleware"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/service"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
	"github.com/CentZek/newesthr-sub000/pkg/jwt"
	"github.com/CentZek/newesthr-sub000/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := dto.RegisterValidators(); err != nil {
		panic(err)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult  *dto.TokenResponse
	loginErr     error
	logoutClaims *jwt.Claims
	meResult     *dto.UserResponse
	meErr        error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims) error {
	m.logoutClaims = claims
	return nil
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) CreateUser(_ context.Context, req *dto.CreateUserRequest, _ string) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: "user-1", Username: req.Username, Role: req.Role}, nil
}

// ── Mock PunchService ──

type mockPunchService struct {
	submitResult *dto.PunchResponse
	submitErr    error
	submitted    *dto.SubmitPunchRequest
}

func (m *mockPunchService) Submit(_ context.Context, req *dto.SubmitPunchRequest) (*dto.PunchResponse, error) {
	m.submitted = req
	return m.submitResult, m.submitErr
}
func (m *mockPunchService) Import(_ context.Context, _ io.Reader) (*dto.ImportResult, error) {
	return &dto.ImportResult{}, nil
}

// ── Mock ShiftSubmissionService ──

type mockSubmissionService struct {
	confirmErr error
	listReq    *dto.ListShiftSubmissionsRequest
}

func (m *mockSubmissionService) Create(_ context.Context, req *dto.CreateShiftSubmissionRequest, _ string) (*dto.ShiftSubmissionResponse, error) {
	return &dto.ShiftSubmissionResponse{ID: "sub-1", EmployeeID: req.EmployeeID, Status: model.SubmissionPending}, nil
}
func (m *mockSubmissionService) List(_ context.Context, req *dto.ListShiftSubmissionsRequest) ([]dto.ShiftSubmissionResponse, int64, error) {
	m.listReq = req
	return []dto.ShiftSubmissionResponse{}, 0, nil
}
func (m *mockSubmissionService) Confirm(_ context.Context, id, _ string) (*dto.ShiftSubmissionResponse, error) {
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	return &dto.ShiftSubmissionResponse{ID: id, Status: model.SubmissionConfirmed}, nil
}
func (m *mockSubmissionService) Reject(_ context.Context, id string, req *dto.RejectShiftSubmissionRequest, _ string) (*dto.ShiftSubmissionResponse, error) {
	return &dto.ShiftSubmissionResponse{ID: id, Status: model.SubmissionRejected, RejectReason: req.Reason}, nil
}

// ── Mock DailyRecordService ──

type mockDailyRecordService struct {
	approveResult *dto.ApprovalResult
	editErr       error
	approvedIDs   []string
}

func (m *mockDailyRecordService) Get(_ context.Context, id string) (*dto.DailyRecordResponse, error) {
	return &dto.DailyRecordResponse{ID: id}, nil
}
func (m *mockDailyRecordService) List(_ context.Context, _ model.RecordFilter) ([]dto.DailyRecordResponse, error) {
	return []dto.DailyRecordResponse{}, nil
}
func (m *mockDailyRecordService) Approve(_ context.Context, ids []string, _ string) (*dto.ApprovalResult, error) {
	m.approvedIDs = ids
	return m.approveResult, nil
}
func (m *mockDailyRecordService) Unapprove(_ context.Context, ids []string, _ string) (*dto.ApprovalResult, error) {
	return &dto.ApprovalResult{Updated: ids}, nil
}
func (m *mockDailyRecordService) ApplyPenalty(_ context.Context, req *dto.PenaltyRequest, _ string) (*dto.DailyRecordResponse, error) {
	return &dto.DailyRecordResponse{ID: req.ID, PenaltyMinutes: *req.Minutes}, nil
}
func (m *mockDailyRecordService) EditTimes(_ context.Context, req *dto.EditTimesRequest, _ string) (*dto.DailyRecordResponse, error) {
	if m.editErr != nil {
		return nil, m.editErr
	}
	return &dto.DailyRecordResponse{ID: req.ID}, nil
}
func (m *mockDailyRecordService) Swap(_ context.Context, req *dto.SwapRequest, _ string) ([]dto.DailyRecordResponse, error) {
	if m.editErr != nil {
		return nil, m.editErr
	}
	return []dto.DailyRecordResponse{{ID: req.ID, EmployeeID: req.EmployeeID}}, nil
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ApprovedHours(_ context.Context, _ model.RecordFilter) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock MaintenanceService ──

type mockMaintenanceService struct {
	preserve *bool
	err      error
}

func (m *mockMaintenanceService) DeleteRecords(_ context.Context, _ model.RecordFilter, preserveApproved bool, _ string) (*dto.MaintenanceResult, error) {
	m.preserve = &preserveApproved
	return &dto.MaintenanceResult{}, m.err
}
func (m *mockMaintenanceService) ResetAll(_ context.Context, _ model.RecordFilter, _ string) (*dto.MaintenanceResult, error) {
	return nil, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

const (
	testEmployeeID = "6f1c2b4e-8a7d-4c3b-9e21-0d5f6a7b8c9d"
	otherEmployee  = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	testRecordID   = "11111111-2222-4333-8444-555555555555"
)

// withAuth stands in for JWTAuth
func withAuth(role, employeeID string, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, "test-user-id")
		c.Set(middleware.CtxRole, role)
		c.Set(middleware.CtxEmployeeID, employeeID)
		c.Set(middleware.CtxClaims, &jwt.Claims{UserID: "test-user-id", Role: role})
		next(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, path, route string, body io.Reader, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "tok", ExpiresIn: 3600}})

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{Username: "hr", Password: "password123"}), h.Login)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	w := serve("POST", "/auth/login", "/auth/login", bytes.NewReader([]byte("invalid json")), h.Login)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{Username: "hr", Password: "wrong"}), h.Login)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout_PassesClaims(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/logout", "/auth/logout", nil, withAuth(model.RoleHR, "", h.Logout))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutClaims == nil || mock.logoutClaims.UserID != "test-user-id" {
		t.Errorf("claims not forwarded: %+v", mock.logoutClaims)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	w := serve("GET", "/auth/me", "/auth/me", nil, h.Me)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// PunchHandler Tests
// ═══════════════════════════════════════════════════════════

func punchBody(employeeID string) io.Reader {
	return jsonBody(map[string]interface{}{
		"employee_id": employeeID,
		"timestamp":   time.Date(2024, 3, 4, 5, 2, 0, 0, time.UTC),
	})
}

func TestPunchHandler_Submit_Created(t *testing.T) {
	mock := &mockPunchService{submitResult: &dto.PunchResponse{PunchID: "p1", Direction: "check_in"}}
	h := NewPunchHandler(mock, nil)

	w := serve("POST", "/punches", "/punches", punchBody(testEmployeeID), withAuth(model.RoleEmployee, testEmployeeID, h.Submit))

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.submitted == nil || mock.submitted.EmployeeID != testEmployeeID {
		t.Error("request not forwarded to the service")
	}
}

func TestPunchHandler_Submit_DuplicateIsOK(t *testing.T) {
	mock := &mockPunchService{submitResult: &dto.PunchResponse{Duplicate: true}}
	h := NewPunchHandler(mock, nil)

	w := serve("POST", "/punches", "/punches", punchBody(testEmployeeID), withAuth(model.RoleHR, "", h.Submit))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for a duplicate, got %d", w.Code)
	}
}

func TestPunchHandler_Submit_OtherEmployeeForbidden(t *testing.T) {
	mock := &mockPunchService{}
	h := NewPunchHandler(mock, nil)

	w := serve("POST", "/punches", "/punches", punchBody(otherEmployee), withAuth(model.RoleEmployee, testEmployeeID, h.Submit))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if mock.submitted != nil {
		t.Error("service must not be called")
	}
}

func TestPunchHandler_Submit_CustomHint(t *testing.T) {
	h := NewPunchHandler(&mockPunchService{submitErr: service.ErrCustomShiftHint}, nil)

	w := serve("POST", "/punches", "/punches", punchBody(testEmployeeID), withAuth(model.RoleHR, "", h.Submit))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 13003 {
		t.Errorf("expected error code 13003, got %d", resp.Code)
	}
}

func TestPunchHandler_Import_MissingFile(t *testing.T) {
	h := NewPunchHandler(&mockPunchService{}, nil)
	w := serve("POST", "/punches/import", "/punches/import", nil, withAuth(model.RoleHR, "", h.Import))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ShiftSubmissionHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSubmissionHandler_Confirm_AlreadyReviewed(t *testing.T) {
	h := NewShiftSubmissionHandler(&mockSubmissionService{confirmErr: service.ErrSubmissionNotPending})

	w := serve("PUT", "/shift-submissions/sub-1/confirm", "/shift-submissions/:id/confirm", nil, withAuth(model.RoleHR, "", h.Confirm))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestSubmissionHandler_List_EmployeeSeesOwn(t *testing.T) {
	mock := &mockSubmissionService{}
	h := NewShiftSubmissionHandler(mock)

	w := serve("GET", "/shift-submissions?employee_id="+otherEmployee, "/shift-submissions", nil,
		withAuth(model.RoleEmployee, testEmployeeID, h.List))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.listReq.EmployeeID != testEmployeeID {
		t.Errorf("employee filter = %s, want own id", mock.listReq.EmployeeID)
	}
}

func TestSubmissionHandler_Reject_RequiresReason(t *testing.T) {
	h := NewShiftSubmissionHandler(&mockSubmissionService{})
	w := serve("PUT", "/shift-submissions/sub-1/reject", "/shift-submissions/:id/reject", jsonBody(map[string]string{}),
		withAuth(model.RoleHR, "", h.Reject))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// DailyRecordHandler Tests
// ═══════════════════════════════════════════════════════════

func TestDailyRecordHandler_Approve(t *testing.T) {
	mock := &mockDailyRecordService{approveResult: &dto.ApprovalResult{
		Updated:  []string{testRecordID},
		Rejected: []dto.ApprovalRejection{{ID: otherEmployee, Reason: "check-out is missing"}},
	}}
	h := NewDailyRecordHandler(mock)

	w := serve("PUT", "/daily-records/approve", "/daily-records/approve",
		jsonBody(dto.RecordIDsRequest{IDs: []string{testRecordID, otherEmployee}}), withAuth(model.RoleHR, "", h.Approve))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(mock.approvedIDs) != 2 {
		t.Errorf("expected both ids forwarded, got %v", mock.approvedIDs)
	}
}

func TestDailyRecordHandler_Approve_EmptyIDs(t *testing.T) {
	h := NewDailyRecordHandler(&mockDailyRecordService{})
	w := serve("PUT", "/daily-records/approve", "/daily-records/approve",
		jsonBody(dto.RecordIDsRequest{}), withAuth(model.RoleHR, "", h.Approve))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDailyRecordHandler_EditTimes_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"gone", service.ErrRecordNotFound, http.StatusNotFound},
		{"absence", service.ErrRecordIsAbsence, http.StatusUnprocessableEntity},
		{"concurrent", service.ErrRecordConcurrent, http.StatusConflict},
		{"approved", service.ErrRecordApproved, http.StatusConflict},
		{"validation", pkgerrors.NewValidation("check_out", "before check-in"), http.StatusBadRequest},
		{"transient", &pkgerrors.TransientStoreError{Op: "update", Err: errors.New("timeout")}, http.StatusServiceUnavailable},
		{"lock", pkgerrors.ErrOptimisticLock, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewDailyRecordHandler(&mockDailyRecordService{editErr: tc.err})
			w := serve("PUT", "/daily-records/times", "/daily-records/times",
				jsonBody(map[string]string{"id": testRecordID}), withAuth(model.RoleHR, "", h.EditTimes))
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestDailyRecordHandler_Swap_ByEmployeeDay(t *testing.T) {
	h := NewDailyRecordHandler(&mockDailyRecordService{})
	body := jsonBody(dto.SwapRequest{EmployeeID: testRecordID, WorkingDay: "2024-03-04"})
	w := serve("PUT", "/daily-records/swap", "/daily-records/swap", body, withAuth(model.RoleHR, "", h.Swap))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler / MaintenanceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ApprovedHours(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "approved_hours.xlsx"})

	w := serve("GET", "/export/approved-hours?from=2024-03-01&to=2024-03-31", "/export/approved-hours", nil, h.ApprovedHours)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content type = %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename*=UTF-8''approved_hours.xlsx" {
		t.Errorf("content disposition = %s", cd)
	}
}

func TestExportHandler_NoRecords(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoRecords})
	w := serve("GET", "/export/approved-hours", "/export/approved-hours", nil, h.ApprovedHours)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestExportHandler_BadDate(t *testing.T) {
	h := NewExportHandler(&mockExportService{})
	w := serve("GET", "/export/approved-hours?from=03/01/2024", "/export/approved-hours", nil, h.ApprovedHours)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestMaintenanceHandler_DeletePreservesApprovedByDefault(t *testing.T) {
	mock := &mockMaintenanceService{}
	h := NewMaintenanceHandler(mock)

	w := serve("DELETE", "/daily-records", "/daily-records",
		jsonBody(map[string]string{"from": "2024-03-01", "to": "2024-03-31"}), withAuth(model.RoleAdmin, "", h.DeleteRecords))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.preserve == nil || !*mock.preserve {
		t.Error("approved records should be preserved unless asked otherwise")
	}
}

func TestMaintenanceHandler_ResetMismatch(t *testing.T) {
	h := NewMaintenanceHandler(&mockMaintenanceService{err: service.ErrHolidaysMismatch})
	w := serve("POST", "/maintenance/reset", "/maintenance/reset", nil, withAuth(model.RoleAdmin, "", h.Reset))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 18001 {
		t.Errorf("expected error code 18001, got %d", resp.Code)
	}
}
