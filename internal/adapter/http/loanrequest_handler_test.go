package http

import (
	"bytes"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mutuelle-backend/internal/adapter/repository/mysql"
	"mutuelle-backend/internal/domain/member"
	"mutuelle-backend/internal/testutil/membermock"
	"mutuelle-backend/internal/testutil/notifymock"
	"mutuelle-backend/internal/testutil/testdb"
	loanUsecase "mutuelle-backend/internal/usecase/loan"
	ucRequest "mutuelle-backend/internal/usecase/loanrequest"
	ucRepayment "mutuelle-backend/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// -------- helpers --------

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

var (
	memberHex    = strings.Repeat("1", 32)
	presidentHex = strings.Repeat("2", 32)
	secretaryHex = strings.Repeat("3", 32)
	treasurerHex = strings.Repeat("4", 32)
	adminHex     = strings.Repeat("5", 32)
)

func withActor(req *stdhttp.Request, memberID string, role member.Role) {
	req.Header.Set("Ax-Member-Id", memberID)
	req.Header.Set("Ax-Member-Role", string(role))
}

type handlerEnv struct {
	e          *echo.Echo
	requests   *LoanRequestHandler
	loans      *LoanHandler
	repayments *RepaymentHandler
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gdb := testdb.Open(t)
	repos := testdb.Repos(gdb)
	tx := mysql.NewGormUoW(gdb)
	members := membermock.Seed(
		&member.Member{MemberID: memberHex, Role: member.RoleMember, Active: true, RegularContributor: true},
		&member.Member{MemberID: presidentHex, Role: member.RolePresident, Active: true},
		&member.Member{MemberID: secretaryHex, Role: member.RoleSecretary, Active: true},
		&member.Member{MemberID: treasurerHex, Role: member.RoleTreasurer, Active: true},
		&member.Member{MemberID: adminHex, Role: member.RoleAdmin, Active: true},
	)
	clock := func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) }
	notifier := notifymock.New()

	reqUC := ucRequest.NewUsecase(repos.Requests, members, tx,
		loanUsecase.NewMaterializer().WithClock(clock), notifier, decimal.NewFromFloat(5.0)).
		WithClock(clock)
	return &handlerEnv{
		e:          newEchoWithValidator(),
		requests:   NewLoanRequestHandler(reqUC),
		loans:      NewLoanHandler(loanUsecase.NewUsecase(repos.Loans)),
		repayments: NewRepaymentHandler(ucRepayment.NewUsecase(tx, repos, notifier).WithClock(clock)),
	}
}

// createRequest drives the Create handler and returns the decoded DTO.
func (env *handlerEnv) createRequest(t *testing.T) ucRequest.RequestDTO {
	t.Helper()
	body := map[string]any{
		"amount":          120000,
		"duration_months": 3,
		"reason":          "equipment purchase",
		"accept_terms":    true,
	}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loan-requests", mustJSON(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	withActor(req, memberHex, member.RoleMember)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	if err := env.requests.Create(c); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	var dto ucRequest.RequestDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	return dto
}

func (env *handlerEnv) approve(t *testing.T, requestID, actorID string, role member.Role) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]any{"role": string(role), "comment": "ok"}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loan-requests/"+requestID+"/approve", mustJSON(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	withActor(req, actorID, role)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("request_id")
	c.SetParamValues(requestID)
	if err := env.requests.Approve(c); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	return rec
}

// -------- tests --------

func TestCreateLoanRequest_Success(t *testing.T) {
	env := newHandlerEnv(t)
	dto := env.createRequest(t)

	if !reHex32.MatchString(dto.RequestID) {
		t.Fatalf("request_id not hex32: %s", dto.RequestID)
	}
	if dto.MemberID != memberHex || dto.Status != "PENDING" {
		t.Fatalf("unexpected DTO: %+v", dto)
	}
	// Association default rate applies when the body omits one.
	if !dto.InterestRate.Equal(decimal.NewFromFloat(5.0)) {
		t.Fatalf("interest_rate = %s, want 5", dto.InterestRate)
	}
}

func TestCreateLoanRequest_MissingActorHeaders(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest(stdhttp.MethodPost, "/loan-requests", mustJSON(map[string]any{
		"amount": 1000, "duration_months": 2, "reason": "x", "accept_terms": true,
	}))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	if err := env.requests.Create(c); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateLoanRequest_ValidationFailure(t *testing.T) {
	env := newHandlerEnv(t)

	// Three decimal places and no reason.
	req := httptest.NewRequest(stdhttp.MethodPost, "/loan-requests", mustJSON(map[string]any{
		"amount": 1000.123, "duration_months": 2, "accept_terms": true,
	}))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	withActor(req, memberHex, member.RoleMember)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	if err := env.requests.Create(c); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body=%s", rec.Code, rec.Body.String())
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	fields := map[string]bool{}
	for _, d := range er.Details {
		fields[d.Field] = true
	}
	if !fields["Amount"] || !fields["Reason"] {
		t.Fatalf("expected Amount and Reason details, got %+v", er.Details)
	}
}

func TestCreateLoanRequest_TermsNotAccepted(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest(stdhttp.MethodPost, "/loan-requests", mustJSON(map[string]any{
		"amount": 1000, "duration_months": 2, "reason": "x", "accept_terms": false,
	}))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	withActor(req, memberHex, member.RoleMember)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	if err := env.requests.Create(c); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body=%s", rec.Code, rec.Body.String())
	}
}

func TestApproveRequest_FullFlow(t *testing.T) {
	env := newHandlerEnv(t)
	dto := env.createRequest(t)

	rec := env.approve(t, dto.RequestID, presidentHex, member.RolePresident)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("president approve: status %d; body=%s", rec.Code, rec.Body.String())
	}
	var after ucRequest.RequestDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if after.Status != "IN_REVIEW" {
		t.Fatalf("status after first approval = %s, want IN_REVIEW", after.Status)
	}

	env.approve(t, dto.RequestID, secretaryHex, member.RoleSecretary)
	rec = env.approve(t, dto.RequestID, treasurerHex, member.RoleTreasurer)
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if after.Status != "APPROVED" || !after.LoanCreated {
		t.Fatalf("final state: %+v", after)
	}
}

func TestApproveRequest_RoleMismatchForbidden(t *testing.T) {
	env := newHandlerEnv(t)
	dto := env.createRequest(t)

	// A secretary cannot stamp the president's gate.
	body := map[string]any{"role": "PRESIDENT"}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loan-requests/"+dto.RequestID+"/approve", mustJSON(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	withActor(req, secretaryHex, member.RoleSecretary)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("request_id")
	c.SetParamValues(dto.RequestID)

	if err := env.requests.Approve(c); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("status = %d, want 403; body=%s", rec.Code, rec.Body.String())
	}
}

func TestApproveRequest_InvalidRoleValue(t *testing.T) {
	env := newHandlerEnv(t)
	dto := env.createRequest(t)

	body := map[string]any{"role": "JANITOR"}
	req := httptest.NewRequest(stdhttp.MethodPost, "/loan-requests/"+dto.RequestID+"/approve", mustJSON(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	withActor(req, presidentHex, member.RolePresident)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("request_id")
	c.SetParamValues(dto.RequestID)

	if err := env.requests.Approve(c); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body=%s", rec.Code, rec.Body.String())
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if !hasFieldDetail(er.Details, "Role", "PRESIDENT, SECRETARY or TREASURER") {
		t.Fatalf("expected approver message, got %+v", er.Details)
	}
}

func TestGetRequest_NotFound(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/loan-requests/"+strings.Repeat("f", 32), nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("request_id")
	c.SetParamValues(strings.Repeat("f", 32))

	if err := env.requests.Get(c); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPendingForRole_BadRoleParam(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/loan-requests/pending/JANITOR", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("role")
	c.SetParamValues("JANITOR")

	if err := env.requests.PendingForRole(c); err != nil {
		t.Fatalf("PendingForRole error: %v", err)
	}
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProgress_ShowsApprovalGates(t *testing.T) {
	env := newHandlerEnv(t)
	dto := env.createRequest(t)
	env.approve(t, dto.RequestID, treasurerHex, member.RoleTreasurer)

	req := httptest.NewRequest(stdhttp.MethodGet, "/loan-requests/"+dto.RequestID+"/progress", nil)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.SetParamNames("request_id")
	c.SetParamValues(dto.RequestID)

	if err := env.requests.Progress(c); err != nil {
		t.Fatalf("Progress error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var prog ucRequest.ProgressDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &prog); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if !prog.Treasurer.Approved || prog.President.Approved || prog.FullyApproved {
		t.Fatalf("unexpected progress: %+v", prog)
	}
}

// Local helper for field-error assertions (keeps this file self-contained)
func hasFieldDetail(details []FieldError, field, contains string) bool {
	for _, d := range details {
		if d.Field == field && strings.Contains(d.Message, contains) {
			return true
		}
	}
	return false
}
