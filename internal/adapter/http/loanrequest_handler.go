package http

import (
	"net/http"

	domainRequest "mutuelle-backend/internal/domain/loanrequest"
	"mutuelle-backend/internal/domain/member"
	"mutuelle-backend/internal/usecase/loanrequest"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanRequestHandler struct{ uc *loanrequest.Usecase }

func NewLoanRequestHandler(uc *loanrequest.Usecase) *LoanRequestHandler {
	return &LoanRequestHandler{uc: uc}
}

type createLoanRequestReq struct {
	Amount       float64  `json:"amount"          validate:"required,gt=0,dec2"`
	Duration     int      `json:"duration_months" validate:"required,gt=0"`
	Reason       string   `json:"reason"          validate:"required"`
	AcceptTerms  bool     `json:"accept_terms"`
	InterestRate *float64 `json:"interest_rate,omitempty" validate:"omitempty,gt=0,dec2"`
}

func (h *LoanRequestHandler) Create(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return badActor(c)
	}
	var req createLoanRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	in := loanrequest.CreateInput{
		MemberID:    actor.MemberID,
		Amount:      decimal.NewFromFloat(req.Amount),
		Duration:    req.Duration,
		Reason:      req.Reason,
		AcceptTerms: req.AcceptTerms,
	}
	if req.InterestRate != nil {
		r := decimal.NewFromFloat(*req.InterestRate)
		in.InterestRate = &r
	}
	dto, err := h.uc.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type updateLoanRequestReq struct {
	Amount   float64 `json:"amount"          validate:"required,gt=0,dec2"`
	Duration int     `json:"duration_months" validate:"required,gt=0"`
	Reason   string  `json:"reason"          validate:"required"`
}

func (h *LoanRequestHandler) Update(c echo.Context) error {
	var req updateLoanRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Update(c.Request().Context(), c.Param("request_id"), loanrequest.UpdateInput{
		Amount:   decimal.NewFromFloat(req.Amount),
		Duration: req.Duration,
		Reason:   req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanRequestHandler) Delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), c.Param("request_id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type approveReq struct {
	Role    string `json:"role"    validate:"required,approver"`
	Comment string `json:"comment"`
}

func (h *LoanRequestHandler) Approve(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return badActor(c)
	}
	var req approveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Approve(c.Request().Context(), actor, c.Param("request_id"), member.Role(req.Role), req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type rejectReq struct {
	Role   string `json:"role"   validate:"required,approver"`
	Reason string `json:"reason" validate:"required"`
}

func (h *LoanRequestHandler) Reject(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return badActor(c)
	}
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Reject(c.Request().Context(), actor, c.Param("request_id"), req.Reason, member.Role(req.Role))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type resetApprovalReq struct {
	Role string `json:"role" validate:"required,approver"`
}

func (h *LoanRequestHandler) ResetApproval(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return badActor(c)
	}
	var req resetApprovalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.ResetApproval(c.Request().Context(), actor, c.Param("request_id"), member.Role(req.Role))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanRequestHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("request_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanRequestHandler) Progress(c echo.Context) error {
	dto, err := h.uc.Progress(c.Request().Context(), c.Param("request_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanRequestHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	if s := c.QueryParam("status"); s != "" {
		dtos, err := h.uc.ListByStatus(ctx, domainRequest.Status(s))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, dtos)
	}
	dtos, err := h.uc.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *LoanRequestHandler) ListByMember(c echo.Context) error {
	dtos, err := h.uc.ListByMember(c.Request().Context(), c.Param("member_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *LoanRequestHandler) PendingForRole(c echo.Context) error {
	role, ok := loanrequest.RoleParam(c.Param("role"))
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "role must be PRESIDENT, SECRETARY or TREASURER"})
	}
	dtos, err := h.uc.PendingForRole(c.Request().Context(), role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}
