package http

import (
	"net/http"

	"mutuelle-backend/internal/domain/member"
	repaymentDomain "mutuelle-backend/internal/domain/repayment"
	"mutuelle-backend/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type RepaymentHandler struct{ uc *repayment.Usecase }

func NewRepaymentHandler(uc *repayment.Usecase) *RepaymentHandler {
	return &RepaymentHandler{uc: uc}
}

func (h *RepaymentHandler) GenerateForLoan(c echo.Context) error {
	dtos, err := h.uc.GenerateScheduleForLoan(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dtos)
}

func (h *RepaymentHandler) GenerateForRequest(c echo.Context) error {
	dtos, err := h.uc.GenerateScheduleForRequest(c.Request().Context(), c.Param("request_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dtos)
}

type recordPaymentReq struct {
	AmountPaid           float64 `json:"amount_paid"           validate:"required,gt=0,dec2"`
	PaymentMethod        string  `json:"payment_method"        validate:"required"`
	TransactionReference string  `json:"transaction_reference" validate:"required"`
}

func (h *RepaymentHandler) RecordPayment(c echo.Context) error {
	var req recordPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.RecordPayment(c.Request().Context(), repayment.RecordPaymentInput{
		RepaymentID: c.Param("repayment_id"),
		AmountPaid:  decimal.NewFromFloat(req.AmountPaid),
		Method:      req.PaymentMethod,
		Reference:   req.TransactionReference,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type payInFullReq struct {
	PaymentMethod        string `json:"payment_method"        validate:"required"`
	TransactionReference string `json:"transaction_reference" validate:"required"`
}

func (h *RepaymentHandler) PayInFull(c echo.Context) error {
	var req payInFullReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.PayInFull(c.Request().Context(), c.Param("loan_id"), req.PaymentMethod, req.TransactionReference)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RepaymentHandler) SweepOverdue(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return badActor(c)
	}
	if actor.Role != member.RoleAdmin {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin only"})
	}
	n, err := h.uc.SweepOverdue(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"marked_overdue": n})
}

func (h *RepaymentHandler) ListByLoan(c echo.Context) error {
	dtos, err := h.uc.ListByLoan(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *RepaymentHandler) ListByRequest(c echo.Context) error {
	dtos, err := h.uc.ListByRequest(c.Request().Context(), c.Param("request_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *RepaymentHandler) ListByMember(c echo.Context) error {
	dtos, err := h.uc.ListByMember(c.Request().Context(), c.Param("member_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *RepaymentHandler) ListByStatus(c echo.Context) error {
	status := repaymentDomain.Status(c.QueryParam("status"))
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status must be PENDING, PAID, OVERDUE or CANCELLED"})
	}
	dtos, err := h.uc.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *RepaymentHandler) NextDueForLoan(c echo.Context) error {
	dto, err := h.uc.NextDueForLoan(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RepaymentHandler) TotalsForLoan(c echo.Context) error {
	dto, err := h.uc.TotalsForLoan(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
