package http

import (
	"net/http"

	domainLoan "mutuelle-backend/internal/domain/loan"
	"mutuelle-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler {
	return &LoanHandler{uc: uc}
}

func (h *LoanHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	if s := c.QueryParam("status"); s != "" {
		dtos, err := h.uc.ListByStatus(ctx, domainLoan.Status(s))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, dtos)
	}
	dtos, err := h.uc.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *LoanHandler) ListByMember(c echo.Context) error {
	dtos, err := h.uc.ListByMember(c.Request().Context(), c.Param("member_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}
