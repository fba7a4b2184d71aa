package http

import (
	"errors"
	"net/http"
	"strings"

	domainLoan "mutuelle-backend/internal/domain/loan"
	domainRequest "mutuelle-backend/internal/domain/loanrequest"
	"mutuelle-backend/internal/domain/member"
	domainRepayment "mutuelle-backend/internal/domain/repayment"

	"github.com/labstack/echo/v4"
)

// respondError maps the engine's error taxonomy onto HTTP codes:
// not-found 404, conflicts 409, authorization 403, validation 422.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domainRequest.ErrNotFound),
		errors.Is(err, domainLoan.ErrNotFound),
		errors.Is(err, domainRepayment.ErrNotFound),
		errors.Is(err, member.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, domainRequest.ErrNotReviewable),
		errors.Is(err, domainRequest.ErrAlreadyApproved),
		errors.Is(err, domainRequest.ErrNotPending),
		errors.Is(err, domainRequest.ErrLoanExists),
		errors.Is(err, domainRepayment.ErrNotPayable),
		errors.Is(err, domainRepayment.ErrDuplicateReference),
		errors.Is(err, domainRepayment.ErrScheduleExists),
		errors.Is(err, domainRepayment.ErrAlreadyRepaid):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, member.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})

	case errors.Is(err, domainRequest.ErrInFlightRequest),
		errors.Is(err, domainRequest.ErrTermsNotAccepted),
		errors.Is(err, domainRequest.ErrInvalidAmount),
		errors.Is(err, domainRequest.ErrInvalidDuration),
		errors.Is(err, domainRepayment.ErrPartialPayment),
		errors.Is(err, member.ErrInactive):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// actorFrom reads the caller identity resolved by the auth layer. The
// engine trusts these headers; enforcing them is the edge's job.
func actorFrom(c echo.Context) (member.Actor, bool) {
	memberID := strings.TrimSpace(c.Request().Header.Get("Ax-Member-Id"))
	role := member.Role(strings.TrimSpace(c.Request().Header.Get("Ax-Member-Role")))
	if !reHex32.MatchString(memberID) || !role.Valid() {
		return member.Actor{}, false
	}
	return member.Actor{MemberID: memberID, Role: role}, true
}

func badActor(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Member-Id/Ax-Member-Role"})
}
