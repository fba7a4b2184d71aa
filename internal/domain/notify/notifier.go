package notify

import "context"

type EventKind string

const (
	EventRequestSubmitted  EventKind = "loan_request.submitted"
	EventRequestApproved   EventKind = "loan_request.role_approved"
	EventRequestFinalized  EventKind = "loan_request.approved"
	EventRequestRejected   EventKind = "loan_request.rejected"
	EventLoanCreated       EventKind = "loan.created"
	EventInstallmentPaid   EventKind = "repayment.paid"
	EventLoanRepaid        EventKind = "loan.repaid"
	EventInstallmentLate   EventKind = "repayment.overdue"
)

// Notifier is the delivery sink the engine needs from the notification
// subsystem. Delivery is best-effort: the ledger never rolls back a
// committed state change because a notification failed.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, kind EventKind, payload map[string]any) error
}
