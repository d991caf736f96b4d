package reconciliation

import "errors"

var (
	ErrCaseNotFound     = errors.New("reconciliation case not found")
	ErrCaseClosed       = errors.New("reconciliation case already closed")
	ErrPaymentConsumed  = errors.New("payment already produced an order or was refunded")
	ErrForbidden        = errors.New("forbidden: admin access required")
	ErrMissingReference = errors.New("payment reference is required")
)
