package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessorUnavailable is returned when the payment processor is not
	// configured or a hosted checkout session cannot be created or read
	ErrProcessorUnavailable = errors.New("payment processor unavailable")
	// ErrMissingSession is returned when the return URL carries no session id
	ErrMissingSession = errors.New("missing checkout session id")
	// ErrNoPendingOrder is returned when there is no pending order to complete
	ErrNoPendingOrder = errors.New("no pending order")
	// ErrSessionNotPaid is returned when the processor does not confirm payment
	ErrSessionNotPaid = errors.New("checkout session is not paid")
	// ErrNoCompletedOrder is returned when the session has no paid order yet
	ErrNoCompletedOrder = errors.New("no completed order")
	// ErrInvalidPaymentLink is returned for forged, stale or expired links
	ErrInvalidPaymentLink = errors.New("invalid or expired payment link")
	// ErrProjectNotFound is returned for unknown project ids
	ErrProjectNotFound = errors.New("project not found")
	// ErrNothingDue is returned when a project has no balance left to pay
	ErrNothingDue = errors.New("project has no balance due")

	// ErrUnknownSession is returned by processors for session ids they do not
	// know. It counts as an unpaid session.
	ErrUnknownSession = fmt.Errorf("%w: unknown checkout session", ErrSessionNotPaid)
)
