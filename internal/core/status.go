package core

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a requested settlement status change
// is not an allowed forward edge. The record is left unchanged.
var ErrInvalidTransition = errors.New("invalid settlement transition")

// statusRank orders the forward-only lifecycle. Higher rank means later.
func statusRank(s SettlementStatus) int {
	switch s {
	case StatusPending:
		return 0
	case StatusInvoiceReceived:
		return 1
	case StatusSettlementRequested:
		return 2
	case StatusSettled:
		return 3
	default:
		return -1
	}
}

// ValidStatus reports whether s is one of the four lifecycle states.
func ValidStatus(s SettlementStatus) bool {
	return statusRank(s) >= 0
}

// Transition is the pure reducer for the settlement lifecycle:
//
//	pending → invoice_received → settlement_requested → settled
//
// plus the admin-only direct edges pending → settled and
// invoice_received → settled. There are no backward transitions; the only
// exception, rejecting a settlement request, goes through Reject.
//
// Applying a target the record has already reached (or passed, for
// settlement_requested) is an idempotent no-op: the current state is
// returned with changed=false and no error. Anything else is
// ErrInvalidTransition.
func Transition(current, target SettlementStatus, adminOverride bool) (next SettlementStatus, changed bool, err error) {
	if !ValidStatus(current) || !ValidStatus(target) {
		return current, false, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current, target)
	}

	switch target {
	case StatusInvoiceReceived:
		if current == StatusPending {
			return StatusInvoiceReceived, true, nil
		}
		if current == StatusInvoiceReceived {
			return current, false, nil
		}

	case StatusSettlementRequested:
		if current == StatusInvoiceReceived {
			return StatusSettlementRequested, true, nil
		}
		// Already requested or already settled: requesting again is a no-op,
		// never a second request.
		if statusRank(current) >= statusRank(StatusSettlementRequested) {
			return current, false, nil
		}

	case StatusSettled:
		if current == StatusSettlementRequested {
			return StatusSettled, true, nil
		}
		if current == StatusSettled {
			return current, false, nil
		}
		if adminOverride && (current == StatusPending || current == StatusInvoiceReceived) {
			return StatusSettled, true, nil
		}
	}

	return current, false, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current, target)
}

// Reject returns a settlement_requested record to invoice_received, the
// only sanctioned retreat in the lifecycle. A rejected request never falls
// back to pending.
func Reject(current SettlementStatus) (SettlementStatus, error) {
	if current != StatusSettlementRequested {
		return current, fmt.Errorf("%w: reject from %s", ErrInvalidTransition, current)
	}
	return StatusInvoiceReceived, nil
}
