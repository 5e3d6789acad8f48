package core_test

import (
	"errors"
	"testing"

	"settlement-engine/internal/core"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  core.SettlementStatus
		target   core.SettlementStatus
		override bool
		want     core.SettlementStatus
		changed  bool
		wantErr  bool
	}{
		{name: "pending to invoice_received", current: core.StatusPending, target: core.StatusInvoiceReceived, want: core.StatusInvoiceReceived, changed: true},
		{name: "invoice_received to settlement_requested", current: core.StatusInvoiceReceived, target: core.StatusSettlementRequested, want: core.StatusSettlementRequested, changed: true},
		{name: "settlement_requested to settled", current: core.StatusSettlementRequested, target: core.StatusSettled, want: core.StatusSettled, changed: true},

		{name: "request twice is a no-op", current: core.StatusSettlementRequested, target: core.StatusSettlementRequested, want: core.StatusSettlementRequested},
		{name: "request after settled is a no-op", current: core.StatusSettled, target: core.StatusSettlementRequested, want: core.StatusSettled},
		{name: "settle twice is a no-op", current: core.StatusSettled, target: core.StatusSettled, want: core.StatusSettled},
		{name: "invoice_received twice is a no-op", current: core.StatusInvoiceReceived, target: core.StatusInvoiceReceived, want: core.StatusInvoiceReceived},

		{name: "skipping invoice_received is rejected", current: core.StatusPending, target: core.StatusSettlementRequested, wantErr: true},
		{name: "settling a pending record is rejected", current: core.StatusPending, target: core.StatusSettled, wantErr: true},
		{name: "settling invoice_received without override is rejected", current: core.StatusInvoiceReceived, target: core.StatusSettled, wantErr: true},
		{name: "no backward edge to pending", current: core.StatusInvoiceReceived, target: core.StatusPending, wantErr: true},
		{name: "no backward edge from settled", current: core.StatusSettled, target: core.StatusInvoiceReceived, wantErr: true},
		{name: "unknown status is rejected", current: "archived", target: core.StatusSettled, wantErr: true},

		{name: "admin override settles pending", current: core.StatusPending, target: core.StatusSettled, override: true, want: core.StatusSettled, changed: true},
		{name: "admin override settles invoice_received", current: core.StatusInvoiceReceived, target: core.StatusSettled, override: true, want: core.StatusSettled, changed: true},
		{name: "override does not unlock other edges", current: core.StatusPending, target: core.StatusSettlementRequested, override: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed, err := core.Transition(tt.current, tt.target, tt.override)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				if next != tt.current {
					t.Errorf("rejected transition changed state: %s", next)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if next != tt.want {
				t.Errorf("next = %s, want %s", next, tt.want)
			}
			if changed != tt.changed {
				t.Errorf("changed = %v, want %v", changed, tt.changed)
			}
		})
	}
}

func TestReject(t *testing.T) {
	next, err := core.Reject(core.StatusSettlementRequested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A rejected request returns to invoice_received, never pending.
	if next != core.StatusInvoiceReceived {
		t.Errorf("next = %s, want invoice_received", next)
	}

	for _, s := range []core.SettlementStatus{core.StatusPending, core.StatusInvoiceReceived, core.StatusSettled} {
		if _, err := core.Reject(s); !errors.Is(err, core.ErrInvalidTransition) {
			t.Errorf("Reject(%s): expected ErrInvalidTransition, got %v", s, err)
		}
	}
}
