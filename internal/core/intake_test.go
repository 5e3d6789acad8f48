package core_test

import (
	"testing"

	"settlement-engine/internal/core"
)

func TestOrderDraft_NormalizationAndValidation(t *testing.T) {
	tests := []struct {
		name         string
		customerName string
		deliveryFee  string
		items        []core.DraftItem
		expectErr    bool
	}{
		{
			name:         "Happy path",
			customerName: "Customer A",
			deliveryFee:  "5000",
			items: []core.DraftItem{
				{ProductName: "Widget", UnitSellPrice: "60000", UnitCostPrice: "45000", Quantity: 2},
			},
			expectErr: false,
		},
		{
			name:         "Blank fee and quantity normalize",
			customerName: "  Customer B ",
			deliveryFee:  "",
			items: []core.DraftItem{
				{ProductName: "Widget", UnitSellPrice: "60000", Quantity: 0},
			},
			expectErr: false, // fee → "0", quantity → 1
		},
		{
			name:         "Unknown cost is allowed",
			customerName: "Customer C",
			deliveryFee:  "null",
			items: []core.DraftItem{
				{ProductName: "Widget", UnitSellPrice: "60000", UnitCostPrice: "null", Quantity: 1},
			},
			expectErr: false,
		},
		{
			name:        "Missing customer",
			deliveryFee: "0",
			items: []core.DraftItem{
				{ProductName: "Widget", UnitSellPrice: "60000", Quantity: 1},
			},
			expectErr: true,
		},
		{
			name:         "No items",
			customerName: "Customer D",
			deliveryFee:  "0",
			expectErr:    true,
		},
		{
			name:         "Zero sell price",
			customerName: "Customer E",
			deliveryFee:  "0",
			items: []core.DraftItem{
				{ProductName: "Widget", UnitSellPrice: "0", Quantity: 1},
			},
			expectErr: true,
		},
		{
			name:         "Negative fee",
			customerName: "Customer F",
			deliveryFee:  "-100",
			items: []core.DraftItem{
				{ProductName: "Widget", UnitSellPrice: "60000", Quantity: 1},
			},
			expectErr: true,
		},
		{
			name:         "Garbage amount",
			customerName: "Customer G",
			deliveryFee:  "0",
			items: []core.DraftItem{
				{ProductName: "Widget", UnitSellPrice: "sixty", Quantity: 1},
			},
			expectErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := core.OrderDraft{
				CustomerName: tc.customerName,
				DeliveryFee:  tc.deliveryFee,
				Items:        tc.items,
			}
			d.Normalize()
			err := d.Validate()
			if tc.expectErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tc.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestOrderDraft_Total(t *testing.T) {
	d := core.OrderDraft{
		CustomerName: "Customer A",
		DeliveryFee:  "5000",
		Items: []core.DraftItem{
			{ProductName: "Widget", UnitSellPrice: "60000", Quantity: 2},
			{ProductName: "Gadget", UnitSellPrice: "30000", Quantity: 1},
		},
	}
	d.Normalize()
	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Total().StringFixed(2) != "155000.00" {
		t.Errorf("Total = %s, want 155000.00", d.Total())
	}
}
