package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderDraft is a structured order extracted from a free-text message
// (Telegram or web intake) before it is confirmed and persisted. Amounts
// travel as strings until Validate parses them, so malformed model output
// fails loudly instead of silently becoming zero.
type OrderDraft struct {
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Address       string      `json:"address"`
	DeliveryFee   string      `json:"delivery_fee"`
	Notes         string      `json:"notes"`
	Confidence    float64     `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Items         []DraftItem `json:"items"`
}

type DraftItem struct {
	ProductName   string `json:"product_name"`
	UnitSellPrice string `json:"unit_sell_price"`
	UnitCostPrice string `json:"unit_cost_price"`
	Quantity      int    `json:"quantity"`
}

// Normalize cleans up user input (LLM output) dealing with common formatting issues.
func (d *OrderDraft) Normalize() {
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.CustomerPhone = strings.TrimSpace(d.CustomerPhone)
	d.Address = strings.TrimSpace(d.Address)
	d.Notes = strings.TrimSpace(d.Notes)

	if isBlankAmount(d.DeliveryFee) {
		d.DeliveryFee = "0"
	}

	for i := range d.Items {
		it := &d.Items[i]
		it.ProductName = strings.TrimSpace(it.ProductName)
		if isBlankAmount(it.UnitSellPrice) {
			it.UnitSellPrice = "0"
		}
		// An unknown cost stays empty: the profit computation treats it as
		// missing and flags low confidence, which "0" would mask.
		it.UnitCostPrice = strings.TrimSpace(it.UnitCostPrice)
		if strings.ToLower(it.UnitCostPrice) == "null" {
			it.UnitCostPrice = ""
		}
		if it.Quantity == 0 {
			it.Quantity = 1
		}
	}
}

func isBlankAmount(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.ToLower(s) == "null"
}

// Validate enforces the minimum an order needs before a human confirms it.
func (d *OrderDraft) Validate() error {
	if d.CustomerName == "" {
		return errors.New("draft must name a customer")
	}
	if len(d.Items) == 0 {
		return errors.New("draft must contain at least one item")
	}

	fee, err := decimal.NewFromString(d.DeliveryFee)
	if err != nil {
		return fmt.Errorf("invalid delivery fee %q: %v", d.DeliveryFee, err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("delivery fee cannot be negative, got %s", d.DeliveryFee)
	}

	for _, it := range d.Items {
		if it.ProductName == "" {
			return errors.New("every item must name a product")
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("quantity must be > 0 for %s", it.ProductName)
		}
		sell, err := decimal.NewFromString(it.UnitSellPrice)
		if err != nil {
			return fmt.Errorf("invalid sell price %q for %s: %v", it.UnitSellPrice, it.ProductName, err)
		}
		if sell.IsNegative() || sell.IsZero() {
			return fmt.Errorf("sell price must be > 0 for %s", it.ProductName)
		}
		if it.UnitCostPrice != "" {
			cost, err := decimal.NewFromString(it.UnitCostPrice)
			if err != nil {
				return fmt.Errorf("invalid cost price %q for %s: %v", it.UnitCostPrice, it.ProductName, err)
			}
			if cost.IsNegative() {
				return fmt.Errorf("cost price cannot be negative for %s", it.ProductName)
			}
		}
	}
	return nil
}

// Total sums the draft's item lines plus the delivery fee. Call only after
// Validate; unparseable amounts contribute zero.
func (d OrderDraft) Total() decimal.Decimal {
	total, _ := decimal.NewFromString(d.DeliveryFee)
	for _, it := range d.Items {
		sell, _ := decimal.NewFromString(it.UnitSellPrice)
		total = total.Add(sell.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
