package billing

import (
	"github.com/shopspring/decimal"
)

// Financials is the full resolved monetary record of a bill. Bills persist
// these computed fields, not just the inputs, so historical bills stay
// immutable snapshots even if discount or tax rules change later.
type Financials struct {
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxPercent      decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	PaidAmount      decimal.Decimal
	DueAmount       decimal.Decimal
	Status          PaymentStatus
}

var hundred = decimal.NewFromInt(100)

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func clampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// ComputeFinancials turns priced line totals plus raw discount/tax
// percentages, paid amount and requested status into a consistent monetary
// record. It is a pure function; every bill write recomputes through it.
//
// The subtotal is rounded to two decimals after each addition, not only at
// the end, so repeated computation over the same lines is bit-identical.
func ComputeFinancials(lineTotals []decimal.Decimal, discountPct, taxPct, paid decimal.Decimal, status PaymentStatus) Financials {
	subtotal := decimal.Zero
	for _, lt := range lineTotals {
		subtotal = round2(subtotal.Add(lt))
	}

	discountPct = clampPercent(discountPct)
	discountAmount := round2(subtotal.Mul(discountPct).Div(hundred))

	taxableBase := subtotal.Sub(discountAmount)
	if taxableBase.IsNegative() {
		taxableBase = decimal.Zero
	}

	taxPct = clampPercent(taxPct)
	taxAmount := round2(taxableBase.Mul(taxPct).Div(hundred))

	total := taxableBase.Add(taxAmount)

	if !status.IsValid() {
		status = PaymentStatusPending
	}
	if status == PaymentStatusPaid {
		// A paid bill is paid in full; any caller-supplied amount is ignored.
		paid = total
	}
	if paid.GreaterThan(total) {
		paid = total
	}

	due := total.Sub(paid)
	if due.IsNegative() {
		due = decimal.Zero
	}

	// Status must never claim paid while a balance remains.
	if status == PaymentStatusPaid && due.GreaterThan(decimal.Zero) {
		status = PaymentStatusPartial
	}

	return Financials{
		Subtotal:        subtotal,
		DiscountPercent: discountPct,
		DiscountAmount:  discountAmount,
		TaxPercent:      taxPct,
		TaxAmount:       taxAmount,
		TotalAmount:     total,
		PaidAmount:      paid,
		DueAmount:       due,
		Status:          status,
	}
}
