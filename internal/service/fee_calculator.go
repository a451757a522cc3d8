package service

import "github.com/noah-isme/pmb-api/pkg/currency"

// FeeBreakdown is the authoritative result of applying a discount to a base fee.
type FeeBreakdown struct {
	BaseFee           int64 `json:"base_fee"`
	RequestedDiscount int64 `json:"requested_discount"`
	AppliedDiscount   int64 `json:"applied_discount"`
	Total             int64 `json:"total"`
	// Clamped is set when the requested discount exceeded the base fee and was
	// reduced to it.
	Clamped bool `json:"clamped"`
}

// ComputeTotal clamps the discount to the base fee and derives the total.
// Negative inputs count as zero. It is pure and always recomputes from
// baseFee, so callers re-invoke it on every upstream change.
func ComputeTotal(baseFee, requestedDiscount int64) FeeBreakdown {
	if baseFee < 0 {
		baseFee = 0
	}
	if requestedDiscount < 0 {
		requestedDiscount = 0
	}

	applied := requestedDiscount
	clamped := false
	if applied > baseFee {
		applied = baseFee
		clamped = true
	}

	total := baseFee - applied
	if total < 0 {
		total = 0
	}

	return FeeBreakdown{
		BaseFee:           baseFee,
		RequestedDiscount: requestedDiscount,
		AppliedDiscount:   applied,
		Total:             total,
		Clamped:           clamped,
	}
}

// FormattedFee renders a breakdown for the presentation layer.
type FormattedFee struct {
	BaseFee         string `json:"base_fee"`
	AppliedDiscount string `json:"applied_discount"`
	Total           string `json:"total"`
}

// Format renders every amount with "." group separators.
func (b FeeBreakdown) Format() FormattedFee {
	return FormattedFee{
		BaseFee:         currency.Format(b.BaseFee),
		AppliedDiscount: currency.Format(b.AppliedDiscount),
		Total:           currency.Format(b.Total),
	}
}
