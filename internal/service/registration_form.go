package service

// FormState is an immutable snapshot of an in-progress registration form.
// Reduce is the only way to derive a new state, which keeps the branch →
// track → {major, fee, discount} reset order in one place.
type FormState struct {
	BranchID       string       `json:"branch_id"`
	TrackID        string       `json:"track_id"`
	MajorID        string       `json:"major_id"`
	FeeID          string       `json:"fee_id"`
	DiscountID     string       `json:"discount_id"`
	DiscountLabel  string       `json:"discount_label"`
	BaseFee        int64        `json:"base_fee"`
	DiscountAmount int64        `json:"discount_amount"`
	Fee            FeeBreakdown `json:"fee"`
}

// DiscountEnabled reports whether a discount may be chosen. A discount is
// meaningless without a base fee.
func (s FormState) DiscountEnabled() bool {
	return s.BaseFee > 0
}

// FormEvent is a single user action on the form.
type FormEvent interface {
	apply(FormState) FormState
}

// BranchSelected clears track, major, fee and discount when the branch changes.
type BranchSelected struct{ BranchID string }

// TrackSelected clears major, fee and discount when the track changes; the
// branch is kept.
type TrackSelected struct{ TrackID string }

// MajorSelected chooses a major. When the major carries its own fee for the
// current (branch, track) the base fee follows it.
type MajorSelected struct {
	MajorID   string
	FeeID     string
	FeeAmount int64
	HasFee    bool
}

// FeeSelected chooses a base fee entry.
type FeeSelected struct {
	FeeID  string
	Amount int64
}

// DiscountSelected chooses a discount type; an empty ID removes the discount.
type DiscountSelected struct {
	DiscountID string
	Label      string
	Amount     int64
}

// DiscountAmountEdited is a manual edit of the discount amount.
type DiscountAmountEdited struct{ Amount int64 }

// FormCleared resets the form.
type FormCleared struct{}

// Reduce returns the state after applying event. The input is never modified.
func Reduce(state FormState, event FormEvent) FormState {
	if event == nil {
		return state
	}
	return event.apply(state).recompute()
}

// ReduceAll folds events over state in order.
func ReduceAll(state FormState, events ...FormEvent) FormState {
	for _, event := range events {
		state = Reduce(state, event)
	}
	return state
}

func (e BranchSelected) apply(s FormState) FormState {
	if e.BranchID == s.BranchID {
		return s
	}
	return FormState{BranchID: e.BranchID}
}

func (e TrackSelected) apply(s FormState) FormState {
	if e.TrackID == s.TrackID {
		return s
	}
	return FormState{BranchID: s.BranchID, TrackID: e.TrackID}
}

func (e MajorSelected) apply(s FormState) FormState {
	s.MajorID = e.MajorID
	if e.HasFee {
		s.FeeID = e.FeeID
		s.BaseFee = e.FeeAmount
	}
	return s
}

func (e FeeSelected) apply(s FormState) FormState {
	s.FeeID = e.FeeID
	s.BaseFee = e.Amount
	return s
}

func (e DiscountSelected) apply(s FormState) FormState {
	if !s.DiscountEnabled() {
		return s
	}
	if e.DiscountID == "" {
		s.DiscountID, s.DiscountLabel, s.DiscountAmount = "", "", 0
		return s
	}
	s.DiscountID = e.DiscountID
	s.DiscountLabel = e.Label
	s.DiscountAmount = e.Amount
	return s
}

func (e DiscountAmountEdited) apply(s FormState) FormState {
	if !s.DiscountEnabled() {
		return s
	}
	s.DiscountAmount = e.Amount
	return s
}

func (FormCleared) apply(FormState) FormState {
	return FormState{}
}

// recompute re-derives the fee from the current base. The stored discount is
// re-clamped against the base so a later, larger fee keeps the clamped amount.
func (s FormState) recompute() FormState {
	if s.BaseFee <= 0 {
		s.BaseFee = 0
		s.DiscountID, s.DiscountLabel, s.DiscountAmount = "", "", 0
	}
	s.Fee = ComputeTotal(s.BaseFee, s.DiscountAmount)
	s.DiscountAmount = s.Fee.AppliedDiscount
	return s
}
