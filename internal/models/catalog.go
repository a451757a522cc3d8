package models

// Branch ("kantor cabang") is an office location.
type Branch struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Track ("jalur pendaftaran") is a registration pathway offered by a branch.
type Track struct {
	ID       string `db:"id" json:"id"`
	BranchID string `db:"branch_id" json:"branch_id"`
	Name     string `db:"name" json:"name"`
}

// Major ("jurusan") offered at a branch.
type Major struct {
	ID       string `db:"id" json:"id"`
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
	BranchID string `db:"branch_id" json:"branch_id"`
}

// FeeEntry is a fee option scoped to (branch, track). Entries with a MajorID
// form the majors-with-fees catalog; the rest are the standalone schedule.
type FeeEntry struct {
	ID       string `db:"id" json:"id"`
	BranchID string `db:"branch_id" json:"branch_id"`
	TrackID  string `db:"track_id" json:"track_id"`
	MajorID  string `db:"major_id" json:"major_id,omitempty"`
	Label    string `db:"label" json:"label"`
	Amount   int64  `db:"amount" json:"amount"`
}

// DiscountEntry is a discount option scoped to (branch, track).
type DiscountEntry struct {
	ID       string `db:"id" json:"id"`
	BranchID string `db:"branch_id" json:"branch_id"`
	TrackID  string `db:"track_id" json:"track_id"`
	Label    string `db:"label" json:"label"`
	Amount   int64  `db:"amount" json:"amount"`
}

// Presenter is a field agent that can be credited on registrations.
type Presenter struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	BranchID string `db:"branch_id" json:"branch_id"`
}

// PaymentMethod ("metode bayar").
type PaymentMethod struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
}

// InfoSource ("sumber informasi") records how an applicant heard about the school.
type InfoSource struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Catalog bundles the reference data a registration form works against.
type Catalog struct {
	Branches       []Branch        `json:"branches"`
	Tracks         []Track         `json:"tracks"`
	Majors         []Major         `json:"majors"`
	Fees           []FeeEntry      `json:"fees"`
	Discounts      []DiscountEntry `json:"discounts"`
	Presenters     []Presenter     `json:"presenters"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`
	InfoSources    []InfoSource    `json:"info_sources"`
	Waves          []Wave          `json:"waves"`
}

// ScopeContext is the ephemeral (branch, track, role) triple used to narrow
// catalogs for an in-progress form.
type ScopeContext struct {
	BranchID string   `json:"branch_id"`
	TrackID  string   `json:"track_id"`
	Role     UserRole `json:"role"`
}
