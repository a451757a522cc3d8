package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/pmb-api/internal/models"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

// EffectiveScope derives the scope a caller may work in. Field agents are
// pinned to their affiliated branch whatever they request; leadership keeps
// the requested branch, and an empty branch means "all branches".
func EffectiveScope(claims *models.JWTClaims, requested models.ScopeContext) models.ScopeContext {
	scope := models.ScopeContext{
		BranchID: strings.TrimSpace(requested.BranchID),
		TrackID:  strings.TrimSpace(requested.TrackID),
		Role:     models.RoleLeadership,
	}
	if claims.IsPresenter() {
		scope.Role = models.RolePresenter
		if scope.BranchID != claims.BranchID {
			// A different branch invalidates whatever track was chosen for it.
			scope.TrackID = ""
		}
		scope.BranchID = claims.BranchID
	}
	return scope
}

// filterScoped keeps the items whose branch equals scope.BranchID when set and,
// for item types carrying a track, whose track equals scope.TrackID when set.
func filterScoped[T any](items []T, scope models.ScopeContext, branchOf func(T) string, trackOf func(T) (string, bool)) []T {
	if scope.BranchID == "" && scope.TrackID == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if scope.BranchID != "" && branchOf(item) != scope.BranchID {
			continue
		}
		if scope.TrackID != "" && trackOf != nil {
			if track, ok := trackOf(item); ok && track != scope.TrackID {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// FilterCatalog narrows every branch/track scoped list in catalog to scope.
// Waves, payment methods and info sources are global and pass through.
func FilterCatalog(catalog models.Catalog, scope models.ScopeContext) models.Catalog {
	out := catalog
	out.Tracks = FilterTracks(catalog.Tracks, scope)
	out.Majors = FilterMajors(catalog.Majors, scope)
	out.Fees = FilterFees(catalog.Fees, scope)
	out.Discounts = FilterDiscounts(catalog.Discounts, scope)
	out.Presenters = FilterPresenters(catalog.Presenters, scope)
	if scope.Role == models.RolePresenter {
		out.Branches = filterScoped(catalog.Branches, scope, func(b models.Branch) string { return b.ID }, nil)
	}
	return out
}

// FilterTracks narrows tracks to the scope's branch.
func FilterTracks(tracks []models.Track, scope models.ScopeContext) []models.Track {
	return filterScoped(tracks, scope, func(t models.Track) string { return t.BranchID }, nil)
}

// FilterMajors narrows majors to the scope's branch.
func FilterMajors(majors []models.Major, scope models.ScopeContext) []models.Major {
	return filterScoped(majors, scope, func(m models.Major) string { return m.BranchID }, nil)
}

// FilterFees narrows fee entries, both standalone and major-bound, to the scope.
func FilterFees(fees []models.FeeEntry, scope models.ScopeContext) []models.FeeEntry {
	return filterScoped(fees, scope,
		func(f models.FeeEntry) string { return f.BranchID },
		func(f models.FeeEntry) (string, bool) { return f.TrackID, true })
}

// FilterDiscounts narrows discount entries to the scope.
func FilterDiscounts(discounts []models.DiscountEntry, scope models.ScopeContext) []models.DiscountEntry {
	return filterScoped(discounts, scope,
		func(d models.DiscountEntry) string { return d.BranchID },
		func(d models.DiscountEntry) (string, bool) { return d.TrackID, true })
}

// FilterPresenters narrows the presenters offered for assignment. Only field
// agents are restricted; leadership may credit anyone.
func FilterPresenters(presenters []models.Presenter, scope models.ScopeContext) []models.Presenter {
	if scope.Role != models.RolePresenter {
		return presenters
	}
	return filterScoped(presenters, models.ScopeContext{BranchID: scope.BranchID},
		func(p models.Presenter) string { return p.BranchID }, nil)
}

// Selection is the set of catalog choices submitted with a registration.
// Empty fields are not checked.
type Selection struct {
	TrackID    string
	MajorID    string
	FeeID      string
	DiscountID string
	Presenters []string
}

// ValidateSelection re-derives the branch and track of every chosen entry
// from catalog and rejects the selection with SCOPE_MISMATCH when any of them
// is unknown or belongs elsewhere. It does not trust the lists the client was
// shown, which may be stale.
func ValidateSelection(catalog models.Catalog, scope models.ScopeContext, sel Selection) error {
	mismatches := map[string]string{}

	if sel.TrackID != "" {
		track, ok := findTrack(catalog.Tracks, sel.TrackID)
		switch {
		case !ok:
			mismatches["track_id"] = "unknown track"
		case scope.BranchID != "" && track.BranchID != scope.BranchID:
			mismatches["track_id"] = "track belongs to branch " + track.BranchID
		}
	}

	if sel.MajorID != "" {
		major, ok := findMajor(catalog.Majors, sel.MajorID)
		switch {
		case !ok:
			mismatches["major_id"] = "unknown major"
		case scope.BranchID != "" && major.BranchID != scope.BranchID:
			mismatches["major_id"] = "major belongs to branch " + major.BranchID
		}
	}

	if sel.FeeID != "" {
		fee, ok := findFee(catalog.Fees, sel.FeeID)
		switch {
		case !ok:
			mismatches["fee_id"] = "unknown fee"
		case scope.BranchID != "" && fee.BranchID != scope.BranchID:
			mismatches["fee_id"] = "fee belongs to branch " + fee.BranchID
		case scope.TrackID != "" && fee.TrackID != scope.TrackID:
			mismatches["fee_id"] = "fee belongs to track " + fee.TrackID
		case fee.MajorID != "" && sel.MajorID != "" && fee.MajorID != sel.MajorID:
			mismatches["fee_id"] = "fee belongs to major " + fee.MajorID
		}
	}

	if sel.DiscountID != "" {
		discount, ok := findDiscount(catalog.Discounts, sel.DiscountID)
		switch {
		case !ok:
			mismatches["discount_id"] = "unknown discount"
		case scope.BranchID != "" && discount.BranchID != scope.BranchID:
			mismatches["discount_id"] = "discount belongs to branch " + discount.BranchID
		case scope.TrackID != "" && discount.TrackID != scope.TrackID:
			mismatches["discount_id"] = "discount belongs to track " + discount.TrackID
		}
	}

	var foreign []string
	for _, name := range sel.Presenters {
		presenter, ok := findPresenter(catalog.Presenters, name)
		if !ok {
			foreign = append(foreign, name+" (unknown)")
			continue
		}
		if scope.Role == models.RolePresenter && presenter.BranchID != scope.BranchID {
			foreign = append(foreign, name)
		}
	}
	if len(foreign) > 0 {
		sort.Strings(foreign)
		mismatches["presenters"] = strings.Join(foreign, ", ")
	}

	if len(mismatches) == 0 {
		return nil
	}
	return appErrors.WithDetails(appErrors.ErrScopeMismatch, mismatches)
}

func findTrack(items []models.Track, id string) (models.Track, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.Track{}, false
}

func findMajor(items []models.Major, id string) (models.Major, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.Major{}, false
}

func findFee(items []models.FeeEntry, id string) (models.FeeEntry, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.FeeEntry{}, false
}

// findMajorFee returns the fee bound to major within (branch, track).
func findMajorFee(items []models.FeeEntry, branchID, trackID, majorID string) (models.FeeEntry, bool) {
	for _, item := range items {
		if item.MajorID == majorID && item.BranchID == branchID && item.TrackID == trackID {
			return item, true
		}
	}
	return models.FeeEntry{}, false
}

func findDiscount(items []models.DiscountEntry, id string) (models.DiscountEntry, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.DiscountEntry{}, false
}

func findPresenter(items []models.Presenter, name string) (models.Presenter, bool) {
	for _, item := range items {
		if item.FullName == name || item.ID == name {
			return item, true
		}
	}
	return models.Presenter{}, false
}
