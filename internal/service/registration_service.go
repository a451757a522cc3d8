package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pmb-api/internal/dto"
	"github.com/noah-isme/pmb-api/internal/models"
	"github.com/noah-isme/pmb-api/internal/repository"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

// insertAttempts bounds re-allocation after losing a race on the
// (wave_id, number) unique constraint.
const insertAttempts = 3

type registrationRepository interface {
	registrationNumberReader
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
	Create(ctx context.Context, registration *models.Registration) error
	Update(ctx context.Context, registration *models.Registration) error
	Delete(ctx context.Context, id string) error
}

type reEnrollmentLookup interface {
	ExistsForRegistration(ctx context.Context, registrationID string) (bool, error)
}

type catalogProvider interface {
	Catalog(ctx context.Context) (*models.Catalog, error)
	Waves(ctx context.Context) ([]models.Wave, error)
}

type numberAllocator interface {
	Allocate(ctx context.Context, date models.Date, waves []models.Wave) (*Allocation, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type eventEmitter interface {
	Emit(event models.RegistrationEvent)
}

// RegistrationOptions is the scope-filtered catalog offered to a form.
type RegistrationOptions struct {
	Scope             models.ScopeContext `json:"scope"`
	Catalog           models.Catalog      `json:"catalog"`
	DefaultPresenters []string            `json:"default_presenters"`
}

// Quote is a fee breakdown with display strings.
type Quote struct {
	Fee             FeeBreakdown `json:"fee"`
	Formatted       FormattedFee `json:"formatted"`
	FeeID           string       `json:"fee_id,omitempty"`
	DiscountID      string       `json:"discount_id,omitempty"`
	DiscountLabel   string       `json:"discount_label,omitempty"`
	DiscountEnabled bool         `json:"discount_enabled"`
}

// RegistrationResult is returned by create and update.
type RegistrationResult struct {
	Registration *models.Registration `json:"registration"`
	Fee          FeeBreakdown         `json:"fee"`
	Formatted    FormattedFee         `json:"formatted"`
}

// RegistrationService composes the scope filter, the fee cascade and the
// number allocator around the registration store.
type RegistrationService struct {
	repo         registrationRepository
	reEnrollment reEnrollmentLookup
	catalog      catalogProvider
	allocator    numberAllocator
	audit        auditRecorder
	events       eventEmitter
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// RegistrationServiceDeps groups the collaborators of RegistrationService.
type RegistrationServiceDeps struct {
	Repo         registrationRepository
	ReEnrollment reEnrollmentLookup
	Catalog      catalogProvider
	Allocator    numberAllocator
	Audit        auditRecorder
	Events       eventEmitter
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(deps RegistrationServiceDeps) *RegistrationService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &RegistrationService{
		repo:         deps.Repo,
		reEnrollment: deps.ReEnrollment,
		catalog:      deps.Catalog,
		allocator:    deps.Allocator,
		audit:        deps.Audit,
		events:       deps.Events,
		metrics:      deps.Metrics,
		validator:    deps.Validator,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

// Options returns the catalogs narrowed to the caller's effective scope.
func (s *RegistrationService) Options(ctx context.Context, claims *models.JWTClaims, query dto.RegistrationOptionsQuery) (*RegistrationOptions, error) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	scope := EffectiveScope(claims, models.ScopeContext{BranchID: query.BranchID, TrackID: query.TrackID})
	options := &RegistrationOptions{
		Scope:             scope,
		Catalog:           FilterCatalog(*catalog, scope),
		DefaultPresenters: []string{},
	}
	if claims.IsPresenter() {
		options.DefaultPresenters = []string{claims.CreditName()}
	}
	return options, nil
}

// Quote computes the fee breakdown for a selection without persisting it.
func (s *RegistrationService) Quote(ctx context.Context, claims *models.JWTClaims, req dto.QuoteRequest) (*Quote, error) {
	scope := EffectiveScope(claims, models.ScopeContext{BranchID: req.BranchID, TrackID: req.TrackID})

	var state FormState
	if req.FeeID == "" && req.MajorID == "" {
		state = ReduceAll(FormState{},
			BranchSelected{BranchID: scope.BranchID},
			TrackSelected{TrackID: scope.TrackID},
			FeeSelected{Amount: req.BaseFee.Int64()},
			DiscountAmountEdited{Amount: req.DiscountAmount.Int64()},
		)
	} else {
		catalog, err := s.catalog.Catalog(ctx)
		if err != nil {
			return nil, err
		}
		sel := Selection{TrackID: req.TrackID, MajorID: req.MajorID, FeeID: req.FeeID, DiscountID: req.DiscountID}
		if err := ValidateSelection(*catalog, scope, sel); err != nil {
			return nil, err
		}
		state, err = replaySelection(*catalog, scope, sel, req.DiscountAmount.Int64())
		if err != nil {
			return nil, err
		}
	}

	s.reportClamp(state.Fee, "")
	return &Quote{
		Fee:             state.Fee,
		Formatted:       state.Fee.Format(),
		FeeID:           state.FeeID,
		DiscountID:      state.DiscountID,
		DiscountLabel:   state.DiscountLabel,
		DiscountEnabled: state.DiscountEnabled(),
	}, nil
}

// Create validates the submission, computes the fee, mints a number and
// stores the registration.
func (s *RegistrationService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateRegistrationRequest) (*RegistrationResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	date := req.RegisteredOn
	if date.IsZero() {
		date = models.DateOf(s.now())
	}

	registration := &models.Registration{RegisteredOn: date, CreatedBy: claims.UserID}
	state, err := s.prepare(ctx, claims, req.RegistrationFields, registration)
	if err != nil {
		return nil, err
	}

	waves, err := s.catalog.Waves(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		allocation, err := s.allocator.Allocate(ctx, date, waves)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		registration.Number = allocation.Number
		registration.WaveID = allocation.WaveID

		err = s.repo.Create(ctx, registration)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateNumber) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
		}
		s.logger.Warn("registration number taken concurrently",
			zap.String("number", allocation.Number), zap.String("wave_id", allocation.WaveID), zap.Int("attempt", attempt))
		if attempt >= insertAttempts {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration number was taken concurrently, please resubmit")
		}
	}

	s.reportClamp(state.Fee, registration.Number)
	s.record(ctx, claims, models.AuditActionRegistrationCreate, registration.ID, registration)
	if s.events != nil {
		s.events.Emit(models.RegistrationEvent{
			Type:           models.EventRegistrationCreated,
			RegistrationID: registration.ID,
			Number:         registration.Number,
			WaveID:         registration.WaveID,
			BranchID:       registration.BranchID,
			TotalFee:       registration.TotalFee,
			OccurredAt:     s.now().UTC(),
		})
	}

	return &RegistrationResult{Registration: registration, Fee: state.Fee, Formatted: state.Fee.Format()}, nil
}

// Update edits a registration in place. Number, date and wave are kept.
// Field agents may only edit registrations they are credited on.
func (s *RegistrationService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateRegistrationRequest) (*RegistrationResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(claims, &existing.Registration); err != nil {
		return nil, err
	}

	registration := existing.Registration
	state, err := s.prepare(ctx, claims, req.RegistrationFields, &registration)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &registration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
	}

	s.reportClamp(state.Fee, registration.Number)
	s.record(ctx, claims, models.AuditActionRegistrationUpdate, registration.ID, registration)
	return &RegistrationResult{Registration: &registration, Fee: state.Fee, Formatted: state.Fee.Format()}, nil
}

// Delete removes a registration unless it has been re-enrolled.
func (s *RegistrationService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(claims, &existing.Registration); err != nil {
		return err
	}

	reEnrolled, err := s.reEnrollment.ExistsForRegistration(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check re-enrollment")
	}
	if reEnrolled {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "registration has a re-enrollment and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registration")
	}
	s.record(ctx, claims, models.AuditActionRegistrationDelete, id, existing.Registration)
	return nil
}

// List returns registrations visible to the caller.
func (s *RegistrationService) List(ctx context.Context, claims *models.JWTClaims, query dto.RegistrationQuery) ([]models.RegistrationDetail, *models.Pagination, error) {
	if query.Month < 0 || query.Month > 12 {
		return nil, nil, invalidField("month", "month must be between 1 and 12")
	}
	page, size := normalizePage(query.Page, query.PageSize)
	filter := models.RegistrationFilter{
		WaveID:    query.WaveID,
		BranchID:  query.BranchID,
		Month:     query.Month,
		Year:      query.Year,
		Search:    strings.TrimSpace(query.Search),
		Page:      page,
		PageSize:  size,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if claims.IsPresenter() {
		filter.BranchID = claims.BranchID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one registration visible to the caller.
func (s *RegistrationService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.RegistrationDetail, error) {
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if claims.IsPresenter() && detail.BranchID != claims.BranchID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another branch")
	}
	return detail, nil
}

func (s *RegistrationService) load(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return detail, nil
}

// prepare checks the selection against the caller's scope, replays it
// through the form reducer and copies the result onto registration.
func (s *RegistrationService) prepare(ctx context.Context, claims *models.JWTClaims, fields dto.RegistrationFields, registration *models.Registration) (FormState, error) {
	scope := EffectiveScope(claims, models.ScopeContext{BranchID: fields.BranchID})
	if scope.BranchID == "" {
		return FormState{}, invalidField("branchId", "branch is required")
	}
	scope.TrackID = strings.TrimSpace(fields.TrackID)

	presenters := normalizePresenters(claims, fields.Presenters)

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return FormState{}, err
	}
	sel := Selection{
		TrackID:    scope.TrackID,
		MajorID:    fields.MajorID,
		FeeID:      fields.FeeID,
		DiscountID: fields.DiscountID,
		Presenters: presenters,
	}
	if err := ValidateSelection(*catalog, scope, sel); err != nil {
		return FormState{}, err
	}

	state, err := replaySelection(*catalog, scope, sel, fields.DiscountAmount.Int64())
	if err != nil {
		return FormState{}, err
	}

	registration.ApplicantName = strings.TrimSpace(fields.ApplicantName)
	registration.Phone = strings.TrimSpace(fields.Phone)
	registration.Email = strings.TrimSpace(fields.Email)
	registration.PriorSchool = strings.TrimSpace(fields.PriorSchool)
	registration.Gender = fields.Gender
	registration.BranchID = scope.BranchID
	registration.TrackID = scope.TrackID
	registration.MajorID = fields.MajorID
	registration.FeeID = optional(state.FeeID)
	registration.BaseFee = state.BaseFee
	registration.DiscountID = optional(state.DiscountID)
	registration.DiscountLabel = state.DiscountLabel
	registration.DiscountAmount = state.Fee.AppliedDiscount
	registration.TotalFee = state.Fee.Total
	registration.Presenters = presenters
	registration.PaymentMethodID = fields.PaymentMethodID
	registration.InfoSource = strings.TrimSpace(fields.InfoSource)
	registration.ReceiptNo = strings.TrimSpace(fields.ReceiptNo)
	registration.Note = strings.TrimSpace(fields.Note)
	return state, nil
}

// replaySelection folds a validated selection through the form reducer in
// the order the form cascades: branch, track, major, fee, discount.
func replaySelection(catalog models.Catalog, scope models.ScopeContext, sel Selection, discountAmount int64) (FormState, error) {
	events := []FormEvent{
		BranchSelected{BranchID: scope.BranchID},
		TrackSelected{TrackID: scope.TrackID},
	}

	if sel.MajorID != "" {
		major := MajorSelected{MajorID: sel.MajorID}
		if fee, ok := findMajorFee(catalog.Fees, scope.BranchID, scope.TrackID, sel.MajorID); ok {
			major.FeeID, major.FeeAmount, major.HasFee = fee.ID, fee.Amount, true
		}
		events = append(events, major)
	}
	if sel.FeeID != "" {
		fee, ok := findFee(catalog.Fees, sel.FeeID)
		if !ok {
			return FormState{}, invalidField("feeId", "unknown fee")
		}
		events = append(events, FeeSelected{FeeID: fee.ID, Amount: fee.Amount})
	}
	if sel.DiscountID != "" {
		discount, ok := findDiscount(catalog.Discounts, sel.DiscountID)
		if !ok {
			return FormState{}, invalidField("discountId", "unknown discount")
		}
		events = append(events, DiscountSelected{DiscountID: discount.ID, Label: discount.Label, Amount: discount.Amount})
	}
	if discountAmount > 0 {
		events = append(events, DiscountAmountEdited{Amount: discountAmount})
	}

	state := ReduceAll(FormState{}, events...)
	if state.FeeID == "" {
		return FormState{}, invalidField("feeId", "no fee configured for the selected major; choose a fee")
	}
	// The reducer stores the clamped amount, so report the clamp against
	// what was actually requested.
	requested := discountAmount
	if requested == 0 && state.DiscountID != "" {
		discount, _ := findDiscount(catalog.Discounts, state.DiscountID)
		requested = discount.Amount
	}
	state.Fee = ComputeTotal(state.BaseFee, requested)
	if state.BaseFee == 0 {
		state.Fee = ComputeTotal(0, 0)
	}
	return state, nil
}

func (s *RegistrationService) reportClamp(fee FeeBreakdown, number string) {
	if !fee.Clamped {
		return
	}
	s.metrics.RecordDiscountClamped()
	s.logger.Warn("discount exceeds base fee, clamped",
		zap.String("number", number),
		zap.Int64("base_fee", fee.BaseFee),
		zap.Int64("requested_discount", fee.RequestedDiscount),
		zap.Int64("applied_discount", fee.AppliedDiscount))
}

func (s *RegistrationService) record(ctx context.Context, claims *models.JWTClaims, action, resourceID string, values interface{}) {
	if s.audit == nil {
		return
	}
	recordAudit(ctx, s.audit, s.logger, claims, action, "registration", resourceID, values)
}

// recordAudit writes an audit entry; failures are logged only.
func recordAudit(ctx context.Context, audit auditRecorder, logger *zap.Logger, claims *models.JWTClaims, action, resource, resourceID string, values interface{}) {
	body, err := json.Marshal(values)
	if err != nil {
		logger.Warn("failed to encode audit values", zap.String("action", action), zap.Error(err))
		body = nil
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  body,
	}
	if claims != nil {
		userID := claims.UserID
		entry.UserID = &userID
	}
	if origin, ok := models.RequestOriginFrom(ctx); ok {
		entry.IPAddress = origin.IPAddress
		entry.UserAgent = origin.UserAgent
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}

// authorizeOwner allows leadership everything and field agents only
// registrations of their branch they are credited on.
func authorizeOwner(claims *models.JWTClaims, registration *models.Registration) error {
	if !claims.IsPresenter() {
		return nil
	}
	if registration.BranchID != claims.BranchID {
		return appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another branch")
	}
	if !registration.CreditsPresenter(claims.CreditName()) {
		return appErrors.Clone(appErrors.ErrForbidden, "only credited presenters may change this registration")
	}
	return nil
}

// normalizePresenters trims and de-duplicates names and, for field agents,
// makes sure the caller is credited.
func normalizePresenters(claims *models.JWTClaims, names []string) []string {
	seen := make(map[string]struct{}, len(names)+1)
	out := make([]string, 0, len(names)+1)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if claims.IsPresenter() {
		add(claims.CreditName())
	}
	for _, name := range names {
		add(name)
	}
	return out
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
