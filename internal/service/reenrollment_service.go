package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pmb-api/internal/dto"
	"github.com/noah-isme/pmb-api/internal/models"
	"github.com/noah-isme/pmb-api/internal/repository"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

type reEnrollmentRepository interface {
	reEnrollmentLookup
	List(ctx context.Context, filter models.ReEnrollmentFilter) ([]models.ReEnrollment, int, error)
	FindByID(ctx context.Context, id string) (*models.ReEnrollment, error)
	Create(ctx context.Context, reEnrollment *models.ReEnrollment) error
	Delete(ctx context.Context, id string) error
}

type registrationFinder interface {
	FindByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
}

// ReEnrollmentService records the follow-up payment of registrations.
type ReEnrollmentService struct {
	repo          reEnrollmentRepository
	registrations registrationFinder
	catalog       catalogProvider
	audit         auditRecorder
	events        eventEmitter
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewReEnrollmentService constructs the re-enrollment service.
func NewReEnrollmentService(repo reEnrollmentRepository, registrations registrationFinder, catalog catalogProvider, audit auditRecorder, events eventEmitter, validate *validator.Validate, logger *zap.Logger) *ReEnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReEnrollmentService{
		repo:          repo,
		registrations: registrations,
		catalog:       catalog,
		audit:         audit,
		events:        events,
		validator:     validate,
		logger:        logger,
		now:           time.Now,
	}
}

// Create re-enrolls a registration. Each registration can be re-enrolled
// once; the wave is resolved from the registration date and left empty when
// no wave covers it.
func (s *ReEnrollmentService) Create(ctx context.Context, claims *models.JWTClaims, registrationID string, req dto.CreateReEnrollmentRequest) (*models.ReEnrollment, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid re-enrollment payload")
	}

	registration, err := s.registrations.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if claims.IsPresenter() && registration.BranchID != claims.BranchID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another branch")
	}

	exists, err := s.repo.ExistsForRegistration(ctx, registrationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check re-enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration is already re-enrolled")
	}

	presenters := req.Presenters
	if len(presenters) == 0 {
		presenters = registration.Presenters
	}
	presenters = normalizePresenters(claims, presenters)
	if claims.IsPresenter() {
		catalog, err := s.catalog.Catalog(ctx)
		if err != nil {
			return nil, err
		}
		scope := EffectiveScope(claims, models.ScopeContext{})
		if err := ValidateSelection(*catalog, scope, Selection{Presenters: presenters}); err != nil {
			return nil, err
		}
	}

	waves, err := s.catalog.Waves(ctx)
	if err != nil {
		return nil, err
	}
	var waveID string
	if wave, _, err := ResolveWave(registration.RegisteredOn, waves); err == nil {
		waveID = wave.ID
	}

	gender := req.Gender
	if gender == "" {
		gender = registration.Gender
	}

	reEnrollment := &models.ReEnrollment{
		RegistrationID:     registration.ID,
		RegistrationNumber: registration.Number,
		WaveID:             waveID,
		BranchID:           registration.BranchID,
		Presenters:         presenters,
		Gender:             gender,
		ShirtSize:          req.ShirtSize,
		Installment1:       req.Installment1.Int64(),
		Installment1Date:   req.Installment1Date,
		Installment2:       req.Installment2.Int64(),
		Installment2Date:   req.Installment2Date,
		PaymentMethodID:    req.PaymentMethodID,
		CreatedBy:          claims.UserID,
	}
	if reEnrollment.Installment1 > 0 && reEnrollment.Installment1Date.IsZero() {
		reEnrollment.Installment1Date = models.DateOf(s.now())
	}

	if err := s.repo.Create(ctx, reEnrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicateReEnrollment) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration is already re-enrolled")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create re-enrollment")
	}

	if s.audit != nil {
		recordAudit(ctx, s.audit, s.logger, claims, models.AuditActionReEnrollCreate, "re_enrollment", reEnrollment.ID, reEnrollment)
	}
	if s.events != nil {
		s.events.Emit(models.RegistrationEvent{
			Type:           models.EventReEnrollmentCreated,
			RegistrationID: registration.ID,
			Number:         registration.Number,
			WaveID:         waveID,
			BranchID:       registration.BranchID,
			TotalFee:       reEnrollment.TotalPaid(),
			OccurredAt:     s.now().UTC(),
		})
	}
	return reEnrollment, nil
}

// List returns re-enrollments visible to the caller.
func (s *ReEnrollmentService) List(ctx context.Context, claims *models.JWTClaims, query dto.ReEnrollmentQuery) ([]models.ReEnrollment, *models.Pagination, error) {
	page, size := normalizePage(query.Page, query.PageSize)
	filter := models.ReEnrollmentFilter{WaveID: query.WaveID, BranchID: query.BranchID, Page: page, PageSize: size}
	if claims.IsPresenter() {
		filter.BranchID = claims.BranchID
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list re-enrollments")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Delete removes a re-enrollment.
func (s *ReEnrollmentService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "re-enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load re-enrollment")
	}
	if claims.IsPresenter() && existing.BranchID != claims.BranchID {
		return appErrors.Clone(appErrors.ErrForbidden, "re-enrollment belongs to another branch")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "re-enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete re-enrollment")
	}
	if s.audit != nil {
		recordAudit(ctx, s.audit, s.logger, claims, models.AuditActionReEnrollDelete, "re_enrollment", id, existing)
	}
	return nil
}
