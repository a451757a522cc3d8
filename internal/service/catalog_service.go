package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pmb-api/internal/models"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

const catalogCacheKey = "pmb:catalog"

type catalogRepository interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
	ListTracks(ctx context.Context) ([]models.Track, error)
	ListMajors(ctx context.Context) ([]models.Major, error)
	ListFees(ctx context.Context) ([]models.FeeEntry, error)
	ListDiscounts(ctx context.Context) ([]models.DiscountEntry, error)
	ListPresenters(ctx context.Context) ([]models.Presenter, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	ListInfoSources(ctx context.Context) ([]models.InfoSource, error)
}

type waveRepository interface {
	ListWaves(ctx context.Context) ([]models.Wave, error)
}

// CatalogService loads the reference data used by registration forms and
// caches it as a whole.
type CatalogService struct {
	repo   catalogRepository
	waves  waveRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService constructs a catalog service. cache may be nil.
func NewCatalogService(repo catalogRepository, waves waveRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, waves: waves, cache: cache, ttl: ttl, logger: logger}
}

// Catalog returns the full, unfiltered catalog.
func (s *CatalogService) Catalog(ctx context.Context) (*models.Catalog, error) {
	var cached models.Catalog
	if hit, err := s.cache.Get(ctx, catalogCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	catalog, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, catalogCacheKey, catalog, s.ttl)
	return catalog, nil
}

// Waves always reads the store; number allocation must not see stale waves.
func (s *CatalogService) Waves(ctx context.Context) ([]models.Wave, error) {
	waves, err := s.waves.ListWaves(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waves")
	}
	return waves, nil
}

// Invalidate drops the cached catalog.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, catalogCacheKey)
}

func (s *CatalogService) load(ctx context.Context) (*models.Catalog, error) {
	catalog := &models.Catalog{}
	var err error

	wrap := func(err error, what string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
	}

	if catalog.Branches, err = s.repo.ListBranches(ctx); err != nil {
		return nil, wrap(err, "branches")
	}
	if catalog.Tracks, err = s.repo.ListTracks(ctx); err != nil {
		return nil, wrap(err, "tracks")
	}
	if catalog.Majors, err = s.repo.ListMajors(ctx); err != nil {
		return nil, wrap(err, "majors")
	}
	if catalog.Fees, err = s.repo.ListFees(ctx); err != nil {
		return nil, wrap(err, "fees")
	}
	if catalog.Discounts, err = s.repo.ListDiscounts(ctx); err != nil {
		return nil, wrap(err, "discounts")
	}
	if catalog.Presenters, err = s.repo.ListPresenters(ctx); err != nil {
		return nil, wrap(err, "presenters")
	}
	if catalog.PaymentMethods, err = s.repo.ListPaymentMethods(ctx); err != nil {
		return nil, wrap(err, "payment methods")
	}
	if catalog.InfoSources, err = s.repo.ListInfoSources(ctx); err != nil {
		return nil, wrap(err, "info sources")
	}
	if catalog.Waves, err = s.waves.ListWaves(ctx); err != nil {
		return nil, wrap(err, "waves")
	}

	for i := range catalog.Waves {
		for j := i + 1; j < len(catalog.Waves); j++ {
			if catalog.Waves[i].Overlaps(catalog.Waves[j]) {
				s.logger.Warn("waves overlap", zap.String("wave", catalog.Waves[i].ID), zap.String("other", catalog.Waves[j].ID))
			}
		}
	}
	return catalog, nil
}
