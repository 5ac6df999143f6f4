package product

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

// Cache holds product listings keyed by search term.
type Cache interface {
	Get(ctx context.Context, query string) ([]domain.Product, bool)
	Set(ctx context.Context, query string, products []domain.Product)
	Invalidate(ctx context.Context)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]domain.Product, bool) { return nil, false }
func (nopCache) Set(context.Context, string, []domain.Product)       {}
func (nopCache) Invalidate(context.Context)                          {}

type Service struct {
	repo   productrepo.Repository
	cache  Cache
	logger *log.Logger
}

// New builds the product service. cache may be nil.
func New(repo productrepo.Repository, cache Cache, logger *log.Logger) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

func (s *Service) List(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if cached, ok := s.cache.Get(ctx, query); ok {
		return cached, nil
	}
	products, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, query, products)
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	s.logger.Printf("product service: created id=%s name=%q", created.ID, created.Name)
	return created, nil
}

func (s *Service) Replace(ctx context.Context, id string, p domain.Product) (*domain.Product, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	p.ID = id
	updated, err := s.repo.Replace(ctx, p)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.logger.Printf("product service: deleted id=%s", id)
	return nil
}

func validate(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.Validationf("product name is required")
	}
	if p.Price.LessThan(decimal.Zero) {
		return domain.Validationf("product price must not be negative")
	}
	return nil
}
