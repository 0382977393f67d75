package inventory

import (
	"context"
	"errors"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/retail-pos/internal/cache"
	"github.com/noah-isme/retail-pos/internal/common"
	"github.com/noah-isme/retail-pos/internal/obs"
)

const listCacheKey = "pos:inventory:all"

type repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Search(ctx context.Context, q string, limit int) ([]Product, error)
	Create(ctx context.Context, input ProductInput) (Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Service orchestrates inventory queries, validation, and list caching.
type Service struct {
	repo        repository
	cache       cache.JSON
	validate    *validator.Validate
	searchLimit int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo        repository
	Cache       cache.JSON
	SearchLimit int
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("inventory: repository is required")
	}
	limit := cfg.SearchLimit
	if limit < 1 {
		limit = 10
	}
	return &Service{
		repo:        cfg.Repo,
		cache:       cfg.Cache,
		validate:    validator.New(),
		searchLimit: limit,
	}, nil
}

// List returns all products, served from the cache when warm.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	var cached []Product
	if hit, err := s.cache.Get(ctx, listCacheKey, &cached); err == nil && hit {
		return cached, nil
	}
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, listCacheKey, products)
	return products, nil
}

// Get returns one product by id, mapping a missing row to NOT_FOUND.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, common.NotFoundError("item not found")
		}
		return Product{}, err
	}
	return product, nil
}

// Search performs a capped substring search. A blank query returns an empty
// slice without touching the store.
func (s *Service) Search(ctx context.Context, q string) ([]Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Product{}, nil
	}
	products, err := s.repo.Search(ctx, q, s.searchLimit)
	if err != nil {
		if obs.InventorySearchTotal != nil {
			obs.InventorySearchTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if obs.InventorySearchTotal != nil {
		obs.InventorySearchTotal.WithLabelValues("ok").Inc()
	}
	return products, nil
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, input ProductInput) (Product, error) {
	if err := s.validateInput(input); err != nil {
		return Product{}, err
	}
	product, err := s.repo.Create(ctx, input)
	if err != nil {
		return Product{}, err
	}
	_ = s.cache.Delete(ctx, listCacheKey)
	return product, nil
}

// Update validates and replaces the product with the given id.
func (s *Service) Update(ctx context.Context, id int64, input ProductInput) (Product, error) {
	if err := s.validateInput(input); err != nil {
		return Product{}, err
	}
	found, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return Product{}, err
	}
	if !found {
		return Product{}, common.NotFoundError("item not found")
	}
	_ = s.cache.Delete(ctx, listCacheKey)
	return Product{ID: id, Name: input.Name, LocalizedName: input.LocalizedName, Unit: input.Unit}, nil
}

// Delete removes the product with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return common.NotFoundError("item not found")
	}
	_ = s.cache.Delete(ctx, listCacheKey)
	return nil
}

func (s *Service) validateInput(input ProductInput) error {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return common.ValidationError("invalid product payload", map[string]any{"fields": fields})
		}
		return common.ValidationError("invalid product payload", nil)
	}
	return nil
}
