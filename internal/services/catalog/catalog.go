// Package catalog содержит логику каталога услуг, заявок на расчёт
// и публичной проверки сертификатов.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aprendaplus/platform-backend/internal/models"
)

const pricesCacheKey = "catalog:prices"

// Repository описывает контракт хранилища для каталога.
type Repository interface {
	ListServicePrices(ctx context.Context) ([]*models.ServicePrice, error)
	CreateProposal(ctx context.Context, p models.Proposal) (int, error)
	GetCertificateByCode(ctx context.Context, code string) (*models.Certificate, error)
}

// Cache читающий кеш для редко меняющихся данных каталога.
type Cache interface {
	GetOrSet(key string, ttl time.Duration, dest any, producer func() (any, error)) error
	Invalidate(key string) error
}

// CatalogService отдаёт цены услуг через кеш и принимает заявки на расчёт.
type CatalogService struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр CatalogService.
func New(repo Repository, cache Cache, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// ListPrices возвращает активные позиции каталога. Результат кешируется
// на час: цены меняются редко, а читаются с каждой загрузки витрины.
func (s *CatalogService) ListPrices(ctx context.Context) ([]*models.ServicePrice, error) {
	const op = "services.catalog.ListPrices"

	if s.cache == nil {
		return s.repo.ListServicePrices(ctx)
	}

	var prices []*models.ServicePrice
	err := s.cache.GetOrSet(pricesCacheKey, time.Hour, &prices, func() (any, error) {
		return s.repo.ListServicePrices(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return prices, nil
}

// InvalidatePrices сбрасывает кеш цен после правки каталога.
func (s *CatalogService) InvalidatePrices() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(pricesCacheKey)
}

// CreateProposal сохраняет заявку на расчёт услуг.
func (s *CatalogService) CreateProposal(ctx context.Context, cmd models.CreateProposalCommand) (int, error) {
	const op = "services.catalog.CreateProposal"

	id, err := s.repo.CreateProposal(ctx, models.Proposal{
		Email: cmd.Email,
		Name:  cmd.Name,
		Items: cmd.Items,
		Total: cmd.Total,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// VerifyCertificate возвращает сертификат по коду. Ответ кешируется:
// страницу проверки открывают по одной и той же ссылке многократно.
// Отозванный сертификат считается ненайденным: публичный ответ не
// различает эти случаи.
func (s *CatalogService) VerifyCertificate(ctx context.Context, code string) (*models.Certificate, error) {
	const op = "services.catalog.VerifyCertificate"

	cert := &models.Certificate{}
	if s.cache == nil {
		var err error
		cert, err = s.repo.GetCertificateByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		err := s.cache.GetOrSet("catalog:certificate:"+code, 10*time.Minute, cert, func() (any, error) {
			return s.repo.GetCertificateByCode(ctx, code)
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if cert.Revoked {
		return nil, nil
	}
	return cert, nil
}
