package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/internal/cache"
	"tillpoint/internal/domain"
	"tillpoint/internal/observability"
	"tillpoint/internal/report"
	"tillpoint/internal/sale"
	"tillpoint/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	// TaxRate nil means sale.DefaultTaxRate; zero is a valid rate.
	TaxRate       *decimal.Decimal
	ParkedSaleTTL time.Duration
	Logger        *slog.Logger
	Metrics       *observability.Metrics
	Clock         func() time.Time
}

type Service struct {
	repo       store.Repository
	parked     cache.ParkedSales
	aggregator *report.Aggregator
	taxRate    decimal.Decimal
	parkedTTL  time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*saleSession
}

type saleSession struct {
	mu   sync.Mutex
	calc *sale.Calculator
}

func New(repo store.Repository, parked cache.ParkedSales, opts Options) *Service {
	if parked == nil {
		parked = cache.NewMemoryParkedSales()
	}
	taxRate := sale.DefaultTaxRate
	if opts.TaxRate != nil {
		taxRate = *opts.TaxRate
	}
	if opts.ParkedSaleTTL <= 0 {
		opts.ParkedSaleTTL = 12 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		repo:       repo,
		parked:     parked,
		aggregator: report.NewAggregator(repo).WithClock(opts.Clock),
		taxRate:    taxRate,
		parkedTTL:  opts.ParkedSaleTTL,
		logger:     opts.Logger.With("component", "service"),
		metrics:    opts.Metrics,
		now:        opts.Clock,
		sessions:   make(map[string]*saleSession),
	}
}

func (s *Service) TaxRate() decimal.Decimal {
	return s.taxRate
}

func (s *Service) logAudit(ctx context.Context, action string, attrs ...any) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	args := append([]any{"action", action, "actor", actor.Username, "role", actor.Role}, attrs...)
	s.logger.InfoContext(ctx, "audit", args...)
}
