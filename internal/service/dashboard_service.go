package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

type dashboardRepository interface {
	AdminSummary(ctx context.Context) (*models.AdminDashboard, error)
	StaffSummary(ctx context.Context, today models.Date) (*models.StaffDashboard, error)
	LibrarySummary(ctx context.Context, today models.Date) (*models.LibraryDashboard, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the per-role landing dashboards.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	logger *zap.Logger
	clock  Clock
	cfg    DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repo   dashboardRepository
	Cache  *CacheService
	Logger *zap.Logger
	Clock  Clock
	Config DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := params.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &DashboardService{repo: params.Repo, cache: params.Cache, logger: logger, clock: clock, cfg: cfg}
}

// Admin returns headcounts across the school and reports whether it came from cache.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	const key = "dash:admin"
	var cached models.AdminDashboard
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}
	summary, err := s.repo.AdminSummary(ctx)
	if err != nil {
		return nil, false, internalError(err, "failed to load admin dashboard")
	}
	summary.GeneratedAt = s.clock().UTC()
	s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

// Staff returns grade, student and fee totals for the staff dashboard.
func (s *DashboardService) Staff(ctx context.Context) (*models.StaffDashboard, bool, error) {
	today := s.clock.today()
	key := fmt.Sprintf("dash:staff:%s", today)
	var cached models.StaffDashboard
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}
	summary, err := s.repo.StaffSummary(ctx, today)
	if err != nil {
		return nil, false, internalError(err, "failed to load staff dashboard")
	}
	summary.GeneratedAt = s.clock().UTC()
	s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

// Library returns catalogue and lending totals for the librarian dashboard.
func (s *DashboardService) Library(ctx context.Context) (*models.LibraryDashboard, bool, error) {
	today := s.clock.today()
	key := fmt.Sprintf("dash:library:%s", today)
	var cached models.LibraryDashboard
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}
	summary, err := s.repo.LibrarySummary(ctx, today)
	if err != nil {
		return nil, false, internalError(err, "failed to load library dashboard")
	}
	summary.GeneratedAt = s.clock().UTC()
	s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	return summary, false, nil
}
