package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/featureflags"
	"github.com/yourorg/dataplane/internal/infrastructure/redis"
	"github.com/yourorg/dataplane/internal/security"
)

const (
	recentUploadsLimit = 10
	statsCacheTTL      = 30 * time.Second
)

// DashboardStats are the aggregate counts shown on the landing page. The
// scope of each count depends on the caller's role; a regular user gets a
// degenerate self-scope where the client and user counts collapse to 1.
type DashboardStats struct {
	TotalClients  int64 `json:"total_clients"`
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	TotalDatasets int64 `json:"total_datasets"`
}

// AnalyticsOverview lists the most recent schemas in scope plus the summed
// row count across all of them.
type AnalyticsOverview struct {
	RecentUploads []domain.SchemaSummary `json:"recent_uploads"`
	TotalRows     int64                  `json:"total_rows"`
}

// StatsService computes role-scoped dashboard aggregates. Results may be
// served from Redis when the stats_cache flag is on; the cache key embeds
// the caller's scope so tenants never see each other's numbers.
type StatsService struct {
	tenantRepo domain.TenantRepository
	userRepo   domain.UserRepository
	schemaRepo domain.SchemaRepository
	policy     *security.Policy
	cache      *redis.Client // may be nil
	logger     *slog.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	tenantRepo domain.TenantRepository,
	userRepo domain.UserRepository,
	schemaRepo domain.SchemaRepository,
	policy *security.Policy,
	cache *redis.Client,
	logger *slog.Logger,
) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		schemaRepo: schemaRepo,
		policy:     policy,
		cache:      cache,
		logger:     logger,
	}
}

// Dashboard computes the aggregate counts for the caller's scope.
func (s *StatsService) Dashboard(ctx context.Context, principal domain.Principal) (*DashboardStats, error) {
	if err := s.policy.Authorize(principal, security.ActionViewStats); err != nil {
		return nil, err
	}

	cacheKey := "stats:" + scopeKey(principal)
	if stats, ok := s.cachedStats(ctx, cacheKey); ok {
		return stats, nil
	}

	stats := &DashboardStats{}
	var err error

	if principal.Role == domain.RoleRoot {
		if stats.TotalClients, err = s.tenantRepo.Count(); err != nil {
			return nil, apperror.Storage(err)
		}
		if stats.TotalUsers, err = s.userRepo.Count(); err != nil {
			return nil, apperror.Storage(err)
		}
		if stats.ActiveUsers, err = s.userRepo.CountActive(); err != nil {
			return nil, apperror.Storage(err)
		}
		if stats.TotalDatasets, err = s.schemaRepo.CountDatasetsAll(); err != nil {
			return nil, apperror.Storage(err)
		}
		s.storeStats(ctx, cacheKey, stats)
		return stats, nil
	}

	// Non-root callers always see exactly one client: their own.
	stats.TotalClients = 1

	if principal.Role == domain.RoleCompanyAdmin {
		if principal.TenantID == nil {
			return nil, apperror.Forbidden("admin has no tenant affiliation")
		}
		if stats.TotalUsers, err = s.userRepo.CountByTenant(*principal.TenantID); err != nil {
			return nil, apperror.Storage(err)
		}
		if stats.ActiveUsers, err = s.userRepo.CountActiveByTenant(*principal.TenantID); err != nil {
			return nil, apperror.Storage(err)
		}
	} else {
		// A regular user sees only itself.
		stats.TotalUsers = 1
		stats.ActiveUsers = 1
	}

	if principal.TenantID == nil {
		return nil, apperror.Forbidden("account has no tenant affiliation")
	}
	if stats.TotalDatasets, err = s.schemaRepo.CountDatasets(*principal.TenantID); err != nil {
		return nil, apperror.Storage(err)
	}

	s.storeStats(ctx, cacheKey, stats)
	return stats, nil
}

// Analytics returns the recent uploads and summed row count in scope.
func (s *StatsService) Analytics(ctx context.Context, principal domain.Principal) (*AnalyticsOverview, error) {
	if err := s.policy.Authorize(principal, security.ActionViewAnalytics); err != nil {
		return nil, err
	}

	if principal.Role == domain.RoleRoot {
		uploads, err := s.schemaRepo.ListRecentAll(recentUploadsLimit)
		if err != nil {
			return nil, apperror.Storage(err)
		}
		total, err := s.schemaRepo.TotalRowsAll()
		if err != nil {
			return nil, apperror.Storage(err)
		}
		return &AnalyticsOverview{RecentUploads: uploads, TotalRows: total}, nil
	}

	if principal.TenantID == nil {
		return nil, apperror.Forbidden("account has no tenant affiliation")
	}
	uploads, err := s.schemaRepo.ListRecent(*principal.TenantID, recentUploadsLimit)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	total, err := s.schemaRepo.TotalRows(*principal.TenantID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return &AnalyticsOverview{RecentUploads: uploads, TotalRows: total}, nil
}

func (s *StatsService) cachedStats(ctx context.Context, key string) (*DashboardStats, bool) {
	if s.cache == nil || !featureflags.Enabled(featureflags.StatsCache) {
		return nil, false
	}
	payload, hit, err := s.cache.GetJSON(ctx, key)
	if err != nil {
		s.logger.Warn("stats cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	var stats DashboardStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

func (s *StatsService) storeStats(ctx context.Context, key string, stats *DashboardStats) {
	if s.cache == nil || !featureflags.Enabled(featureflags.StatsCache) {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, payload, statsCacheTTL); err != nil {
		s.logger.Warn("stats cache write failed", slog.String("error", err.Error()))
	}
}

// scopeKey names the caller's visibility scope for cache partitioning.
func scopeKey(p domain.Principal) string {
	if p.Role == domain.RoleRoot {
		return "global"
	}
	return string(p.Role) + ":" + tenantOrEmpty(p.TenantID)
}
