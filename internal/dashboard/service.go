package dashboard

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clientdesk/clientdesk/internal/clients"
)

// StatsPort exposes the aggregate queries the dashboard reads from the
// client store. *clients.Repository satisfies it.
type StatsPort interface {
	CountByStatus(ctx context.Context) (map[clients.Status]int64, error)
	InvestmentTotals(ctx context.Context) (total float64, active int64, err error)
	ReferralCounts(ctx context.Context) (map[string]int64, error)
}

// HealthPort probes infrastructure dependencies.
type HealthPort interface {
	PingDatabase(ctx context.Context) error
	PingCache(ctx context.Context) error
	QueueDepth() (int, error)
}

const (
	cacheKeyOverview  = "dashboard:overview"
	cacheKeyFinancial = "dashboard:financial"
	cacheKeyReferrals = "dashboard:referrals"
)

// Service computes dashboard read models, memoised in Redis for a short TTL.
type Service struct {
	stats  StatsPort
	health HealthPort
	cache  *Cache
}

// NewService builds a Service instance.
func NewService(stats StatsPort, health HealthPort, cache *Cache) *Service {
	return &Service{stats: stats, health: health, cache: cache}
}

// Overview returns headline client counts.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	err := s.cache.FetchJSON(ctx, cacheKeyOverview, &out, func(ctx context.Context) (any, error) {
		counts, err := s.stats.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		total, _, err := s.stats.InvestmentTotals(ctx)
		if err != nil {
			return nil, err
		}
		var sum int64
		for _, n := range counts {
			sum += n
		}
		return Overview{
			TotalClients:    sum,
			PendingClients:  counts[clients.StatusPending],
			ActiveClients:   counts[clients.StatusActive],
			SuspendedCount:  counts[clients.StatusSuspended],
			RejectedCount:   counts[clients.StatusRejected],
			InvestmentTotal: total,
		}, nil
	})
	return out, err
}

// FinancialReport returns investment aggregates.
func (s *Service) FinancialReport(ctx context.Context) (FinancialReport, error) {
	var out FinancialReport
	err := s.cache.FetchJSON(ctx, cacheKeyFinancial, &out, func(ctx context.Context) (any, error) {
		total, active, err := s.stats.InvestmentTotals(ctx)
		if err != nil {
			return nil, err
		}
		report := FinancialReport{
			InvestmentTotal: total,
			ActiveInvestors: active,
			GeneratedAt:     time.Now().UTC(),
		}
		if active > 0 {
			report.AveragePerClient = total / float64(active)
		}
		return report, nil
	})
	return out, err
}

// ReferralAnalytics returns referrers ordered by volume.
func (s *Service) ReferralAnalytics(ctx context.Context) (ReferralAnalytics, error) {
	var out ReferralAnalytics
	err := s.cache.FetchJSON(ctx, cacheKeyReferrals, &out, func(ctx context.Context) (any, error) {
		counts, err := s.stats.ReferralCounts(ctx)
		if err != nil {
			return nil, err
		}
		analytics := ReferralAnalytics{Referrers: make([]ReferralEntry, 0, len(counts))}
		for referrer, n := range counts {
			analytics.TotalReferred += n
			analytics.Referrers = append(analytics.Referrers, ReferralEntry{Referrer: referrer, Count: n})
		}
		sortReferrers(analytics.Referrers)
		return analytics, nil
	})
	return out, err
}

// SystemHealth probes dependencies concurrently. Never cached; the point is
// freshness.
func (s *Service) SystemHealth(ctx context.Context) SystemHealth {
	health := SystemHealth{Database: "ok", Cache: "ok", JobQueue: "ok"}
	var g errgroup.Group
	g.Go(func() error {
		if err := s.health.PingDatabase(ctx); err != nil {
			health.Database = "down"
		}
		return nil
	})
	g.Go(func() error {
		if err := s.health.PingCache(ctx); err != nil {
			health.Cache = "down"
		}
		return nil
	})
	g.Go(func() error {
		pending, err := s.health.QueueDepth()
		if err != nil {
			health.JobQueue = "down"
			return nil
		}
		health.PendingJobs = pending
		return nil
	})
	_ = g.Wait()
	return health
}

func sortReferrers(entries []ReferralEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Referrer < entries[j].Referrer
	})
}
