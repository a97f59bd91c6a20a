package service

import (
	"context"
	"runtime"
	"time"

	"atelier/internal/cache"
	"atelier/internal/repository"

	"gorm.io/gorm"
)

// HealthProbe reports whether a subsystem is usable. The upload store
// satisfies it directly.
type HealthProbe interface {
	Healthy() bool
}

type AdminService struct {
	userRepo  repository.UserRepository
	orderRepo repository.OrderRepository
	msgRepo   repository.MessageRepository
	db        *gorm.DB
	store     HealthProbe
	mailReady bool
	startedAt time.Time
}

func NewAdminService(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	msgRepo repository.MessageRepository,
	db *gorm.DB,
	store HealthProbe,
	mailReady bool,
) *AdminService {
	return &AdminService{
		userRepo:  userRepo,
		orderRepo: orderRepo,
		msgRepo:   msgRepo,
		db:        db,
		store:     store,
		mailReady: mailReady,
		startedAt: time.Now(),
	}
}

// DashboardStats is the admin landing snapshot. TotalUsers counts customer
// accounts only; admins are not customers.
type DashboardStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalOrders      int64 `json:"total_orders"`
	TotalMessages    int64 `json:"total_messages"`
	PendingRevisions int64 `json:"pending_revisions"`
}

// GetDashboardStats serves the dashboard snapshot through the cache, so a
// crowd of admin tabs polling at once does not hammer the database.
func (s *AdminService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	err := cache.Aside(ctx, cache.DashboardStatsKey(), &stats, cache.DashboardStatsTTL, func() error {
		var err error
		if stats.TotalUsers, err = s.userRepo.CountCustomers(ctx); err != nil {
			return err
		}
		if stats.TotalOrders, err = s.orderRepo.CountAll(ctx); err != nil {
			return err
		}
		if stats.TotalMessages, err = s.msgRepo.CountAll(ctx); err != nil {
			return err
		}
		stats.PendingRevisions, err = s.orderRepo.CountPendingRevisions(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SystemHealth is the operator view of subsystem status.
type SystemHealth struct {
	Database    ComponentHealth   `json:"database"`
	Storage     ComponentHealth   `json:"storage"`
	Email       ComponentHealth   `json:"email"`
	Performance PerformanceHealth `json:"performance"`
}

type ComponentHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
}

type PerformanceHealth struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	Goroutines    int    `json:"goroutines"`
	HeapAllocMB   uint64 `json:"heap_alloc_mb"`
}

// GetSystemHealth probes each subsystem directly, bypassing caches.
func (s *AdminService) GetSystemHealth(ctx context.Context) *SystemHealth {
	health := &SystemHealth{}

	start := time.Now()
	dbStatus := "ok"
	if s.db == nil {
		dbStatus = "down"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "down"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "down"
	}
	health.Database = ComponentHealth{
		Status:    dbStatus,
		LatencyMS: time.Since(start).Milliseconds(),
	}

	health.Storage = ComponentHealth{Status: "ok"}
	if s.store == nil || !s.store.Healthy() {
		health.Storage.Status = "degraded"
	}

	health.Email = ComponentHealth{Status: "configured"}
	if !s.mailReady {
		health.Email.Status = "disabled"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	health.Performance = PerformanceHealth{
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   mem.HeapAlloc >> 20,
	}

	return health
}
