package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

type studentCounter interface {
	CountAll(ctx context.Context, period *int) (int, error)
}

type gradeCounter interface {
	CountAll(ctx context.Context) (int, error)
}

// DashboardService aggregates headline counts for the admin dashboard.
// Results are cached in Redis; a nil client disables caching.
type DashboardService struct {
	students   studentCounter
	grades     gradeCounter
	attendance *AttendanceService
	cache      *redis.Client
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService builds the dashboard service.
func NewDashboardService(students studentCounter, grades gradeCounter, attendance *AttendanceService, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		students:   students,
		grades:     grades,
		attendance: attendance,
		cache:      cache,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

// Stats returns the dashboard aggregate, served from cache when fresh.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	day := s.now().Format("2006-01-02")
	cacheKey := "dashboard:stats:" + day

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached dto.DashboardStats
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	totalStudents, err := s.students.CountAll(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to count students")
	}
	totalGrades, err := s.grades.CountAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to count grades")
	}
	summary, err := s.attendance.TodaySummary(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dto.DashboardStats{
		TotalStudents: totalStudents,
		TotalGrades:   totalGrades,
		Date:          day,
	}
	stats.Today.OnTime = summary.OnTime
	stats.Today.Late = summary.Late
	stats.Today.Absent = summary.Absent
	stats.Today.Total = summary.Total

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
				s.logger.Sugar().Warnw("failed to cache dashboard stats", "error", err)
			}
		}
	}
	return stats, nil
}
