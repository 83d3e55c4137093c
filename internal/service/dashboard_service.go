package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/observability"
	"github.com/noah-isme/examprep-api/internal/repository"
)

const recentResultsLimit = 5

// DashboardService produces the aggregated student dashboard.
type DashboardService interface {
	GetStudentDashboard(ctx context.Context, studentID uint) (dto.DashboardResponse, error)
	Invalidate(ctx context.Context, studentID uint)
}

type dashboardService struct {
	exams    repository.ExamRepository
	results  repository.ResultRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewDashboardService builds the dashboard aggregator. cache may be nil.
func NewDashboardService(exams repository.ExamRepository, results repository.ResultRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &dashboardService{
		exams:    exams,
		results:  results,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
	}
}

// DashboardCacheKey returns the cache key holding a student's dashboard.
func DashboardCacheKey(studentID uint) string {
	return fmt.Sprintf("dashboard:student:%d", studentID)
}

func (s *dashboardService) GetStudentDashboard(ctx context.Context, studentID uint) (dto.DashboardResponse, error) {
	cacheKey := DashboardCacheKey(studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				observability.RecordCacheLookup("dashboard", true)
				// The catalog size changes independently of the student's results.
				totalExams, err := s.exams.Count(ctx)
				if err != nil {
					return dto.DashboardResponse{}, err
				}
				response.TotalExams = totalExams
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
		observability.RecordCacheLookup("dashboard", false)
	}

	totalExams, err := s.exams.Count(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	results, err := s.results.ListByUser(ctx, studentID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	response := buildDashboard(totalExams, results)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) Invalidate(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, DashboardCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate dashboard cache")
	}
}

// buildDashboard expects results newest first.
func buildDashboard(totalExams int64, results []models.Result) dto.DashboardResponse {
	response := dto.DashboardResponse{
		TotalExams:     totalExams,
		CompletedExams: len(results),
		RecentResults:  []dto.ResultResponse{},
	}

	sum := 0
	for _, result := range results {
		sum += result.Percentage
		if result.Passed {
			response.PassedExams++
		}
	}
	if len(results) > 0 {
		average := float64(sum) / float64(len(results))
		response.AveragePercentage = math.Round(average*10) / 10
	}

	recent := results
	if len(recent) > recentResultsLimit {
		recent = recent[:recentResultsLimit]
	}
	response.RecentResults = dto.NewResultResponseSlice(recent)

	return response
}
