package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/events"
	"github.com/noah-isme/examprep-api/internal/grading"
	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/observability"
	"github.com/noah-isme/examprep-api/internal/repository"
)

// DashboardInvalidator drops cached dashboard data for a student.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context, studentID uint)
}

// ResultService grades submissions and answers result queries.
type ResultService interface {
	Submit(ctx context.Context, payload dto.ResultSubmitRequest, actor Actor) (dto.ResultResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]dto.ResultResponse, error)
	Get(ctx context.Context, id uint, actor Actor) (dto.ResultResponse, error)
	ListByExam(ctx context.Context, examID uint, actor Actor) ([]dto.ResultResponse, error)
}

type resultService struct {
	exams     repository.ExamRepository
	results   repository.ResultRepository
	validator *validator.Validate
	dashboard DashboardInvalidator
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewResultService constructs the result service. dashboard and publisher may be nil.
func NewResultService(exams repository.ExamRepository, results repository.ResultRepository, validate *validator.Validate, dashboard DashboardInvalidator, publisher events.Publisher, logger zerolog.Logger) ResultService {
	return &resultService{
		exams:     exams,
		results:   results,
		validator: validate,
		dashboard: dashboard,
		publisher: publisher,
		logger:    logger.With().Str("component", "result_service").Logger(),
		now:       time.Now,
	}
}

func (s *resultService) Submit(ctx context.Context, payload dto.ResultSubmitRequest, actor Actor) (dto.ResultResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/examprep-api/internal/service/result")
	ctx, span := tracer.Start(ctx, "result.submit")
	span.SetAttributes(
		attribute.Int64("result.exam_id", int64(payload.ExamID)),
		attribute.Int64("result.user_id", int64(actor.ID)),
	)
	defer span.End()

	if payload.ExamID == 0 || payload.Answers == nil {
		err := newValidationError("examId and answers are required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ResultResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ResultResponse{}, err
	}

	exam, err := s.exams.GetByID(ctx, payload.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "exam_not_found")
			return dto.ResultResponse{}, ErrExamNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_lookup_failed")
		return dto.ResultResponse{}, err
	}

	outcome := grading.Grade(exam.Questions, grading.Selections(payload.SelectedOptions()), exam.PassingScore)

	previous, err := s.results.CountByUserAndExam(ctx, actor.ID, exam.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt_count_failed")
		return dto.ResultResponse{}, err
	}

	completedAt := s.now()
	result := models.Result{
		UserID:      actor.ID,
		ExamID:      exam.ID,
		Answers:     outcome.Answers,
		Score:       outcome.Score,
		TotalPoints: outcome.TotalPoints,
		Percentage:  outcome.Percentage,
		Passed:      outcome.Passed,
		TimeSpent:   payload.TimeSpent,
		Attempt:     int(previous) + 1,
		CompletedAt: completedAt,
	}
	if err := s.results.Create(ctx, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result_create_failed")
		return dto.ResultResponse{}, err
	}
	span.SetAttributes(
		attribute.Int64("result.id", int64(result.ID)),
		attribute.Int("result.percentage", result.Percentage),
		attribute.Bool("result.passed", result.Passed),
	)

	s.afterSubmit(ctx, result)

	stored, err := s.results.GetByID(ctx, result.ID)
	if err != nil {
		return dto.ResultResponse{}, err
	}
	return dto.NewResultResponse(stored), nil
}

// afterSubmit runs the side effects of a persisted submission. Failures are
// logged and never surface to the caller.
func (s *resultService) afterSubmit(ctx context.Context, result models.Result) {
	observability.RecordSubmission(result.Percentage, result.Passed)

	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx, result.UserID)
	}

	if s.publisher != nil {
		event := events.ResultSubmitted{
			ResultID:    result.ID,
			ExamID:      result.ExamID,
			UserID:      result.UserID,
			Score:       result.Score,
			TotalPoints: result.TotalPoints,
			Percentage:  result.Percentage,
			Passed:      result.Passed,
			Attempt:     result.Attempt,
			CompletedAt: result.CompletedAt,
		}
		if err := s.publisher.PublishResultSubmitted(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("result_id", result.ID).Msg("failed to publish result event")
		}
	}

	s.logger.Info().
		Uint("result_id", result.ID).
		Uint("exam_id", result.ExamID).
		Uint("user_id", result.UserID).
		Int("percentage", result.Percentage).
		Bool("passed", result.Passed).
		Int("attempt", result.Attempt).
		Msg("submission graded")
}

func (s *resultService) ListMine(ctx context.Context, actor Actor) ([]dto.ResultResponse, error) {
	results, err := s.results.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewResultResponseSlice(results), nil
}

func (s *resultService) Get(ctx context.Context, id uint, actor Actor) (dto.ResultResponse, error) {
	result, err := s.results.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, ErrResultNotFound
		}
		return dto.ResultResponse{}, err
	}
	if !result.IsOwnedBy(actor.ID) {
		return dto.ResultResponse{}, ErrForbidden
	}

	return dto.NewResultResponse(result), nil
}

func (s *resultService) ListByExam(ctx context.Context, examID uint, actor Actor) ([]dto.ResultResponse, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	if !exam.IsOwnedBy(actor.ID) {
		return nil, ErrForbidden
	}

	results, err := s.results.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewResultResponseSlice(results), nil
}
