package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/observability"
	"github.com/noah-isme/examprep-api/internal/repository"
)

// CatalogCacheKey stores the unfiltered, redacted exam catalog.
const CatalogCacheKey = "exams:catalog:v1"

// ExamService exposes exam authoring and catalog operations.
type ExamService interface {
	List(ctx context.Context, query dto.ExamListQuery) ([]dto.PublicExamResponse, error)
	Get(ctx context.Context, id uint) (dto.PublicExamResponse, error)
	Create(ctx context.Context, payload dto.ExamCreateRequest, actor Actor) (dto.ExamResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]dto.ExamWithStatsResponse, error)
	Update(ctx context.Context, id uint, payload dto.ExamUpdateRequest, actor Actor) (dto.ExamResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error
}

type examService struct {
	exams     repository.ExamRepository
	results   repository.ResultRepository
	validator *validator.Validate
	cache     *redis.Client
	cacheTTL  time.Duration
	sanitizer textSanitizer
	logger    zerolog.Logger
}

// NewExamService constructs the exam service. cache may be nil.
func NewExamService(exams repository.ExamRepository, results repository.ResultRepository, validate *validator.Validate, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ExamService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &examService{
		exams:     exams,
		results:   results,
		validator: validate,
		cache:     cache,
		cacheTTL:  ttl,
		sanitizer: newTextSanitizer(),
		logger:    logger.With().Str("component", "exam_service").Logger(),
	}
}

func (s *examService) List(ctx context.Context, query dto.ExamListQuery) ([]dto.PublicExamResponse, error) {
	filter := repository.ExamFilter{Search: strings.TrimSpace(query.Search), Sort: strings.TrimSpace(query.Sort)}
	cacheable := filter.Search == "" && (filter.Sort == "" || strings.EqualFold(filter.Sort, "recent"))

	if cacheable && s.cache != nil {
		if cached, err := s.cache.Get(ctx, CatalogCacheKey).Result(); err == nil {
			var response []dto.PublicExamResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.RecordCacheLookup("catalog", true)
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read catalog cache")
		}
		observability.RecordCacheLookup("catalog", false)
	}

	exams, err := s.exams.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	response := dto.NewPublicExamResponseSlice(exams)

	if cacheable && s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, CatalogCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store catalog cache")
			}
		}
	}

	return response, nil
}

func (s *examService) Get(ctx context.Context, id uint) (dto.PublicExamResponse, error) {
	exam, err := s.load(ctx, id)
	if err != nil {
		return dto.PublicExamResponse{}, err
	}

	return dto.NewPublicExamResponse(exam), nil
}

func (s *examService) Create(ctx context.Context, payload dto.ExamCreateRequest, actor Actor) (dto.ExamResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/examprep-api/internal/service/exam")
	ctx, span := tracer.Start(ctx, "exam.create")
	span.SetAttributes(attribute.Int64("exam.author_id", int64(actor.ID)))
	defer span.End()

	payload.Title = s.sanitizer.clean(payload.Title)
	payload.Description = s.sanitizer.clean(payload.Description)
	payload.Category = s.sanitizer.clean(payload.Category)
	payload.Difficulty = strings.TrimSpace(payload.Difficulty)

	if payload.Title == "" || payload.Description == "" || payload.Duration == 0 || payload.Questions == nil || payload.Category == "" {
		err := newValidationError("All required fields must be provided")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ExamResponse{}, err
	}
	if len(payload.Questions) == 0 {
		err := newValidationError("Exam must have at least one question")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ExamResponse{}, err
	}

	questions := s.buildQuestions(payload.Questions)
	if err := checkAuthoredQuestions(payload.Questions, questions); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ExamResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ExamResponse{}, err
	}

	passingScore := models.DefaultPassingScore
	if payload.PassingScore != nil && *payload.PassingScore > 0 {
		passingScore = *payload.PassingScore
	}
	difficulty := payload.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	exam := models.Exam{
		Title:          payload.Title,
		Description:    payload.Description,
		Duration:       payload.Duration,
		TotalQuestions: len(questions),
		PassingScore:   passingScore,
		Questions:      questions,
		CreatedByID:    actor.ID,
		IsActive:       true,
		Category:       payload.Category,
		Difficulty:     difficulty,
	}
	if err := s.exams.Create(ctx, &exam); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_create_failed")
		return dto.ExamResponse{}, err
	}
	span.SetAttributes(attribute.Int64("exam.id", int64(exam.ID)), attribute.Int("exam.questions", len(questions)))

	s.invalidateCatalog(ctx)
	s.logger.Info().Uint("exam_id", exam.ID).Uint("author_id", actor.ID).Int("questions", len(questions)).Msg("exam created")

	created, err := s.exams.GetByID(ctx, exam.ID)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	return dto.NewExamResponse(created), nil
}

func (s *examService) ListMine(ctx context.Context, actor Actor) ([]dto.ExamWithStatsResponse, error) {
	authorID := actor.ID
	exams, err := s.exams.List(ctx, repository.ExamFilter{CreatedBy: &authorID})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(exams))
	for _, exam := range exams {
		ids = append(ids, exam.ID)
	}
	counts, err := s.results.CountByExamIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	response := make([]dto.ExamWithStatsResponse, 0, len(exams))
	for _, exam := range exams {
		response = append(response, dto.NewExamWithStatsResponse(exam, counts[exam.ID]))
	}

	return response, nil
}

func (s *examService) Update(ctx context.Context, id uint, payload dto.ExamUpdateRequest, actor Actor) (dto.ExamResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/examprep-api/internal/service/exam")
	ctx, span := tracer.Start(ctx, "exam.update")
	span.SetAttributes(attribute.Int64("exam.id", int64(id)), attribute.Int64("exam.actor_id", int64(actor.ID)))
	defer span.End()

	exam, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_lookup_failed")
		return dto.ExamResponse{}, err
	}
	if !exam.IsOwnedBy(actor.ID) {
		span.SetStatus(codes.Error, "forbidden")
		return dto.ExamResponse{}, ErrForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ExamResponse{}, err
	}

	if payload.Title != nil {
		if exam.Title = s.sanitizer.clean(*payload.Title); exam.Title == "" {
			return dto.ExamResponse{}, newValidationError("title must not be empty")
		}
	}
	if payload.Description != nil {
		if exam.Description = s.sanitizer.clean(*payload.Description); exam.Description == "" {
			return dto.ExamResponse{}, newValidationError("description must not be empty")
		}
	}
	if payload.Category != nil {
		if exam.Category = s.sanitizer.clean(*payload.Category); exam.Category == "" {
			return dto.ExamResponse{}, newValidationError("category must not be empty")
		}
	}
	if payload.Duration != nil {
		exam.Duration = *payload.Duration
	}
	if payload.PassingScore != nil {
		exam.PassingScore = *payload.PassingScore
	}
	if payload.Difficulty != nil {
		exam.Difficulty = *payload.Difficulty
	}
	if payload.IsActive != nil {
		exam.IsActive = *payload.IsActive
	}
	if payload.Questions != nil {
		exam.Questions = s.buildQuestions(*payload.Questions)
		exam.TotalQuestions = len(exam.Questions)
	}

	if err := s.exams.Update(ctx, &exam); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_update_failed")
		return dto.ExamResponse{}, err
	}

	s.invalidateCatalog(ctx)
	s.logger.Info().Uint("exam_id", exam.ID).Uint("author_id", actor.ID).Msg("exam updated")
	return dto.NewExamResponse(exam), nil
}

func (s *examService) Delete(ctx context.Context, id uint, actor Actor) error {
	tracer := otel.Tracer("github.com/noah-isme/examprep-api/internal/service/exam")
	ctx, span := tracer.Start(ctx, "exam.delete")
	span.SetAttributes(attribute.Int64("exam.id", int64(id)), attribute.Int64("exam.actor_id", int64(actor.ID)))
	defer span.End()

	exam, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_lookup_failed")
		return err
	}
	if !exam.IsOwnedBy(actor.ID) {
		span.SetStatus(codes.Error, "forbidden")
		return ErrForbidden
	}

	if err := s.exams.Delete(ctx, exam.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_delete_failed")
		return err
	}

	s.invalidateCatalog(ctx)
	s.logger.Info().Uint("exam_id", exam.ID).Uint("author_id", actor.ID).Msg("exam deleted")
	return nil
}

func (s *examService) load(ctx context.Context, id uint) (models.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Exam{}, ErrExamNotFound
		}
		return models.Exam{}, err
	}

	return exam, nil
}

// buildQuestions sanitizes authored questions, assigns missing ids and
// applies the default point value.
func (s *examService) buildQuestions(items []dto.QuestionRequest) []models.Question {
	questions := make([]models.Question, 0, len(items))
	for _, item := range items {
		question := models.Question{
			ID:            strings.TrimSpace(item.ID),
			QuestionText:  s.sanitizer.clean(item.QuestionText),
			Options:       s.sanitizer.cleanAll(item.Options),
			CorrectAnswer: models.UnansweredOption,
			Points:        models.DefaultQuestionPoints,
		}
		if question.ID == "" {
			question.ID = uuid.NewString()
		}
		if item.CorrectAnswer != nil {
			question.CorrectAnswer = *item.CorrectAnswer
		}
		if item.Points != nil && *item.Points > 0 {
			question.Points = *item.Points
		}
		questions = append(questions, question)
	}
	return questions
}

// checkAuthoredQuestions enforces the creation-time rules. Positions in
// messages are 1-based.
func checkAuthoredQuestions(items []dto.QuestionRequest, questions []models.Question) error {
	for idx, question := range questions {
		if question.QuestionText == "" || len(question.Options) < 2 {
			return newValidationError("Question %d is invalid", idx+1)
		}
		if items[idx].CorrectAnswer == nil || question.CorrectAnswer < 0 || question.CorrectAnswer >= len(question.Options) {
			return newValidationError("Question %d has invalid correct answer", idx+1)
		}
	}
	return nil
}

func (s *examService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, CatalogCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}
}
