package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService creates demo content for local environments.
type SeedService interface {
	SeedSampleExam(ctx context.Context, token string, payload dto.SeedSampleExamRequest) (dto.ExamResponse, error)
}

type seedService struct {
	users   repository.UserRepository
	exams   ExamService
	enabled bool
	token   string
	logger  zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, exams ExamService, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		users:   users,
		exams:   exams,
		enabled: enabled,
		token:   token,
		logger:  logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedSampleExam(ctx context.Context, token string, payload dto.SeedSampleExamRequest) (dto.ExamResponse, error) {
	if !s.enabled {
		return dto.ExamResponse{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.ExamResponse{}, ErrSeedUnauthorized
	}

	userName := strings.TrimSpace(payload.OwnerUserName)
	if userName == "" {
		return dto.ExamResponse{}, newValidationError("ownerUserName is required")
	}

	owner, err := s.users.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrUserNotFound
		}
		return dto.ExamResponse{}, err
	}
	if !owner.HasRole(models.RoleTeacher) {
		return dto.ExamResponse{}, newValidationError("seed owner must be a teacher")
	}

	exam, err := s.exams.Create(ctx, sampleExam(), Actor{ID: owner.ID, Role: owner.Role})
	if err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().Uint("exam_id", exam.ID).Str("owner", owner.UserName).Msg("sample exam seeded")
	return exam, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func sampleExam() dto.ExamCreateRequest {
	passingScore := 60
	question := func(text string, correct int, options ...string) dto.QuestionRequest {
		answer := correct
		return dto.QuestionRequest{QuestionText: text, Options: options, CorrectAnswer: &answer}
	}

	return dto.ExamCreateRequest{
		Title:        "JavaScript Basics Quiz",
		Description:  "Test your JavaScript fundamentals",
		Duration:     15,
		PassingScore: &passingScore,
		Category:     "Programming",
		Difficulty:   models.DifficultyEasy,
		Questions: []dto.QuestionRequest{
			question("What is JavaScript?", 0, "A programming language", "A coffee brand", "A framework", "A database"),
			question("Which keyword declares a variable?", 1, "variable", "var", "v", "int"),
			question("How to write an array?", 2, "var arr = (1,2,3)", "var arr = '1,2,3'", "var arr = [1,2,3]", "var arr = {1,2,3}"),
			question("How to show an alert?", 2, "alertBox('Hi')", "msg('Hi')", "alert('Hi')", "show('Hi')"),
			question("Assignment operator is?", 2, "*", "-", "=", "x"),
		},
	}
}
