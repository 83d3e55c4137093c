package dto

import (
	"time"

	"github.com/noah-isme/examprep-api/internal/models"
)

// QuestionRequest is a single authored question. ID is optional and lets an
// update keep the identity of an existing question.
type QuestionRequest struct {
	ID            string   `json:"id" validate:"omitempty,max=64"`
	QuestionText  string   `json:"questionText" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"required"`
	Points        *int     `json:"points" validate:"omitempty"`
}

// ExamCreateRequest describes the payload for authoring an exam.
type ExamCreateRequest struct {
	Title        string            `json:"title" validate:"required,max=255"`
	Description  string            `json:"description" validate:"required"`
	Duration     int               `json:"duration" validate:"required,gt=0"`
	PassingScore *int              `json:"passingScore" validate:"omitempty,min=0,max=100"`
	Questions    []QuestionRequest `json:"questions"`
	Category     string            `json:"category" validate:"required,max=128"`
	Difficulty   string            `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
}

// ExamUpdateRequest replaces only the fields that are present.
type ExamUpdateRequest struct {
	Title        *string            `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string            `json:"description" validate:"omitempty,min=1"`
	Duration     *int               `json:"duration" validate:"omitempty,gt=0"`
	PassingScore *int               `json:"passingScore" validate:"omitempty,min=0,max=100"`
	Questions    *[]QuestionRequest `json:"questions" validate:"omitempty,min=1,dive"`
	Category     *string            `json:"category" validate:"omitempty,min=1,max=128"`
	Difficulty   *string            `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	IsActive     *bool              `json:"isActive"`
}

// ExamListQuery carries the catalog filters.
type ExamListQuery struct {
	Search string `query:"search"`
	Sort   string `query:"sort"`
}

// PublicQuestionResponse is a question with its answer key removed.
type PublicQuestionResponse struct {
	ID           string   `json:"id"`
	QuestionText string   `json:"questionText"`
	Options      []string `json:"options"`
	Points       int      `json:"points"`
}

// QuestionResponse is a question as seen by its author.
type QuestionResponse struct {
	ID            string   `json:"id"`
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Points        int      `json:"points"`
}

// PublicExamResponse is the catalog representation shared with students.
type PublicExamResponse struct {
	ID             uint                     `json:"id"`
	Title          string                   `json:"title"`
	Description    string                   `json:"description"`
	Duration       int                      `json:"duration"`
	TotalQuestions int                      `json:"totalQuestions"`
	PassingScore   int                      `json:"passingScore"`
	Questions      []PublicQuestionResponse `json:"questions"`
	CreatedBy      *UserSummary             `json:"createdBy"`
	IsActive       bool                     `json:"isActive"`
	Category       string                   `json:"category"`
	Difficulty     string                   `json:"difficulty"`
	CreatedAt      time.Time                `json:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// ExamResponse is the full representation including answer keys.
type ExamResponse struct {
	ID             uint               `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Duration       int                `json:"duration"`
	TotalQuestions int                `json:"totalQuestions"`
	PassingScore   int                `json:"passingScore"`
	Questions      []QuestionResponse `json:"questions"`
	CreatedBy      *UserSummary       `json:"createdBy"`
	IsActive       bool               `json:"isActive"`
	Category       string             `json:"category"`
	Difficulty     string             `json:"difficulty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ExamWithStatsResponse extends the author view with the number of submissions.
type ExamWithStatsResponse struct {
	ExamResponse
	AttemptCount int64 `json:"attemptCount"`
}

// ExamSummary is attached to results.
type ExamSummary struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// NewPublicExamResponse converts a model into the redacted DTO.
func NewPublicExamResponse(exam models.Exam) PublicExamResponse {
	questions := make([]PublicQuestionResponse, 0, len(exam.Questions))
	for _, question := range exam.Questions {
		questions = append(questions, PublicQuestionResponse{
			ID:           question.ID,
			QuestionText: question.QuestionText,
			Options:      question.Options,
			Points:       question.Points,
		})
	}

	return PublicExamResponse{
		ID:             exam.ID,
		Title:          exam.Title,
		Description:    exam.Description,
		Duration:       exam.Duration,
		TotalQuestions: exam.QuestionCount(),
		PassingScore:   exam.PassingScore,
		Questions:      questions,
		CreatedBy:      NewUserSummary(exam.Creator),
		IsActive:       exam.IsActive,
		Category:       exam.Category,
		Difficulty:     exam.Difficulty,
		CreatedAt:      exam.CreatedAt,
		UpdatedAt:      exam.UpdatedAt,
	}
}

// NewPublicExamResponseSlice converts a slice of models into redacted DTOs.
func NewPublicExamResponseSlice(exams []models.Exam) []PublicExamResponse {
	responses := make([]PublicExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, NewPublicExamResponse(exam))
	}

	return responses
}

// NewExamResponse converts a model into the author DTO.
func NewExamResponse(exam models.Exam) ExamResponse {
	questions := make([]QuestionResponse, 0, len(exam.Questions))
	for _, question := range exam.Questions {
		questions = append(questions, QuestionResponse(question))
	}

	return ExamResponse{
		ID:             exam.ID,
		Title:          exam.Title,
		Description:    exam.Description,
		Duration:       exam.Duration,
		TotalQuestions: exam.QuestionCount(),
		PassingScore:   exam.PassingScore,
		Questions:      questions,
		CreatedBy:      NewUserSummary(exam.Creator),
		IsActive:       exam.IsActive,
		Category:       exam.Category,
		Difficulty:     exam.Difficulty,
		CreatedAt:      exam.CreatedAt,
		UpdatedAt:      exam.UpdatedAt,
	}
}

// NewExamWithStatsResponse attaches the attempt count to the author DTO.
func NewExamWithStatsResponse(exam models.Exam, attempts int64) ExamWithStatsResponse {
	return ExamWithStatsResponse{ExamResponse: NewExamResponse(exam), AttemptCount: attempts}
}

// NewExamSummary returns nil for results whose exam no longer exists.
func NewExamSummary(exam *models.Exam) *ExamSummary {
	if exam == nil || exam.ID == 0 {
		return nil
	}
	return &ExamSummary{ID: exam.ID, Title: exam.Title, Category: exam.Category, Difficulty: exam.Difficulty}
}

// SeedSampleExamRequest names the teacher who will own the seeded exam.
type SeedSampleExamRequest struct {
	OwnerUserName string `json:"ownerUserName"`
}
