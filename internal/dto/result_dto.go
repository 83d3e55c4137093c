package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/examprep-api/internal/models"
)

// SubmittedAnswer is one entry of a submission. Only selectedOption is read;
// the raw value is kept so non-integral input can be treated as unanswered.
type SubmittedAnswer struct {
	SelectedOption interface{} `json:"selectedOption"`
}

// UnmarshalJSON accepts any JSON value. Entries that are not objects decode
// to an empty answer instead of failing the whole submission.
func (a *SubmittedAnswer) UnmarshalJSON(data []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		a.SelectedOption = nil
		return nil
	}
	a.SelectedOption = fields["selectedOption"]
	return nil
}

// SelectedOptions returns the raw selectedOption values in submission order.
func (r ResultSubmitRequest) SelectedOptions() []interface{} {
	values := make([]interface{}, 0, len(r.Answers))
	for _, answer := range r.Answers {
		values = append(values, answer.SelectedOption)
	}
	return values
}

// ResultSubmitRequest is the payload a student posts after finishing an exam.
type ResultSubmitRequest struct {
	ExamID    uint              `json:"examId" validate:"required"`
	Answers   []SubmittedAnswer `json:"answers" validate:"required"`
	TimeSpent int               `json:"timeSpent" validate:"min=0"`
}

// AnswerEvaluationResponse is the graded outcome of a single question.
type AnswerEvaluationResponse struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
	Points         int    `json:"points"`
}

// ResultResponse is the serialized representation of a graded submission.
type ResultResponse struct {
	ID          uint                       `json:"id"`
	ExamID      uint                       `json:"examId"`
	Exam        *ExamSummary               `json:"exam"`
	User        *UserSummary               `json:"user,omitempty"`
	Answers     []AnswerEvaluationResponse `json:"answers"`
	Score       int                        `json:"score"`
	TotalPoints int                        `json:"totalPoints"`
	Percentage  int                        `json:"percentage"`
	Passed      bool                       `json:"passed"`
	TimeSpent   int                        `json:"timeSpent"`
	Attempt     int                        `json:"attempt"`
	CompletedAt time.Time                  `json:"completedAt"`
	CreatedAt   time.Time                  `json:"createdAt"`
}

// DashboardResponse aggregates a student's results.
type DashboardResponse struct {
	TotalExams        int64            `json:"totalExams"`
	CompletedExams    int              `json:"completedExams"`
	PassedExams       int              `json:"passedExams"`
	AveragePercentage float64          `json:"averagePercentage"`
	RecentResults     []ResultResponse `json:"recentResults"`
}

// NewResultResponse converts a model into a DTO.
func NewResultResponse(result models.Result) ResultResponse {
	answers := make([]AnswerEvaluationResponse, 0, len(result.Answers))
	for _, answer := range result.Answers {
		answers = append(answers, AnswerEvaluationResponse(answer))
	}

	return ResultResponse{
		ID:          result.ID,
		ExamID:      result.ExamID,
		Exam:        NewExamSummary(result.Exam),
		User:        NewUserSummary(result.User),
		Answers:     answers,
		Score:       result.Score,
		TotalPoints: result.TotalPoints,
		Percentage:  result.Percentage,
		Passed:      result.Passed,
		TimeSpent:   result.TimeSpent,
		Attempt:     result.Attempt,
		CompletedAt: result.CompletedAt,
		CreatedAt:   result.CreatedAt,
	}
}

// NewResultResponseSlice converts a slice of models into DTOs.
func NewResultResponseSlice(results []models.Result) []ResultResponse {
	responses := make([]ResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, NewResultResponse(result))
	}

	return responses
}
