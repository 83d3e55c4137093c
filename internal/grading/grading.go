// Package grading scores a submission against the stored answer key of an exam.
// It never consults correctness data supplied by the caller.
package grading

import (
	"math"

	"github.com/noah-isme/examprep-api/internal/models"
)

// Outcome is the graded breakdown of one submission.
type Outcome struct {
	Answers     []models.AnswerEvaluation
	Score       int
	TotalPoints int
	Percentage  int
	Passed      bool
}

// Grade walks the authoritative question list. selections[i] is the option
// chosen for question i; missing positions count as unanswered.
func Grade(questions []models.Question, selections []int, passingScore int) Outcome {
	outcome := Outcome{Answers: make([]models.AnswerEvaluation, 0, len(questions))}

	for idx, question := range questions {
		points := question.Points
		outcome.TotalPoints += points

		selected := models.UnansweredOption
		if idx < len(selections) {
			selected = selections[idx]
		}

		isCorrect := selected != models.UnansweredOption && selected == question.CorrectAnswer
		awarded := 0
		if isCorrect {
			awarded = points
			outcome.Score += points
		}

		outcome.Answers = append(outcome.Answers, models.AnswerEvaluation{
			QuestionID:     question.ID,
			SelectedOption: selected,
			IsCorrect:      isCorrect,
			Points:         awarded,
		})
	}

	outcome.Percentage = Percentage(outcome.Score, outcome.TotalPoints)
	outcome.Passed = outcome.Percentage >= passingScore

	return outcome
}

// Percentage returns round(score/total*100), or 0 when total is not positive.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// SelectedOption normalizes a decoded JSON value into an option index. Only
// integral numbers are accepted; anything else is treated as unanswered.
func SelectedOption(value interface{}) int {
	var number float64
	switch v := value.(type) {
	case float64:
		number = v
	case int:
		return clampIndex(v)
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return models.UnansweredOption
		}
		return clampIndex(int(v))
	default:
		return models.UnansweredOption
	}

	if math.IsNaN(number) || math.IsInf(number, 0) || number != math.Trunc(number) {
		return models.UnansweredOption
	}
	if number > math.MaxInt32 || number < math.MinInt32 {
		return models.UnansweredOption
	}
	return clampIndex(int(number))
}

// Selections extracts the option index for every submitted position.
func Selections(values []interface{}) []int {
	selections := make([]int, len(values))
	for idx, value := range values {
		selections[idx] = SelectedOption(value)
	}
	return selections
}

func clampIndex(v int) int {
	if v < 0 {
		return models.UnansweredOption
	}
	return v
}
