package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"

	// DefaultPassingScore is the percentage threshold used when an exam does not set one.
	DefaultPassingScore = 60
	// DefaultQuestionPoints is awarded for a correct answer when a question does not set points.
	DefaultQuestionPoints = 1
)

// Question is a multiple-choice item embedded in an exam document.
type Question struct {
	ID            string   `json:"id"`
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Points        int      `json:"points"`
}

// Exam is a timed set of questions authored by a teacher.
type Exam struct {
	ID             uint                          `gorm:"primaryKey" json:"id"`
	Title          string                        `gorm:"size:255;not null" json:"title"`
	Description    string                        `gorm:"type:text;not null" json:"description"`
	Duration       int                           `gorm:"not null" json:"duration"`
	TotalQuestions int                           `gorm:"not null" json:"totalQuestions"`
	PassingScore   int                           `gorm:"not null" json:"passingScore"`
	Questions      datatypes.JSONSlice[Question] `gorm:"not null" json:"questions"`
	CreatedByID    uint                          `gorm:"not null;index" json:"createdById"`
	Creator        User                          `gorm:"foreignKey:CreatedByID" json:"creator"`
	IsActive       bool                          `gorm:"not null" json:"isActive"`
	Category       string                        `gorm:"size:128;not null" json:"category"`
	Difficulty     string                        `gorm:"size:16;not null" json:"difficulty"`
	CreatedAt      time.Time                     `json:"createdAt"`
	UpdatedAt      time.Time                     `json:"updatedAt"`
}

// QuestionCount derives the number of questions from the embedded list.
// The stored TotalQuestions column is only a creation-time snapshot.
func (e Exam) QuestionCount() int {
	return len(e.Questions)
}

// IsOwnedBy reports whether userID authored the exam.
func (e Exam) IsOwnedBy(userID uint) bool {
	return userID != 0 && e.CreatedByID == userID
}

// IsValidDifficulty reports whether value is a supported difficulty label.
func IsValidDifficulty(value string) bool {
	switch value {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}
