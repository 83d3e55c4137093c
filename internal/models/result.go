package models

import (
	"time"

	"gorm.io/datatypes"
)

// UnansweredOption marks a question the student left blank.
const UnansweredOption = -1

// AnswerEvaluation is the graded outcome for one question of a submission.
type AnswerEvaluation struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
	Points         int    `json:"points"`
}

// Result is the immutable graded record of one submission.
type Result struct {
	ID          uint                                  `gorm:"primaryKey" json:"id"`
	UserID      uint                                  `gorm:"not null;index" json:"userId"`
	ExamID      uint                                  `gorm:"not null;index" json:"examId"`
	Answers     datatypes.JSONSlice[AnswerEvaluation] `gorm:"not null" json:"answers"`
	Score       int                                   `gorm:"not null" json:"score"`
	TotalPoints int                                   `gorm:"not null" json:"totalPoints"`
	Percentage  int                                   `gorm:"not null" json:"percentage"`
	Passed      bool                                  `gorm:"not null" json:"passed"`
	TimeSpent   int                                   `gorm:"not null" json:"timeSpent"`
	Attempt     int                                   `gorm:"not null" json:"attempt"`
	CompletedAt time.Time                             `gorm:"not null" json:"completedAt"`
	CreatedAt   time.Time                             `json:"createdAt"`
	User        User                                  `gorm:"foreignKey:UserID" json:"user"`
	Exam        *Exam                                 `gorm:"foreignKey:ExamID" json:"exam"`
}

// IsOwnedBy reports whether userID submitted the result.
func (r Result) IsOwnedBy(userID uint) bool {
	return userID != 0 && r.UserID == userID
}
