package models

import (
	"strings"
	"time"
)

const (
	// RoleStudent is the default role assigned at signup.
	RoleStudent = "student"
	// RoleTeacher may author and manage exams.
	RoleTeacher = "teacher"
)

// User is an account that can either take or author exams.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	UserName     string    `gorm:"column:user_name;size:64;uniqueIndex;not null" json:"userName"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasRole reports whether the user holds any of the given roles.
func (u User) HasRole(roles ...string) bool {
	current := strings.ToLower(strings.TrimSpace(u.Role))
	for _, role := range roles {
		if current != "" && current == strings.ToLower(strings.TrimSpace(role)) {
			return true
		}
	}
	return false
}

// IsValidRole reports whether role is one of the supported account roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher:
		return true
	default:
		return false
	}
}
