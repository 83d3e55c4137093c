package service

import (
	"context"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/events"
	"github.com/noah-isme/examprep-api/internal/models"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Exam{}, &models.Result{}))
	return db
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mini, client
}

func createUser(t *testing.T, db *gorm.DB, userName, role string) models.User {
	t.Helper()
	user := models.User{Name: "User " + userName, UserName: userName, Email: userName + "@example.com", PasswordHash: "hash", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func intPointer(v int) *int {
	return &v
}

func stringPointer(v string) *string {
	return &v
}

func twoQuestionExam() dto.ExamCreateRequest {
	return dto.ExamCreateRequest{
		Title:       "Arithmetic",
		Description: "Simple sums",
		Duration:    10,
		Category:    "Math",
		Questions: []dto.QuestionRequest{
			{QuestionText: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: intPointer(1)},
			{QuestionText: "3+3?", Options: []string{"6", "7", "8"}, CorrectAnswer: intPointer(0)},
		},
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ResultSubmitted
	err    error
}

func (p *recordingPublisher) PublishResultSubmitted(_ context.Context, event events.ResultSubmitted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) published() []events.ResultSubmitted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.ResultSubmitted(nil), p.events...)
}
