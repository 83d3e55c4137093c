package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/repository"
)

func newTestExamService(t *testing.T, db *gorm.DB, cache *redis.Client) ExamService {
	t.Helper()
	return NewExamService(repository.NewExamRepository(db), repository.NewResultRepository(db), NewValidator(), cache, time.Minute, zerolog.Nop())
}

func TestExamServiceCreateAppliesDefaults(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestExamService(t, db, nil)
	teacher := createUser(t, db, "teach", models.RoleTeacher)

	payload := twoQuestionExam()
	payload.Title = "<b>Arithmetic</b>"
	payload.Questions[1].Points = intPointer(3)

	exam, err := svc.Create(context.Background(), payload, Actor{ID: teacher.ID, Role: teacher.Role})
	require.NoError(t, err)
	require.Equal(t, "Arithmetic", exam.Title)
	require.Equal(t, models.DefaultPassingScore, exam.PassingScore)
	require.Equal(t, models.DifficultyMedium, exam.Difficulty)
	require.True(t, exam.IsActive)
	require.Equal(t, 2, exam.TotalQuestions)
	require.Equal(t, 1, exam.Questions[0].Points)
	require.Equal(t, 3, exam.Questions[1].Points)
	require.Equal(t, 1, exam.Questions[0].CorrectAnswer)
	require.NotEmpty(t, exam.Questions[0].ID)
	require.NotEqual(t, exam.Questions[0].ID, exam.Questions[1].ID)
	require.NotNil(t, exam.CreatedBy)
	require.Equal(t, "teach", exam.CreatedBy.UserName)
}

func TestExamServiceCreateKeepsEncodedMarkupInert(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestExamService(t, db, nil)
	teacher := createUser(t, db, "teach", models.RoleTeacher)

	payload := twoQuestionExam()
	payload.Title = "&lt;script&gt;alert(1)&lt;/script&gt;"
	payload.Description = "Rock & Roll's \"greatest\" hits"
	payload.Questions[0].Options = []string{"&lt;img src=x onerror=alert(1)&gt;", "&amp;lt;b&amp;gt;"}

	exam, err := svc.Create(context.Background(), payload, Actor{ID: teacher.ID, Role: teacher.Role})
	require.NoError(t, err)
	require.NotContains(t, exam.Title, "<")
	require.Contains(t, exam.Title, "alert(1)")
	require.Equal(t, `Rock & Roll's "greatest" hits`, exam.Description)
	for _, option := range exam.Questions[0].Options {
		require.NotContains(t, option, "<")
	}

	var stored models.Exam
	require.NoError(t, db.First(&stored, exam.ID).Error)
	require.NotContains(t, stored.Title, "<")
	for _, option := range stored.Questions[0].Options {
		require.NotContains(t, option, "<")
	}
}

func TestExamServiceCreateValidation(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestExamService(t, db, nil)
	teacher := createUser(t, db, "teach", models.RoleTeacher)
	actor := Actor{ID: teacher.ID, Role: teacher.Role}

	tests := []struct {
		name    string
		mutate  func(*dto.ExamCreateRequest)
		message string
	}{
		{name: "missing title", mutate: func(r *dto.ExamCreateRequest) { r.Title = "" }, message: "All required fields must be provided"},
		{name: "markup only title", mutate: func(r *dto.ExamCreateRequest) { r.Title = "<i></i>" }, message: "All required fields must be provided"},
		{name: "missing questions", mutate: func(r *dto.ExamCreateRequest) { r.Questions = nil }, message: "All required fields must be provided"},
		{name: "empty questions", mutate: func(r *dto.ExamCreateRequest) { r.Questions = []dto.QuestionRequest{} }, message: "Exam must have at least one question"},
		{name: "single option", mutate: func(r *dto.ExamCreateRequest) { r.Questions[1].Options = []string{"only"} }, message: "Question 2 is invalid"},
		{name: "blank text", mutate: func(r *dto.ExamCreateRequest) { r.Questions[0].QuestionText = " " }, message: "Question 1 is invalid"},
		{name: "answer out of range", mutate: func(r *dto.ExamCreateRequest) { r.Questions[1].CorrectAnswer = intPointer(3) }, message: "Question 2 has invalid correct answer"},
		{name: "negative answer", mutate: func(r *dto.ExamCreateRequest) { r.Questions[0].CorrectAnswer = intPointer(-1) }, message: "Question 1 has invalid correct answer"},
		{name: "missing answer", mutate: func(r *dto.ExamCreateRequest) { r.Questions[0].CorrectAnswer = nil }, message: "Question 1 has invalid correct answer"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := twoQuestionExam()
			tc.mutate(&payload)
			_, err := svc.Create(context.Background(), payload, actor)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tc.message, validationErr.Message)
		})
	}

	payload := twoQuestionExam()
	payload.Difficulty = "Impossible"
	_, err := svc.Create(context.Background(), payload, actor)
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Equal(t, "difficulty", fieldErrs[0].Field())

	var count int64
	require.NoError(t, db.Model(&models.Exam{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestExamServiceCatalogIsRedactedAndCached(t *testing.T) {
	db := setupServiceDB(t)
	mini, cache := setupRedis(t)
	svc := newTestExamService(t, db, cache)
	teacher := createUser(t, db, "teach", models.RoleTeacher)
	actor := Actor{ID: teacher.ID, Role: teacher.Role}
	ctx := context.Background()

	_, err := svc.Create(ctx, twoQuestionExam(), actor)
	require.NoError(t, err)

	list, err := svc.List(ctx, dto.ExamListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, mini.Exists(CatalogCacheKey))

	raw, err := mini.Get(CatalogCacheKey)
	require.NoError(t, err)
	require.NotContains(t, raw, "correctAnswer")

	encoded, err := json.Marshal(list)
	require.NoError(t, err)
	require.NotContains(t, string(encoded), "correctAnswer")

	second := twoQuestionExam()
	second.Title = "Geometry"
	_, err = svc.Create(ctx, second, actor)
	require.NoError(t, err)
	require.False(t, mini.Exists(CatalogCacheKey), "create invalidates the catalog")

	list, err = svc.List(ctx, dto.ExamListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Geometry", list[0].Title)

	filtered, err := svc.List(ctx, dto.ExamListQuery{Search: "geo"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	single, err := svc.Get(ctx, list[1].ID)
	require.NoError(t, err)
	require.Equal(t, "Arithmetic", single.Title)
	require.Len(t, single.Questions, 2)

	_, err = svc.Get(ctx, 4242)
	require.ErrorIs(t, err, ErrExamNotFound)
}

func TestExamServiceCatalogSurvivesCacheOutage(t *testing.T) {
	db := setupServiceDB(t)
	mini, cache := setupRedis(t)
	svc := newTestExamService(t, db, cache)
	teacher := createUser(t, db, "teach", models.RoleTeacher)

	_, err := svc.Create(context.Background(), twoQuestionExam(), Actor{ID: teacher.ID, Role: teacher.Role})
	require.NoError(t, err)

	mini.Close()

	list, err := svc.List(context.Background(), dto.ExamListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestExamServiceUpdateOwnership(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestExamService(t, db, nil)
	owner := createUser(t, db, "owner", models.RoleTeacher)
	other := createUser(t, db, "other", models.RoleTeacher)
	ctx := context.Background()

	created, err := svc.Create(ctx, twoQuestionExam(), Actor{ID: owner.ID, Role: owner.Role})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, dto.ExamUpdateRequest{Title: stringPointer("Hijacked")}, Actor{ID: other.ID, Role: other.Role})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, 999, dto.ExamUpdateRequest{}, Actor{ID: owner.ID, Role: owner.Role})
	require.ErrorIs(t, err, ErrExamNotFound)

	inactive := false
	questions := []dto.QuestionRequest{
		{ID: created.Questions[0].ID, QuestionText: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: intPointer(1)},
		{QuestionText: "1+1?", Options: []string{"2", "3"}, CorrectAnswer: intPointer(0)},
		{QuestionText: "5+5?", Options: []string{"10", "11"}, CorrectAnswer: intPointer(5)},
	}
	updated, err := svc.Update(ctx, created.ID, dto.ExamUpdateRequest{
		Title:        stringPointer("Arithmetic II"),
		PassingScore: intPointer(75),
		IsActive:     &inactive,
		Questions:    &questions,
	}, Actor{ID: owner.ID, Role: owner.Role})
	require.NoError(t, err)
	require.Equal(t, "Arithmetic II", updated.Title)
	require.Equal(t, 75, updated.PassingScore)
	require.False(t, updated.IsActive)
	require.Equal(t, 3, updated.TotalQuestions)
	require.Equal(t, created.Questions[0].ID, updated.Questions[0].ID)
	require.Equal(t, 5, updated.Questions[2].CorrectAnswer, "bounds are only enforced at creation")
	require.Equal(t, "Simple sums", updated.Description)

	var stored models.Exam
	require.NoError(t, db.First(&stored, created.ID).Error)
	require.Equal(t, 3, stored.TotalQuestions)

	_, err = svc.Update(ctx, created.ID, dto.ExamUpdateRequest{Difficulty: stringPointer("Extreme")}, Actor{ID: owner.ID, Role: owner.Role})
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)

	oneOption := []dto.QuestionRequest{{QuestionText: "?", Options: []string{"a"}, CorrectAnswer: intPointer(0)}}
	_, err = svc.Update(ctx, created.ID, dto.ExamUpdateRequest{Questions: &oneOption}, Actor{ID: owner.ID, Role: owner.Role})
	require.ErrorAs(t, err, &fieldErrs)
}

func TestExamServiceDeleteKeepsResults(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestExamService(t, db, nil)
	owner := createUser(t, db, "owner", models.RoleTeacher)
	other := createUser(t, db, "other", models.RoleTeacher)
	student := createUser(t, db, "stud", models.RoleStudent)
	ctx := context.Background()

	created, err := svc.Create(ctx, twoQuestionExam(), Actor{ID: owner.ID, Role: owner.Role})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Result{UserID: student.ID, ExamID: created.ID, Attempt: 1, CompletedAt: time.Now()}).Error)

	require.ErrorIs(t, svc.Delete(ctx, created.ID, Actor{ID: other.ID, Role: other.Role}), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, created.ID, Actor{ID: owner.ID, Role: owner.Role}))
	require.ErrorIs(t, svc.Delete(ctx, created.ID, Actor{ID: owner.ID, Role: owner.Role}), ErrExamNotFound)

	var results int64
	require.NoError(t, db.Model(&models.Result{}).Count(&results).Error)
	require.Equal(t, int64(1), results)
}

func TestExamServiceListMineCountsAttempts(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestExamService(t, db, nil)
	owner := createUser(t, db, "owner", models.RoleTeacher)
	other := createUser(t, db, "other", models.RoleTeacher)
	student := createUser(t, db, "stud", models.RoleStudent)
	ctx := context.Background()

	first, err := svc.Create(ctx, twoQuestionExam(), Actor{ID: owner.ID, Role: owner.Role})
	require.NoError(t, err)
	second, err := svc.Create(ctx, twoQuestionExam(), Actor{ID: owner.ID, Role: owner.Role})
	require.NoError(t, err)
	_, err = svc.Create(ctx, twoQuestionExam(), Actor{ID: other.ID, Role: other.Role})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Result{UserID: student.ID, ExamID: first.ID, Attempt: i + 1, CompletedAt: time.Now()}).Error)
	}

	mine, err := svc.ListMine(ctx, Actor{ID: owner.ID, Role: owner.Role})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	attempts := map[uint]int64{}
	for _, exam := range mine {
		attempts[exam.ID] = exam.AttemptCount
		require.Len(t, exam.Questions, 2)
	}
	require.Equal(t, int64(3), attempts[first.ID])
	require.Equal(t, int64(0), attempts[second.ID])
}
