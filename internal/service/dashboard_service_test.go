package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/repository"
)

func TestBuildDashboard(t *testing.T) {
	results := make([]models.Result, 0, 7)
	for i := 0; i < 7; i++ {
		results = append(results, models.Result{ID: uint(7 - i), Percentage: 50 + i*5, Passed: 50+i*5 >= 60})
	}

	dashboard := buildDashboard(12, results)
	require.Equal(t, int64(12), dashboard.TotalExams)
	require.Equal(t, 7, dashboard.CompletedExams)
	require.Equal(t, 5, dashboard.PassedExams)
	require.Equal(t, 65.0, dashboard.AveragePercentage)
	require.Len(t, dashboard.RecentResults, 5)
	require.Equal(t, uint(7), dashboard.RecentResults[0].ID)

	empty := buildDashboard(0, nil)
	require.Zero(t, empty.AveragePercentage)
	require.NotNil(t, empty.RecentResults)
}

func TestBuildDashboardRoundsAverageToOneDecimal(t *testing.T) {
	dashboard := buildDashboard(3, []models.Result{{Percentage: 100}, {Percentage: 50}, {Percentage: 50}})
	require.Equal(t, 66.7, dashboard.AveragePercentage)
}

func TestDashboardServiceCachesAndInvalidatesOnSubmit(t *testing.T) {
	mini, cache := setupRedis(t)
	db := setupServiceDB(t)
	examRepo := repository.NewExamRepository(db)
	resultRepo := repository.NewResultRepository(db)

	dashboards := NewDashboardService(examRepo, resultRepo, cache, time.Minute, zerolog.Nop())
	exams := NewExamService(examRepo, resultRepo, NewValidator(), cache, time.Minute, zerolog.Nop())
	results := NewResultService(examRepo, resultRepo, NewValidator(), dashboards, nil, zerolog.Nop())

	teacher := createUser(t, db, "teach", models.RoleTeacher)
	student := createUser(t, db, "stud", models.RoleStudent)
	ctx := context.Background()

	exam, err := exams.Create(ctx, twoQuestionExam(), Actor{ID: teacher.ID, Role: teacher.Role})
	require.NoError(t, err)

	first, err := dashboards.GetStudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.TotalExams)
	require.Zero(t, first.CompletedExams)
	require.True(t, mini.Exists(DashboardCacheKey(student.ID)))

	_, err = results.Submit(ctx, dto.ResultSubmitRequest{ExamID: exam.ID, Answers: answers(float64(1), float64(0))}, Actor{ID: student.ID, Role: student.Role})
	require.NoError(t, err)
	require.False(t, mini.Exists(DashboardCacheKey(student.ID)), "submission drops the cached dashboard")

	second, err := dashboards.GetStudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, second.CompletedExams)
	require.Equal(t, 1, second.PassedExams)
	require.Equal(t, 100.0, second.AveragePercentage)
	require.Len(t, second.RecentResults, 1)
	require.Equal(t, "Arithmetic", second.RecentResults[0].Exam.Title)

	require.NoError(t, db.Where("1 = 1").Delete(&models.Result{}).Error)
	cached, err := dashboards.GetStudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, cached.CompletedExams, "served from cache until invalidated")
}

func TestDashboardServiceWithoutCache(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewDashboardService(repository.NewExamRepository(db), repository.NewResultRepository(db), nil, 0, zerolog.Nop())
	student := createUser(t, db, "stud", models.RoleStudent)

	dashboard, err := svc.GetStudentDashboard(context.Background(), student.ID)
	require.NoError(t, err)
	require.Zero(t, dashboard.CompletedExams)
	svc.Invalidate(context.Background(), student.ID)
}

func TestDashboardServiceCachedTotalExamsFollowsCatalog(t *testing.T) {
	mini, cache := setupRedis(t)
	db := setupServiceDB(t)
	examRepo := repository.NewExamRepository(db)
	resultRepo := repository.NewResultRepository(db)

	dashboards := NewDashboardService(examRepo, resultRepo, cache, time.Minute, zerolog.Nop())
	exams := NewExamService(examRepo, resultRepo, NewValidator(), cache, time.Minute, zerolog.Nop())

	teacher := createUser(t, db, "teach", models.RoleTeacher)
	student := createUser(t, db, "stud", models.RoleStudent)
	actor := Actor{ID: teacher.ID, Role: teacher.Role}
	ctx := context.Background()

	first, err := exams.Create(ctx, twoQuestionExam(), actor)
	require.NoError(t, err)

	dashboard, err := dashboards.GetStudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), dashboard.TotalExams)
	require.True(t, mini.Exists(DashboardCacheKey(student.ID)))

	_, err = exams.Create(ctx, twoQuestionExam(), actor)
	require.NoError(t, err)

	dashboard, err = dashboards.GetStudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), dashboard.TotalExams)
	require.True(t, mini.Exists(DashboardCacheKey(student.ID)), "still served from cache")

	require.NoError(t, exams.Delete(ctx, first.ID, actor))

	dashboard, err = dashboards.GetStudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), dashboard.TotalExams)
}
