package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/examprep-api/internal/models"
)

// ResultRepository defines persistence operations for graded submissions.
// Results are append-only; there is no update or delete.
type ResultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	GetByID(ctx context.Context, id uint) (models.Result, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Result, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Result, error)
	CountByUserAndExam(ctx context.Context, userID, examID uint) (int64, error)
	CountByExamIDs(ctx context.Context, examIDs []uint) (map[uint]int64, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository instantiates the repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func preloadUserSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "user_name")
}

func preloadExamSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "title", "category", "difficulty")
}

func (r *resultRepository) Create(ctx context.Context, result *models.Result) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(result).Error
}

func (r *resultRepository) GetByID(ctx context.Context, id uint) (models.Result, error) {
	var result models.Result
	if err := r.db.WithContext(ctx).
		Preload("Exam", preloadExamSummary).
		Preload("User", preloadUserSummary).
		First(&result, id).Error; err != nil {
		return models.Result{}, err
	}

	return result, nil
}

func (r *resultRepository) ListByUser(ctx context.Context, userID uint) ([]models.Result, error) {
	var results []models.Result
	if err := r.db.WithContext(ctx).
		Preload("Exam", preloadExamSummary).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r *resultRepository) ListByExam(ctx context.Context, examID uint) ([]models.Result, error) {
	var results []models.Result
	if err := r.db.WithContext(ctx).
		Preload("User", preloadUserSummary).
		Where("exam_id = ?", examID).
		Order("created_at DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r *resultRepository) CountByUserAndExam(ctx context.Context, userID, examID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Result{}).
		Where("user_id = ? AND exam_id = ?", userID, examID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *resultRepository) CountByExamIDs(ctx context.Context, examIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(examIDs))
	if len(examIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ExamID uint
		Total  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Result{}).
		Select("exam_id, COUNT(*) AS total").
		Where("exam_id IN ?", examIDs).
		Group("exam_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ExamID] = row.Total
	}

	return counts, nil
}
