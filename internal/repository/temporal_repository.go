package repository

import (
	"campuswell_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type TemporalRepository struct {
	DB *gorm.DB
}

func NewTemporalRepository(db *gorm.DB) *TemporalRepository {
	return &TemporalRepository{DB: db}
}

func (r *TemporalRepository) CreateAll(patterns []model.TemporalPattern) error {
	if len(patterns) == 0 {
		return nil
	}
	return r.DB.Create(&patterns).Error
}

func (r *TemporalRepository) ListByStudentSince(studentID uint, since time.Time) ([]model.TemporalPattern, error) {
	var patterns []model.TemporalPattern
	err := r.DB.Where("student_id = ? AND detected_at >= ?", studentID, since).
		Order("detected_at DESC").
		Find(&patterns).Error
	return patterns, err
}

// ActiveTypes returns the distinct pattern types detected for a student
// within the window, newest detection per type.
func (r *TemporalRepository) ActiveTypes(studentID uint, since time.Time) ([]string, error) {
	var types []string
	err := r.DB.Model(&model.TemporalPattern{}).
		Where("student_id = ? AND detected_at >= ?", studentID, since).
		Distinct("pattern_type").
		Pluck("pattern_type", &types).Error
	return types, err
}

func (r *TemporalRepository) RecentByStudent(studentID uint, limit int) ([]model.TemporalPattern, error) {
	var patterns []model.TemporalPattern
	err := r.DB.Where("student_id = ?", studentID).
		Order("detected_at DESC").
		Limit(limit).
		Find(&patterns).Error
	return patterns, err
}
