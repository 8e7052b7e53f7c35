package repository

import (
	"campuswell_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AnalysisRepository struct {
	DB *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{DB: db}
}

func (r *AnalysisRepository) Create(analysis *model.MessageAnalysis) error {
	return r.DB.Create(analysis).Error
}

func (r *AnalysisRepository) FindByID(id uint) (*model.MessageAnalysis, error) {
	var analysis model.MessageAnalysis
	err := r.DB.First(&analysis, id).Error
	return &analysis, err
}

// RecentByStudent returns up to limit analyses, newest first.
func (r *AnalysisRepository) RecentByStudent(studentID uint, limit int) ([]model.MessageAnalysis, error) {
	var analyses []model.MessageAnalysis
	err := r.DB.Where("student_id = ?", studentID).
		Order("message_timestamp DESC").
		Limit(limit).
		Find(&analyses).Error
	return analyses, err
}

func (r *AnalysisRepository) ListByStudentSince(studentID uint, since time.Time) ([]model.MessageAnalysis, error) {
	var analyses []model.MessageAnalysis
	err := r.DB.Where("student_id = ? AND message_timestamp >= ?", studentID, since).
		Order("message_timestamp ASC").
		Find(&analyses).Error
	return analyses, err
}

func (r *AnalysisRepository) Count() (int64, error) {
	var total int64
	err := r.DB.Model(&model.MessageAnalysis{}).Count(&total).Error
	return total, err
}

func (r *AnalysisRepository) CountByStudent(studentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.MessageAnalysis{}).
		Where("student_id = ?", studentID).
		Count(&count).Error
	return count, err
}

func (r *AnalysisRepository) ListByStudent(studentID uint, page, limit int) ([]model.MessageAnalysis, int64, error) {
	var analyses []model.MessageAnalysis
	var total int64

	q := r.DB.Model(&model.MessageAnalysis{}).Where("student_id = ?", studentID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("message_timestamp DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&analyses).Error
	return analyses, total, err
}
