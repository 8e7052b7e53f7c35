package repository

import (
	"campuswell_backend/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Create(assessment *model.Assessment) error {
	return r.DB.Create(assessment).Error
}

func (r *AssessmentRepository) ListByStudent(studentID uint, page, limit int) ([]model.Assessment, int64, error) {
	var assessments []model.Assessment
	var total int64

	q := r.DB.Model(&model.Assessment{}).Where("student_id = ?", studentID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("completed_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&assessments).Error
	return assessments, total, err
}

func (r *AssessmentRepository) Count() (int64, error) {
	var total int64
	err := r.DB.Model(&model.Assessment{}).Count(&total).Error
	return total, err
}

// ListByStudentAndType returns every sitting of one instrument for a
// student, oldest first, for trajectory fitting.
func (r *AssessmentRepository) ListByStudentAndType(studentID uint, assessmentType string) ([]model.Assessment, error) {
	var assessments []model.Assessment
	err := r.DB.Where("student_id = ? AND assessment_type = ?", studentID, assessmentType).
		Order("completed_at ASC").
		Find(&assessments).Error
	return assessments, err
}

// ListSince returns all students' assessments after the cutoff,
// oldest first, for population-level aggregation.
func (r *AssessmentRepository) ListSince(since time.Time) ([]model.Assessment, error) {
	var assessments []model.Assessment
	err := r.DB.Where("completed_at >= ?", since).
		Order("completed_at ASC").
		Find(&assessments).Error
	return assessments, err
}

func (r *AssessmentRepository) RecentByStudent(studentID uint, limit int) ([]model.Assessment, error) {
	var assessments []model.Assessment
	err := r.DB.Where("student_id = ?", studentID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&assessments).Error
	return assessments, err
}

// LatestByType returns the newest assessment of a type, or nil when
// none exists.
func (r *AssessmentRepository) LatestByType(studentID uint, assessmentType string) (*model.Assessment, error) {
	var assessment model.Assessment
	err := r.DB.Where("student_id = ? AND assessment_type = ?", studentID, assessmentType).
		Order("completed_at DESC").
		First(&assessment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

// LatestBefore returns the newest assessment of a type completed
// strictly before t, or nil when none exists.
func (r *AssessmentRepository) LatestBefore(studentID uint, assessmentType string, t time.Time) (*model.Assessment, error) {
	var assessment model.Assessment
	err := r.DB.Where(
		"student_id = ? AND assessment_type = ? AND completed_at < ?",
		studentID, assessmentType, t,
	).Order("completed_at DESC").First(&assessment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

// EarliestInRange returns the earliest assessment of a type completed
// within [from, to], or nil when none exists.
func (r *AssessmentRepository) EarliestInRange(studentID uint, assessmentType string, from, to time.Time) (*model.Assessment, error) {
	var assessment model.Assessment
	err := r.DB.Where(
		"student_id = ? AND assessment_type = ? AND completed_at >= ? AND completed_at <= ?",
		studentID, assessmentType, from, to,
	).Order("completed_at ASC").First(&assessment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}
