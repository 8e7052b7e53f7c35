package repository

import (
	"campuswell_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type CrisisRepository struct {
	DB *gorm.DB
}

func NewCrisisRepository(db *gorm.DB) *CrisisRepository {
	return &CrisisRepository{DB: db}
}

func (r *CrisisRepository) CreateAnalytics(analytics *model.CrisisAnalytics) error {
	return r.DB.Create(analytics).Error
}

func (r *CrisisRepository) CreateReport(report *model.CrisisReport) error {
	return r.DB.Create(report).Error
}

func (r *CrisisRepository) FindReportByID(id uint) (*model.CrisisReport, error) {
	var report model.CrisisReport
	err := r.DB.First(&report, id).Error
	return &report, err
}

func (r *CrisisRepository) ListReportsByStudent(studentID uint, limit int) ([]model.CrisisReport, error) {
	var reports []model.CrisisReport
	err := r.DB.Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reports).Error
	return reports, err
}

func (r *CrisisRepository) CountReports() (int64, error) {
	var total int64
	err := r.DB.Model(&model.CrisisReport{}).Count(&total).Error
	return total, err
}

func (r *CrisisRepository) CountReportsByStudentSince(studentID uint, since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CrisisReport{}).
		Where("student_id = ? AND created_at > ?", studentID, since).
		Count(&count).Error
	return count, err
}

func (r *CrisisRepository) CountAnalyticsByStudent(studentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CrisisAnalytics{}).
		Where("student_id = ?", studentID).
		Count(&count).Error
	return count, err
}
