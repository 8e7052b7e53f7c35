package repository

import (
	"campuswell_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type StudentRepository struct {
	DB *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

func (r *StudentRepository) Create(student *model.Student) error {
	return r.DB.Create(student).Error
}

func (r *StudentRepository) FindByID(id uint) (*model.Student, error) {
	var student model.Student
	err := r.DB.First(&student, id).Error
	return &student, err
}

func (r *StudentRepository) FindByUserID(userID uint) (*model.Student, error) {
	var student model.Student
	err := r.DB.Where("user_id = ?", userID).First(&student).Error
	return &student, err
}

func (r *StudentRepository) FindByExternalID(externalID string) (*model.Student, error) {
	var student model.Student
	err := r.DB.Where("external_id = ?", externalID).First(&student).Error
	return &student, err
}

func (r *StudentRepository) Update(student *model.Student) error {
	return r.DB.Save(student).Error
}

// UpdateBaseline persists only the baseline column so concurrent
// updates to other student fields are not clobbered.
func (r *StudentRepository) UpdateBaseline(studentID uint, baseline model.BaselineProfile) error {
	// Updates with a struct so the json serializer on Baseline runs;
	// Update with a raw struct value bypasses it and fails in the driver.
	return r.DB.Model(&model.Student{}).
		Where("id = ?", studentID).
		Select("baseline").
		Updates(&model.Student{Baseline: baseline}).
		Error
}

func (r *StudentRepository) UpdateLastScreenedAt(studentID uint, at time.Time) error {
	return r.DB.Model(&model.Student{}).
		Where("id = ?", studentID).
		Update("last_screened_at", &at).
		Error
}

func (r *StudentRepository) Count() (int64, error) {
	var total int64
	err := r.DB.Model(&model.Student{}).Count(&total).Error
	return total, err
}

func (r *StudentRepository) List(page, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	if err := r.DB.Model(&model.Student{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.DB.Offset((page - 1) * limit).Limit(limit).
		Order("id ASC").
		Find(&students).Error
	return students, total, err
}
