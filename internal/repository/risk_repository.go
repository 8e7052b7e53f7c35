package repository

import (
	"campuswell_backend/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

type RiskRepository struct {
	DB *gorm.DB
}

func NewRiskRepository(db *gorm.DB) *RiskRepository {
	return &RiskRepository{DB: db}
}

func (r *RiskRepository) Create(profile *model.RiskProfile) error {
	return r.DB.Create(profile).Error
}

// LatestByStudent returns the most recent risk profile, or nil when the
// student has never been scored.
func (r *RiskRepository) LatestByStudent(studentID uint) (*model.RiskProfile, error) {
	var profile model.RiskProfile
	err := r.DB.Where("student_id = ?", studentID).
		Order("assessed_at DESC").
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *RiskRepository) FindByID(id uint) (*model.RiskProfile, error) {
	var profile model.RiskProfile
	err := r.DB.First(&profile, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetSourceAnalysis back-links a profile to the message analysis that
// produced it.
func (r *RiskRepository) SetSourceAnalysis(profileID, analysisID uint) error {
	return r.DB.Model(&model.RiskProfile{}).
		Where("id = ?", profileID).
		Update("source_analysis_id", analysisID).
		Error
}

// ListSince returns every student's risk profiles after the cutoff,
// oldest first, for population-level trend aggregation.
func (r *RiskRepository) ListSince(since time.Time) ([]model.RiskProfile, error) {
	var profiles []model.RiskProfile
	err := r.DB.Where("assessed_at >= ?", since).
		Order("assessed_at ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *RiskRepository) ListByStudentSince(studentID uint, since time.Time) ([]model.RiskProfile, error) {
	var profiles []model.RiskProfile
	err := r.DB.Where("student_id = ? AND assessed_at >= ?", studentID, since).
		Order("assessed_at ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *RiskRepository) RecentByStudent(studentID uint, limit int) ([]model.RiskProfile, error) {
	var profiles []model.RiskProfile
	err := r.DB.Where("student_id = ?", studentID).
		Order("assessed_at DESC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

// LatestPerStudent returns each student's newest risk profile filtered
// to the given levels, for the counselor dashboard.
func (r *RiskRepository) LatestPerStudent(levels []string) ([]model.RiskProfile, error) {
	sub := r.DB.Model(&model.RiskProfile{}).
		Select("student_id, MAX(assessed_at) AS max_assessed").
		Group("student_id")

	var profiles []model.RiskProfile
	err := r.DB.Model(&model.RiskProfile{}).
		Joins("JOIN (?) latest ON risk_profiles.student_id = latest.student_id AND risk_profiles.assessed_at = latest.max_assessed", sub).
		Where("risk_profiles.risk_level IN ?", levels).
		Order("risk_profiles.risk_score DESC").
		Find(&profiles).Error
	return profiles, err
}
