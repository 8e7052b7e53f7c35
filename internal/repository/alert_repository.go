package repository

import (
	"campuswell_backend/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

type AlertRepository struct {
	DB *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{DB: db}
}

// CreateDeduplicated inserts the alert unless an identical pending one
// already exists for the student. The lookup and insert run in one
// transaction so concurrent triggers cannot double-fire.
func (r *AlertRepository) CreateDeduplicated(alert *model.Alert) (created bool, err error) {
	err = r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.Alert
		lookupErr := tx.Where(
			"student_id = ? AND message = ? AND status = ?",
			alert.StudentID, alert.Message, model.AlertPending,
		).First(&existing).Error

		if lookupErr == nil {
			*alert = existing
			return nil
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return lookupErr
		}

		created = true
		return tx.Create(alert).Error
	})
	return created, err
}

func (r *AlertRepository) FindByID(id uint) (*model.Alert, error) {
	var alert model.Alert
	err := r.DB.First(&alert, id).Error
	return &alert, err
}

// Queue returns pending alerts ordered urgency first, newest first
// within the same urgency.
func (r *AlertRepository) Queue(limit int) ([]model.Alert, error) {
	var alerts []model.Alert
	err := r.DB.Where("status = ?", model.AlertPending).
		Order("CASE alert_type WHEN 'IMMEDIATE' THEN 1 WHEN 'URGENT' THEN 2 ELSE 3 END").
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}

func (r *AlertRepository) ListByStudent(studentID uint, page, limit int) ([]model.Alert, int64, error) {
	var alerts []model.Alert
	var total int64

	q := r.DB.Model(&model.Alert{}).Where("student_id = ?", studentID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&alerts).Error
	return alerts, total, err
}

// MarkReviewed transitions a pending alert to REVIEWED. The transition
// is forward-only: already reviewed or dismissed alerts are untouched
// and reported via rows affected.
func (r *AlertRepository) MarkReviewed(alertID, reviewerID uint, notes string) (bool, error) {
	now := time.Now()
	res := r.DB.Model(&model.Alert{}).
		Where("id = ? AND status = ?", alertID, model.AlertPending).
		Updates(map[string]interface{}{
			"status":       model.AlertReviewed,
			"reviewed_by":  reviewerID,
			"reviewed_at":  &now,
			"review_notes": notes,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *AlertRepository) SetAppointment(alertID uint, at time.Time) error {
	return r.DB.Model(&model.Alert{}).
		Where("id = ?", alertID).
		Update("appointment_at", &at).Error
}

// ListReviewedSince returns alerts reviewed after the cutoff, used to
// compute counselor response latency.
func (r *AlertRepository) ListReviewedSince(since time.Time) ([]model.Alert, error) {
	var alerts []model.Alert
	err := r.DB.Where("status = ? AND reviewed_at >= ?", model.AlertReviewed, since).
		Find(&alerts).Error
	return alerts, err
}

// ListCreatedBetween returns alerts created within [from, to), used by
// the outcome sweep to pick up one calendar day of alerts.
func (r *AlertRepository) ListCreatedBetween(from, to time.Time) ([]model.Alert, error) {
	var alerts []model.Alert
	err := r.DB.Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&alerts).Error
	return alerts, err
}

func (r *AlertRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.DB.Model(&model.Alert{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
