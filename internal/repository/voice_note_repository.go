package repository

import (
	"campuswell_backend/internal/model"

	"gorm.io/gorm"
)

type VoiceNoteRepository struct {
	DB *gorm.DB
}

func NewVoiceNoteRepository(db *gorm.DB) *VoiceNoteRepository {
	return &VoiceNoteRepository{DB: db}
}

func (r *VoiceNoteRepository) Create(note *model.VoiceNote) error {
	return r.DB.Create(note).Error
}

func (r *VoiceNoteRepository) FindByID(id uint) (*model.VoiceNote, error) {
	var note model.VoiceNote
	err := r.DB.First(&note, id).Error
	return &note, err
}

func (r *VoiceNoteRepository) Update(note *model.VoiceNote) error {
	return r.DB.Save(note).Error
}

func (r *VoiceNoteRepository) ListByStudent(studentID uint, limit int) ([]model.VoiceNote, error) {
	var notes []model.VoiceNote
	err := r.DB.Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notes).Error
	return notes, err
}
