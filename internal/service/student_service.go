package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

type StudentService struct {
	StudentRepo  *repository.StudentRepository
	RiskRepo     *repository.RiskRepository
	AnalysisRepo *repository.AnalysisRepository
	TemporalRepo *repository.TemporalRepository
}

func NewStudentService(
	studentRepo *repository.StudentRepository,
	riskRepo *repository.RiskRepository,
	analysisRepo *repository.AnalysisRepository,
	temporalRepo *repository.TemporalRepository,
) *StudentService {
	return &StudentService{
		StudentRepo:  studentRepo,
		RiskRepo:     riskRepo,
		AnalysisRepo: analysisRepo,
		TemporalRepo: temporalRepo,
	}
}

func (s *StudentService) Get(studentID uint) (*model.Student, error) {
	student, err := s.StudentRepo.FindByID(studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStudentNotFound
	}
	return student, err
}

func (s *StudentService) GetByUserID(userID uint) (*model.Student, error) {
	student, err := s.StudentRepo.FindByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStudentNotFound
	}
	return student, err
}

func (s *StudentService) List(page, limit int) ([]model.Student, int64, error) {
	return s.StudentRepo.List(page, limit)
}

// StudentOverview is the per-student detail the counselor view shows.
type StudentOverview struct {
	Student        *model.Student          `json:"student"`
	LatestRisk     *model.RiskProfile      `json:"latestRisk,omitempty"`
	MessageCount   int64                   `json:"messageCount"`
	RecentPatterns []model.TemporalPattern `json:"recentPatterns,omitempty"`
}

func (s *StudentService) Overview(studentID uint) (*StudentOverview, error) {
	student, err := s.Get(studentID)
	if err != nil {
		return nil, err
	}

	latest, err := s.RiskRepo.LatestByStudent(studentID)
	if err != nil {
		return nil, err
	}
	count, err := s.AnalysisRepo.CountByStudent(studentID)
	if err != nil {
		return nil, err
	}
	patterns, err := s.TemporalRepo.RecentByStudent(studentID, 5)
	if err != nil {
		return nil, err
	}

	return &StudentOverview{
		Student:        student,
		LatestRisk:     latest,
		MessageCount:   count,
		RecentPatterns: patterns,
	}, nil
}

// Baseline returns the student's behavioral baseline once enough
// sessions have established it.
func (s *StudentService) Baseline(studentID uint) (*model.BaselineProfile, error) {
	student, err := s.Get(studentID)
	if err != nil {
		return nil, err
	}
	if !student.Baseline.Established {
		return nil, util.ErrBaselineNotEstablished
	}
	return &student.Baseline, nil
}

func (s *StudentService) RecordConsent(studentID uint) error {
	student, err := s.Get(studentID)
	if err != nil {
		return err
	}
	now := time.Now()
	student.ConsentGivenAt = &now
	return s.StudentRepo.Update(student)
}
