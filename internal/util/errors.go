package util

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailRegistered        = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrStudentNotFound        = errors.New("student not found")
	ErrAlertNotFound          = errors.New("alert not found")
	ErrAlertAlreadyReviewed   = errors.New("alert already reviewed")
	ErrAssessmentNotFound     = errors.New("assessment not found")
	ErrInvalidAssessmentType  = errors.New("invalid assessment type")
	ErrInvalidAnswerCount     = errors.New("answer count does not match instrument")
	ErrBaselineNotEstablished = errors.New("baseline not established")
	ErrInsufficientData       = errors.New("insufficient data points for temporal analysis")
	ErrSweepAlreadyRunning    = errors.New("outcome sweep already running")
	ErrReportNotFound         = errors.New("crisis report not found")
)
