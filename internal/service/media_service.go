package service

import (
	"campuswell_backend/internal/model"
	"campuswell_backend/internal/repository"
	"campuswell_backend/internal/util"
	"campuswell_backend/pkg/logger"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MediaService handles voice note uploads. Transcription itself is an
// external collaborator; once a transcript arrives it is fed through
// the same message pipeline as typed chat.
type MediaService struct {
	NoteRepo *repository.VoiceNoteRepository
	Storage  StorageProvider
	Messages *MessageService
}

func NewMediaService(noteRepo *repository.VoiceNoteRepository, storage StorageProvider, messages *MessageService) *MediaService {
	return &MediaService{
		NoteRepo: noteRepo,
		Storage:  storage,
		Messages: messages,
	}
}

func (s *MediaService) UploadVoiceNote(ctx context.Context, studentID uint, file *multipart.FileHeader) (*model.VoiceNote, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, e := range util.AllowedAudioExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if _, err := util.ValidateMimeType(src, []string{util.MimeAudio, "application/ogg", "video/webm", util.MimeOctetStream}); err != nil {
		return nil, err
	}
	if _, err := src.Seek(0, 0); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "voicenote-*"+ext)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := tmp.ReadFrom(src)
	if err != nil {
		return nil, err
	}

	info, err := util.GetAudioInfo(tmp.Name())
	if err != nil {
		return nil, err
	}

	uploadPath := tmp.Name()
	uploadExt := ext
	if ext != ".wav" {
		wavPath := strings.TrimSuffix(tmp.Name(), ext) + ".wav"
		if err := util.TranscodeToWav(tmp.Name(), wavPath); err != nil {
			return nil, fmt.Errorf("failed to transcode voice note: %w", err)
		}
		defer os.Remove(wavPath)
		uploadPath = wavPath
		uploadExt = ".wav"
	}

	objectKey := fmt.Sprintf("voice/%d/%s%s", studentID, model.GenerateUUID(), uploadExt)
	if _, err := s.Storage.UploadFile(ctx, objectKey, uploadPath, "audio/wav"); err != nil {
		return nil, err
	}

	note := &model.VoiceNote{
		StudentID:   studentID,
		ObjectKey:   objectKey,
		Format:      info.Format,
		DurationSec: info.Duration,
		SizeBytes:   size,
	}
	if err := s.NoteRepo.Create(note); err != nil {
		return nil, err
	}

	logger.Log.Info("Voice note stored",
		zap.Uint("student_id", studentID),
		zap.String("object_key", objectKey),
		zap.Float64("duration_sec", info.Duration))
	return note, nil
}

// AttachTranscript stores the externally produced transcript and runs
// it through the message pipeline.
func (s *MediaService) AttachTranscript(ctx context.Context, noteID uint, transcript string) (*MessageResult, error) {
	note, err := s.NoteRepo.FindByID(noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStudentNotFound
		}
		return nil, err
	}

	note.Transcript = transcript
	note.Analyzed = true
	if err := s.NoteRepo.Update(note); err != nil {
		return nil, err
	}

	return s.Messages.HandleIncoming(ctx, note.StudentID, transcript, time.Now())
}

func (s *MediaService) ListByStudent(studentID uint, limit int) ([]model.VoiceNote, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.NoteRepo.ListByStudent(studentID, limit)
}
