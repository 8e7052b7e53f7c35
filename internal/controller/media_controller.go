package controller

import (
	"campuswell_backend/internal/service"
	"campuswell_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MediaController struct {
	Media    *service.MediaService
	Students *service.StudentService
}

func NewMediaController(media *service.MediaService, students *service.StudentService) *MediaController {
	return &MediaController{Media: media, Students: students}
}

// Upload godoc
// @Summary Upload a voice note
// @Description Validates and transcodes the audio, stores the blob, and records its metadata
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "audio file"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /voice-notes [post]
func (c *MediaController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	student, err := c.Students.GetByUserID(claims.UserID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	note, err := c.Media.UploadVoiceNote(ctx.Request.Context(), student.ID, file)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, note)
}

type TranscriptRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

// AttachTranscript godoc
// @Summary Attach a transcript to a voice note
// @Description Stores the transcript and runs it through the message pipeline
// @Tags media
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "voice note id"
// @Param body body TranscriptRequest true "transcript"
// @Success 200 {object} util.Response{data=service.MessageResult}
// @Failure 404 {object} util.Response
// @Router /voice-notes/{id}/transcript [post]
func (c *MediaController) AttachTranscript(ctx *gin.Context) {
	var req TranscriptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Media.AttachTranscript(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")), req.Transcript)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListForStudent godoc
// @Summary List a student's voice notes
// @Tags media
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Success 200 {object} util.Response
// @Router /students/{id}/voice-notes [get]
func (c *MediaController) ListForStudent(ctx *gin.Context) {
	notes, err := c.Media.ListByStudent(util.MustParseUint(ctx.Param("id")), 20)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, notes)
}
