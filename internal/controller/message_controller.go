package controller

import (
	"campuswell_backend/internal/service"
	"campuswell_backend/internal/util"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

type MessageController struct {
	Messages *service.MessageService
	Students *service.StudentService
}

func NewMessageController(messages *service.MessageService, students *service.StudentService) *MessageController {
	return &MessageController{Messages: messages, Students: students}
}

type IngestMessageRequest struct {
	Text      string     `json:"text" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

// Ingest godoc
// @Summary Submit a chat message for analysis
// @Description Runs the message through the checkpoint pipeline and returns the analysis outcome
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IngestMessageRequest true "message payload"
// @Success 200 {object} util.Response{data=service.MessageResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /messages [post]
func (c *MessageController) Ingest(ctx *gin.Context) {
	var req IngestMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	student, err := c.Students.GetByUserID(claims.UserID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	ts := time.Time{}
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	result, err := c.Messages.HandleIncoming(ctx.Request.Context(), student.ID, req.Text, ts)
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// IngestForStudent godoc
// @Summary Submit a message on behalf of a student
// @Description Counselor/admin ingestion path for imported transcripts
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "student id"
// @Param body body IngestMessageRequest true "message payload"
// @Success 200 {object} util.Response{data=service.MessageResult}
// @Failure 404 {object} util.Response
// @Router /students/{id}/messages [post]
func (c *MessageController) IngestForStudent(ctx *gin.Context) {
	var req IngestMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	studentID := util.MustParseUint(ctx.Param("id"))
	ts := time.Time{}
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	result, err := c.Messages.HandleIncoming(ctx.Request.Context(), studentID, req.Text, ts)
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
