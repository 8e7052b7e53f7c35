package controller

import (
	"campuswell_backend/internal/service"
	"campuswell_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type JournalController struct {
	Journal  *service.JournalService
	Students *service.StudentService
}

func NewJournalController(journal *service.JournalService, students *service.StudentService) *JournalController {
	return &JournalController{Journal: journal, Students: students}
}

type JournalSuggestionsRequest struct {
	Entries []service.JournalEntry `json:"entries"`
}

// Suggestions godoc
// @Summary Generate a daily suggestion from journal entries
// @Description Entries stay client-held; the server only derives one short suggestion and stores nothing
// @Tags journal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body JournalSuggestionsRequest true "journal entries"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /journal/suggestions [post]
func (c *JournalController) Suggestions(ctx *gin.Context) {
	var req JournalSuggestionsRequest
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

	suggestion := c.Journal.DailySuggestion(ctx.Request.Context(), student.ID, req.Entries)
	util.Success(ctx, gin.H{"suggestion": suggestion})
}
